package executor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/skillsync/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStubRunnerIsDeterministic(t *testing.T) {
	req := Request{SourceCode: "print(1)", LanguageID: 71, Stdin: ""}

	first := StubRunner{}.Run(context.Background(), req)
	second := StubRunner{}.Run(context.Background(), req)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Stdout, "Execution service not configured.")
	assert.Contains(t, first.Stdout, "Language: 71")
	assert.Contains(t, first.Stdout, "Code length: 8")
	assert.Empty(t, first.Stderr)
}

func TestJudge0RunSuccess(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submissions", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("base64_encoded"))
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"stdout": "1\n"})
	}))
	defer server.Close()

	client := NewJudge0Client(config.ExecutorConfig{
		URL:     server.URL,
		APIKey:  "secret",
		Timeout: time.Second,
	}, testLogger())

	result := client.Run(context.Background(), Request{SourceCode: "print(1)", LanguageID: 71})

	assert.Equal(t, "1\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.Equal(t, "print(1)", got.SourceCode)
	assert.Equal(t, 71, got.LanguageID)
}

func TestJudge0RunFoldsCompileOutputIntoStderr(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"compile_output": "syntax error"})
	}))
	defer server.Close()

	client := NewJudge0Client(config.ExecutorConfig{URL: server.URL, Timeout: time.Second}, testLogger())
	result := client.Run(context.Background(), Request{SourceCode: "int main(", LanguageID: 54})

	assert.Empty(t, result.Stdout)
	assert.Equal(t, "syntax error", result.Stderr)
}

func TestJudge0RunNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	}))
	defer server.Close()

	client := NewJudge0Client(config.ExecutorConfig{URL: server.URL, Timeout: time.Second}, testLogger())
	result := client.Run(context.Background(), Request{SourceCode: "print(1)", LanguageID: 71})

	assert.Empty(t, result.Stdout)
	assert.Contains(t, result.Stderr, "Execution error 429")
	assert.Contains(t, result.Stderr, "quota exceeded")
}

func TestJudge0RunTimeoutBecomesErrorResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewJudge0Client(config.ExecutorConfig{URL: server.URL, Timeout: time.Second}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := client.Run(ctx, Request{SourceCode: "print(1)", LanguageID: 71})

	assert.Empty(t, result.Stdout)
	assert.Contains(t, result.Stderr, "Execution failed")
}
