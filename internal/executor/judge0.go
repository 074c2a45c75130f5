package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/immxrtalbeast/skillsync/internal/config"
	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

const maxErrorBody = 4 * 1024

// Judge0Client submits code to a Judge0-compatible endpoint and waits for
// the verdict in the same request.
type Judge0Client struct {
	url    string
	apiKey string
	client *http.Client
	log    *slog.Logger
}

func NewJudge0Client(cfg config.ExecutorConfig, log *slog.Logger) *Judge0Client {
	if log == nil {
		log = slog.Default()
	}
	return &Judge0Client{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (c *Judge0Client) Run(ctx context.Context, req Request) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{Stderr: "Execution failed: " + err.Error()}
	}

	url := c.url + "/submissions?base64_encoded=false&wait=true"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Stderr: "Execution failed: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if strings.Contains(c.url, "rapidapi.com") {
		httpReq.Header.Set("X-RapidAPI-Host", "judge0-ce.p.rapidapi.com")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warn("execution request failed", sl.Err(err))
		return Result{Stderr: "Execution failed: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{Stderr: fmt.Sprintf("Execution error %d: %s", resp.StatusCode, text)}
	}

	var verdict struct {
		Stdout        string `json:"stdout"`
		Stderr        string `json:"stderr"`
		CompileOutput string `json:"compile_output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return Result{Stderr: "Execution failed: " + err.Error()}
	}

	stderr := verdict.Stderr
	if stderr == "" {
		stderr = verdict.CompileOutput
	}
	return Result{Stdout: verdict.Stdout, Stderr: stderr}
}
