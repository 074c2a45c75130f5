package executor

import (
	"context"
	"fmt"
)

// Request carries one code-execution submission in the sandbox's wire shape.
type Request struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

// Result is what the requester gets back. Failures are reported through
// Stderr; a Runner never returns a Go error to the caller, so a broken
// sandbox can only ever degrade one requester's output.
type Result struct {
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// Runner executes a submission within the deadline of ctx.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// StubRunner stands in when no execution endpoint is configured. The output
// deterministically reflects the submission, which keeps integration tests
// independent of a live sandbox.
type StubRunner struct{}

func (StubRunner) Run(_ context.Context, req Request) Result {
	return Result{
		Stdout: fmt.Sprintf(
			"Execution service not configured.\nLanguage: %d\nInput: %s\nCode length: %d",
			req.LanguageID, req.Stdin, len(req.SourceCode),
		),
	}
}
