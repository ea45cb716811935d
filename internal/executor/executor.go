// Package executor defines the code-execution port and the result contract
// every backend (remote API or local sandbox) reports through.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Stages a failure can be attributed to.
const (
	StageAPI     = "api"
	StageCompile = "compile"
	StageRun     = "run"
)

// Request is one program to run.
type Request struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Code     string `json:"code"`
}

// Result is the outcome of a run. Output and Error are independent: a
// successful run has Error == "" and a failed one has Error set and Output
// empty.
type Result struct {
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Stage    string        `json:"stage,omitempty"` // set when Error is
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the run produced an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// Executor runs code. A non-nil error means the backend could not be reached
// or misbehaved; program failures are reported inside Result.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// StageOutcome is the captured streams of one stage (compile or run).
type StageOutcome struct {
	Stdout   string
	Stderr   string
	Output   string // interleaved stdout+stderr, when the backend provides it
	ExitCode int
	Signal   string
}

func (s *StageOutcome) failed() bool {
	return s.ExitCode != 0 || s.Signal != ""
}

// message prefers stderr, then stdout, so a failure never has an empty text.
func (s *StageOutcome) message(stage string) string {
	if msg := strings.TrimRight(s.Stderr, "\n"); msg != "" {
		return msg
	}
	if msg := strings.TrimRight(s.Stdout, "\n"); msg != "" {
		return msg
	}
	if s.Signal != "" {
		return fmt.Sprintf("%s killed by %s", stage, s.Signal)
	}
	return fmt.Sprintf("%s failed with exit code %d", stage, s.ExitCode)
}

// Resolve applies the result precedence: an API-level message wins, then a
// failed compile stage, then a failed run stage, and only then the run output.
// compile may be nil for interpreted languages.
func Resolve(apiMessage string, compile, run *StageOutcome) *Result {
	switch {
	case apiMessage != "":
		return &Result{Error: apiMessage, Stage: StageAPI}
	case compile != nil && compile.failed():
		return &Result{Error: compile.message(StageCompile), Stage: StageCompile, ExitCode: compile.ExitCode}
	case run != nil && run.failed():
		return &Result{Error: run.message(StageRun), Stage: StageRun, ExitCode: run.ExitCode}
	case run != nil:
		out := run.Output
		if out == "" {
			out = run.Stdout + run.Stderr
		}
		return &Result{Output: out}
	}
	return &Result{Error: "no result from execution backend", Stage: StageAPI}
}
