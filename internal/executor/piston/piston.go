// Package piston is an executor.Executor backed by a Piston code-execution API.
package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/executor"
)

// DefaultURL is the public Piston instance.
const DefaultURL = "https://emkc.org/api/v2/piston"

const maxResponseBytes = 4 << 20

var _ executor.Executor = (*Client)(nil)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL. timeout bounds each call.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type file struct {
	Content string `json:"content"`
}

type executeRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []file `json:"files"`
}

type stage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal"`
}

func (s *stage) outcome() *executor.StageOutcome {
	o := &executor.StageOutcome{Stdout: s.Stdout, Stderr: s.Stderr, Output: s.Output, Signal: s.Signal}
	if s.Code != nil {
		o.ExitCode = *s.Code
	}
	return o
}

type executeResponse struct {
	Message string `json:"message"`
	Compile *stage `json:"compile"`
	Run     *stage `json:"run"`
}

// Execute posts the program to {baseURL}/execute. API-level rejections
// (unknown runtime, bad request) come back as a failed Result; transport
// errors and undecodable responses are apperror.ErrUpstream.
func (c *Client) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	start := time.Now()

	body, err := json.Marshal(executeRequest{
		Language: req.Language,
		Version:  req.Version,
		Files:    []file{{Content: req.Code}},
	})
	if err != nil {
		return nil, fmt.Errorf("piston: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("piston: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperror.Upstream("piston", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperror.Upstream("piston", err)
	}

	var out executeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperror.Upstream("piston", fmt.Errorf("status %d: undecodable response", resp.StatusCode))
	}
	if resp.StatusCode >= 500 && out.Message == "" {
		return nil, apperror.Upstream("piston", fmt.Errorf("status %d", resp.StatusCode))
	}

	var compile, run *executor.StageOutcome
	if out.Compile != nil {
		compile = out.Compile.outcome()
	}
	if out.Run != nil {
		run = out.Run.outcome()
	}

	result := executor.Resolve(out.Message, compile, run)
	result.Duration = time.Since(start)
	return result, nil
}
