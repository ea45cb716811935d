package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpRecorder appends runs to the caller's execution log on a codecraft
// server via POST /api/executions.
type httpRecorder struct {
	url    string
	token  string
	client *http.Client
}

func newHTTPRecorder(baseURL, token string, timeout time.Duration) *httpRecorder {
	return &httpRecorder{
		url:    strings.TrimRight(baseURL, "/") + "/api/executions",
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type recordRequest struct {
	Language string  `json:"language"`
	Code     string  `json:"code"`
	Output   *string `json:"output,omitempty"`
	Error    *string `json:"error,omitempty"`
}

func (h *httpRecorder) Record(ctx context.Context, lang, code string, output, errMsg *string) error {
	body, err := json.Marshal(recordRequest{Language: lang, Code: code, Output: output, Error: errMsg})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
