// Command webhook is a holocore action plugin that posts the gesture
// event that triggered it to an HTTP endpoint.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Event   json.RawMessage `json:"event"`
}

// Response is written to stdout for the executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-action configuration.
type Config struct {
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	TimeoutMs int               `json:"timeoutMs"`
}

const defaultTimeout = 3 * time.Second

func main() {
	resp := run(os.Stdin, http.DefaultClient)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(in io.Reader, client *http.Client) Response {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return failure("failed to decode request: %v", err)
	}
	if req.Action != "post" {
		return failure("unknown action: %s", req.Action)
	}

	var cfg Config
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return failure("invalid config: %v", err)
		}
	}
	if cfg.URL == "" {
		return failure("config.url is required")
	}

	status, err := post(client, cfg, req)
	if err != nil {
		return failure("post %s: %v", cfg.URL, err)
	}
	data, _ := json.Marshal(map[string]int{"status": status})
	return Response{Success: true, Data: data}
}

func post(client *http.Client, cfg Config, req Request) (int, error) {
	timeout := defaultTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"gesture": req.Gesture,
		"event":   req.Event,
	})
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.StatusCode, nil
}

func failure(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}
