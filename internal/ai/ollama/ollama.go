package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/ai"
)

type Client struct {
	Host string
	http *http.Client
}

func New(host string, timeout time.Duration) *Client {
	if host == "" {
		host = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{Host: strings.TrimRight(host, "/"), http: &http.Client{Timeout: timeout}}
}

func (c *Client) Name() string { return "ollama" }

type chatLine struct {
	Message struct {
		Content  string `json:"content"`
		Thinking string `json:"thinking"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Stream reads the NDJSON chat stream. Thinking-capable models report their
// trace in message.thinking when "think" is requested.
func (c *Client) Stream(ctx context.Context, req ai.Request, fn func(ai.Delta) error) error {
	payload := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
		"stream":   true,
		"think":    true,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: ollama status %d: %s", ai.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line chatLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return fmt.Errorf("%w: decode line: %w", ai.ErrUpstream, err)
		}
		if line.Error != "" {
			return fmt.Errorf("%w: %w", ai.ErrUpstream, errors.New(line.Error))
		}
		if line.Message.Thinking != "" {
			if err := fn(ai.Delta{Channel: ai.ChannelReasoning, Text: line.Message.Thinking}); err != nil {
				return err
			}
		}
		if line.Message.Content != "" {
			if err := fn(ai.Delta{Channel: ai.ChannelAnswer, Text: line.Message.Content}); err != nil {
				return err
			}
		}
		if line.Done {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	return nil
}
