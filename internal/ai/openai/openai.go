package openai

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

	"github.com/cenkalti/backoff/v4"
	"github.com/franklwy/NBA-Legend-Simulator/internal/ai"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.deepseek.com"

// Client talks to any OpenAI-compatible chat completions endpoint. Reasoning
// models (deepseek-reasoner) put their thinking trace in delta.reasoning_content.
type Client struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	http       *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// RatePerSec caps outgoing requests; 0 disables pacing.
	RatePerSec float64
}

func New(apiKey, baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MaxRetries: opts.MaxRetries,
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Name() string { return "openai" }

type chatRequest struct {
	Model    string       `json:"model"`
	Messages []ai.Message `json:"messages"`
	Stream   bool         `json:"stream"`
}

type chunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Stream opens a streaming completion. Connection and 429/5xx failures are
// retried until the first delta has been delivered; after that any failure
// ends the stream.
func (c *Client) Stream(ctx context.Context, req ai.Request, fn func(ai.Delta) error) error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: missing DEEPSEEK_API_KEY", ai.ErrUpstream)
	}
	body, err := json.Marshal(chatRequest{Model: req.Model, Messages: req.Messages, Stream: true})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %w", ai.ErrUpstream, err)
	}

	delivered := false
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := c.streamOnce(ctx, body, func(d ai.Delta) error {
			delivered = true
			return fn(d)
		})
		if err == nil {
			return nil
		}
		var se *statusError
		switch {
		case delivered, ctx.Err() != nil:
			return backoff.Permanent(err)
		case errors.As(err, &se) && !se.retryable():
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("model request failed, retrying")
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 8 * time.Second
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
	if err != nil {
		if errors.Is(err, ai.ErrUpstream) {
			return err
		}
		return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	return nil
}

func (c *Client) streamOnce(ctx context.Context, body []byte, fn func(ai.Delta) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}
		var ck chunk
		if err := json.Unmarshal([]byte(data), &ck); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}
		if len(ck.Choices) == 0 {
			continue
		}
		d := ck.Choices[0].Delta
		switch {
		case d.ReasoningContent != "":
			if err := fn(ai.Delta{Channel: ai.ChannelReasoning, Text: d.ReasoningContent}); err != nil {
				return err
			}
		case d.Content != "":
			if err := fn(ai.Delta{Channel: ai.ChannelAnswer, Text: d.Content}); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}
