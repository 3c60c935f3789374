// Package battle runs one simulated Finals series: prompt, streamed model
// output, and result extraction.
package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/ai"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
	"github.com/franklwy/NBA-Legend-Simulator/internal/result"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventPrompt    EventType = "prompt"
	EventReasoning EventType = "reasoning"
	EventContent   EventType = "content"
	EventResult    EventType = "result"
	EventError     EventType = "error"
)

// Event is one frame of a battle stream. Field names match what the browser reads.
type Event struct {
	Type         EventType     `json:"type"`
	Content      string        `json:"content,omitempty"`
	Data         result.Result `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
	UserPrompt   string        `json:"userPrompt,omitempty"`
}

// Sink receives events in order. Returning an error stops the battle.
type Sink func(Event) error

type Request struct {
	Team1 nba.Roster
	Team2 nba.Roster
	Names prompt.Names
	// EmitPrompt sends the rendered prompts as the first event.
	EmitPrompt bool
}

type Outcome struct {
	ID       string
	Result   result.Result
	Parsed   result.Outcome
	Duration time.Duration
}

type Runner struct {
	provider ai.Provider
	model    string
}

func NewRunner(p ai.Provider, model string) *Runner {
	return &Runner{provider: p, model: model}
}

func (r *Runner) Model() string { return r.model }

// Run streams every delta to sink as soon as it arrives, then extracts and
// emits the result. On failure an error event is emitted and the error
// (wrapping ai.ErrUpstream) is returned. There is no retry at this level.
func (r *Runner) Run(ctx context.Context, req Request, sink Sink) (*Outcome, error) {
	id := uuid.NewString()
	started := time.Now()
	logger := log.With().Str("battle", id).Str("provider", r.provider.Name()).Str("model", r.model).Logger()

	user := prompt.BuildSeriesPrompt(req.Team1, req.Team2, req.Names)
	if req.EmitPrompt {
		if err := sink(Event{Type: EventPrompt, SystemPrompt: prompt.SystemPrompt, UserPrompt: user}); err != nil {
			return nil, err
		}
	}

	var answer strings.Builder
	var reasoningChunks, answerChunks int
	err := r.provider.Stream(ctx, ai.Conversation(r.model, prompt.SystemPrompt, user), func(d ai.Delta) error {
		switch d.Channel {
		case ai.ChannelReasoning:
			reasoningChunks++
			return sink(Event{Type: EventReasoning, Content: d.Text})
		case ai.ChannelAnswer:
			answerChunks++
			answer.WriteString(d.Text)
			return sink(Event{Type: EventContent, Content: d.Text})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Info().Err(ctx.Err()).Msg("battle cancelled")
			return nil, ctx.Err()
		}
		logger.Error().Err(err).Msg("battle failed")
		_ = sink(Event{Type: EventError, Error: humanError(err)})
		if errors.Is(err, ai.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}

	res, parsed := result.Extract(answer.String())
	out := &Outcome{ID: id, Result: res, Parsed: parsed, Duration: time.Since(started)}
	logger.Info().
		Int("reasoning_chunks", reasoningChunks).
		Int("answer_chunks", answerChunks).
		Str("outcome", parsed.String()).
		Dur("dur", out.Duration).
		Msg("battle finished")
	if err := sink(Event{Type: EventResult, Data: res}); err != nil {
		return out, err
	}
	return out, nil
}

func humanError(err error) string {
	msg := strings.TrimPrefix(err.Error(), ai.ErrUpstream.Error()+": ")
	return "Simulation failed: " + msg
}
