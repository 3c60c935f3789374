package battle

import (
	"context"
	"errors"
	"testing"

	"github.com/franklwy/NBA-Legend-Simulator/internal/ai"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
	"github.com/franklwy/NBA-Legend-Simulator/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	deltas []ai.Delta
	err    error
	got    ai.Request
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Stream(_ context.Context, req ai.Request, fn func(ai.Delta) error) error {
	s.got = req
	for _, d := range s.deltas {
		if err := fn(d); err != nil {
			return err
		}
	}
	return s.err
}

func collect(events *[]Event) Sink {
	return func(e Event) error {
		*events = append(*events, e)
		return nil
	}
}

func TestRun_PreservesArrivalOrderAcrossChannels(t *testing.T) {
	p := &scripted{deltas: []ai.Delta{
		{Channel: ai.ChannelReasoning, Text: "think 1"},
		{Channel: ai.ChannelReasoning, Text: "think 2"},
		{Channel: ai.ChannelAnswer, Text: `{"champion": `},
		{Channel: ai.ChannelReasoning, Text: "late thought"},
		{Channel: ai.ChannelAnswer, Text: `2}`},
	}}
	r := NewRunner(p, "deepseek-reasoner")

	var events []Event
	out, err := r.Run(context.Background(), Request{
		Team1: nba.Roster{nba.PG: {Name: "Magic"}},
		Team2: nba.Roster{nba.PG: {Name: "Stockton"}},
		Names: prompt.Names{Team1: "A", Team2: "B"},
	}, collect(&events))
	require.NoError(t, err)

	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventReasoning, EventReasoning, EventContent, EventReasoning, EventContent, EventResult}, types)
	assert.Equal(t, "late thought", events[3].Content)
	assert.Equal(t, 2, events[5].Data.Champion())
	assert.Equal(t, result.Parsed, out.Parsed)

	require.Len(t, p.got.Messages, 2)
	assert.Equal(t, ai.RoleSystem, p.got.Messages[0].Role)
	assert.Equal(t, prompt.SystemPrompt, p.got.Messages[0].Content)
	assert.Equal(t, ai.RoleUser, p.got.Messages[1].Role)
	assert.Contains(t, p.got.Messages[1].Content, "[A roster]")
	assert.Equal(t, "deepseek-reasoner", p.got.Model)
}

func TestRun_EmitsPromptFirstWhenAsked(t *testing.T) {
	r := NewRunner(&scripted{deltas: []ai.Delta{{Channel: ai.ChannelAnswer, Text: "no json"}}}, "m")

	var events []Event
	out, err := r.Run(context.Background(), Request{EmitPrompt: true}, collect(&events))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventPrompt, events[0].Type)
	assert.Equal(t, prompt.SystemPrompt, events[0].SystemPrompt)
	assert.NotEmpty(t, events[0].UserPrompt)
	assert.Equal(t, EventResult, events[2].Type)
	assert.Equal(t, result.Defaulted, out.Parsed)
	assert.Equal(t, 1, out.Result.Champion())
}

func TestRun_UpstreamFailureEmitsErrorAndNoResult(t *testing.T) {
	p := &scripted{
		deltas: []ai.Delta{{Channel: ai.ChannelReasoning, Text: "hmm"}},
		err:    errors.New("connection reset"),
	}
	r := NewRunner(p, "m")

	var events []Event
	out, err := r.Run(context.Background(), Request{}, collect(&events))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ai.ErrUpstream)

	require.Len(t, events, 2)
	assert.Equal(t, EventReasoning, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, "Simulation failed: connection reset", events[1].Error)
}

func TestRun_CancelledContextIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(&scripted{err: context.Canceled}, "m")

	var events []Event
	_, err := r.Run(ctx, Request{}, collect(&events))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, events)
}
