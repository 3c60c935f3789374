package ai

import (
	"context"
	"errors"
)

// ErrUpstream marks every failure that originates in the model call.
var ErrUpstream = errors.New("upstream model failure")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Channel tags a streamed token as part of the model's thinking trace or its final answer.
type Channel string

const (
	ChannelReasoning Channel = "reasoning"
	ChannelAnswer    Channel = "content"
)

type Delta struct {
	Channel Channel
	Text    string
}

type Request struct {
	Model    string
	Messages []Message
}

// Provider streams a chat completion. fn is called once per delta in arrival
// order; a non-nil error from fn aborts the stream and is returned as is.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request, fn func(Delta) error) error
}

// Conversation builds the two-message exchange every battle uses.
func Conversation(model, system, user string) Request {
	return Request{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
	}
}
