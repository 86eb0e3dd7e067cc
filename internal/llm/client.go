// Package llm exposes the model gateway used by the orchestrator. The gateway
// receives the full conversation history and returns the model's next turn as
// text plus zero or more tool call requests.
package llm

import (
	"context"
	"errors"

	"github.com/codefionn/codeflink/internal/session"
)

// ErrNoChoices indicates the API returned a successful response with an empty
// choice list
var ErrNoChoices = errors.New("no response choices from LLM")

// ToolCallRequest is a single tool invocation requested by the model
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments string // raw JSON string
}

// Completion is the decoded result of one model round-trip
type Completion struct {
	Text      string
	ToolCalls []ToolCallRequest
}

// Gateway sends conversation history to a model and decodes its reply
type Gateway interface {
	Complete(ctx context.Context, messages []*session.Message, model string) (*Completion, error)
}
