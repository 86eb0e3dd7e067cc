package llm

import (
	"strings"

	"github.com/codefionn/codeflink/internal/session"
)

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content,omitempty"`
	ToolCalls  []toolCallPart `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type toolCallPart struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func stringPtr(s string) *string { return &s }

// convertMessages maps session messages onto chat-completions wire messages.
// Content-presence rules follow the API contract: user, system and tool
// messages always carry content (empty string if none), assistant messages
// carrying tool calls may omit content entirely.
func convertMessages(messages []*session.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))

	for _, msg := range messages {
		out := chatMessage{Role: string(msg.Author)}

		var text strings.Builder
		var toolCalls []toolCallPart

		switch msg.Author {
		case session.AuthorTool:
			// One tool result per tool message
			for _, part := range msg.Parts {
				if res, ok := part.(session.ToolResultPart); ok {
					out.ToolCallID = res.CallID
					out.Name = res.ToolName
					text.WriteString(res.Output)
					break
				}
			}
		case session.AuthorAssistant:
			for _, part := range msg.Parts {
				switch p := part.(type) {
				case session.TextPart:
					text.WriteString(p.Text)
				case session.ToolRequestPart:
					toolCalls = append(toolCalls, toolCallPart{
						ID:   p.CallID,
						Type: "function",
						Function: functionCall{
							Name:      p.ToolName,
							Arguments: p.ArgumentsJSON,
						},
					})
				}
			}
			out.ToolCalls = toolCalls
		default:
			for _, part := range msg.Parts {
				if p, ok := part.(session.TextPart); ok {
					text.WriteString(p.Text)
				}
			}
		}

		if text.Len() > 0 {
			out.Content = stringPtr(text.String())
		}

		switch msg.Author {
		case session.AuthorUser, session.AuthorSystem, session.AuthorTool:
			if out.Content == nil {
				out.Content = stringPtr("")
			}
		case session.AuthorAssistant:
			// nothing to do: content stays nil when the turn is tool calls only
		}

		result = append(result, out)
	}

	return result
}
