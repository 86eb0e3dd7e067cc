package session

import (
	"encoding/json"
	"fmt"
)

// Part is one element of a message body. It is a closed union: the only
// implementations are TextPart, ToolRequestPart and ToolResultPart, and every
// consumer (wire converter, storage codec, renderer) switches over all three.
type Part interface {
	isPart()
}

// TextPart carries plain text content
type TextPart struct {
	Text string
}

// ToolRequestPart is the model asking to invoke a tool
type ToolRequestPart struct {
	CallID        string
	ToolName      string
	ArgumentsJSON string
}

// ToolResultPart is the outcome of executing a ToolRequestPart, correlated by
// call id
type ToolResultPart struct {
	CallID   string
	ToolName string
	Output   string
	IsError  bool
}

func (TextPart) isPart()        {}
func (ToolRequestPart) isPart() {}
func (ToolResultPart) isPart()  {}

const (
	partTypeText        = "text"
	partTypeToolRequest = "tool_request"
	partTypeToolResult  = "tool_result"
)

type partEnvelope struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// EncodeParts serializes parts as a JSON array of tagged objects, the format
// the messages table stores in its parts column.
func EncodeParts(parts []Part) ([]byte, error) {
	envelopes := make([]partEnvelope, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			envelopes = append(envelopes, partEnvelope{Type: partTypeText, Text: p.Text})
		case ToolRequestPart:
			envelopes = append(envelopes, partEnvelope{
				Type:      partTypeToolRequest,
				CallID:    p.CallID,
				ToolName:  p.ToolName,
				Arguments: p.ArgumentsJSON,
			})
		case ToolResultPart:
			envelopes = append(envelopes, partEnvelope{
				Type:     partTypeToolResult,
				CallID:   p.CallID,
				ToolName: p.ToolName,
				Output:   p.Output,
				IsError:  p.IsError,
			})
		default:
			return nil, fmt.Errorf("unknown content part type %T", part)
		}
	}
	return json.Marshal(envelopes)
}

// DecodeParts parses the JSON produced by EncodeParts
func DecodeParts(data []byte) ([]Part, error) {
	var envelopes []partEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to decode message parts: %w", err)
	}

	parts := make([]Part, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Type {
		case partTypeText:
			parts = append(parts, TextPart{Text: env.Text})
		case partTypeToolRequest:
			parts = append(parts, ToolRequestPart{
				CallID:        env.CallID,
				ToolName:      env.ToolName,
				ArgumentsJSON: env.Arguments,
			})
		case partTypeToolResult:
			parts = append(parts, ToolResultPart{
				CallID:   env.CallID,
				ToolName: env.ToolName,
				Output:   env.Output,
				IsError:  env.IsError,
			})
		default:
			return nil, fmt.Errorf("unknown content part tag %q", env.Type)
		}
	}
	return parts, nil
}
