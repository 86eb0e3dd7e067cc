package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/codeflink/internal/session"
)

func TestConvertUserMessage(t *testing.T) {
	msgs := []*session.Message{
		session.NewTextMessage(session.AuthorUser, "hello"),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 1)
	assert.Equal(t, "user", out[0].Role)
	require.NotNil(t, out[0].Content)
	assert.Equal(t, "hello", *out[0].Content)
	assert.Empty(t, out[0].ToolCalls)
}

func TestConvertUserMessageWithoutTextGetsEmptyContent(t *testing.T) {
	msgs := []*session.Message{
		session.NewMessage(session.AuthorUser),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Content)
	assert.Equal(t, "", *out[0].Content)
}

func TestConvertAssistantToolCallsOnlyOmitsContent(t *testing.T) {
	msgs := []*session.Message{
		session.NewMessage(session.AuthorAssistant, session.ToolRequestPart{
			CallID:        "call_1",
			ToolName:      "ls",
			ArgumentsJSON: `{"path": "."}`,
		}),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 1)
	assert.Equal(t, "assistant", out[0].Role)
	assert.Nil(t, out[0].Content)
	require.Len(t, out[0].ToolCalls, 1)
	assert.Equal(t, "call_1", out[0].ToolCalls[0].ID)
	assert.Equal(t, "function", out[0].ToolCalls[0].Type)
	assert.Equal(t, "ls", out[0].ToolCalls[0].Function.Name)
	assert.Equal(t, `{"path": "."}`, out[0].ToolCalls[0].Function.Arguments)
}

func TestConvertAssistantTextAndToolCalls(t *testing.T) {
	msgs := []*session.Message{
		session.NewMessage(session.AuthorAssistant,
			session.TextPart{Text: "let me check"},
			session.ToolRequestPart{CallID: "call_2", ToolName: "view", ArgumentsJSON: `{"file_path": "a.txt"}`},
		),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Content)
	assert.Equal(t, "let me check", *out[0].Content)
	assert.Len(t, out[0].ToolCalls, 1)
}

func TestConvertToolResultMessage(t *testing.T) {
	msgs := []*session.Message{
		session.NewMessage(session.AuthorTool, session.ToolResultPart{
			CallID:   "call_3",
			ToolName: "ls",
			Output:   "[FILE] a.txt",
		}),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 1)
	assert.Equal(t, "tool", out[0].Role)
	assert.Equal(t, "call_3", out[0].ToolCallID)
	assert.Equal(t, "ls", out[0].Name)
	require.NotNil(t, out[0].Content)
	assert.Equal(t, "[FILE] a.txt", *out[0].Content)
}

func TestConvertPreservesOrder(t *testing.T) {
	msgs := []*session.Message{
		session.NewTextMessage(session.AuthorSystem, "be helpful"),
		session.NewTextMessage(session.AuthorUser, "list files"),
		session.NewMessage(session.AuthorAssistant, session.ToolRequestPart{CallID: "c1", ToolName: "ls", ArgumentsJSON: "{}"}),
		session.NewMessage(session.AuthorTool, session.ToolResultPart{CallID: "c1", ToolName: "ls", Output: "[FILE] x"}),
		session.NewTextMessage(session.AuthorAssistant, "there is one file"),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 5)
	roles := []string{out[0].Role, out[1].Role, out[2].Role, out[3].Role, out[4].Role}
	assert.Equal(t, []string{"system", "user", "assistant", "tool", "assistant"}, roles)
}
