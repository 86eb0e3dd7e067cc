package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/codeflink/internal/fs"
	"github.com/codefionn/codeflink/internal/llm"
	"github.com/codefionn/codeflink/internal/orchestrator"
	"github.com/codefionn/codeflink/internal/session"
	"github.com/codefionn/codeflink/internal/tools"
)

type scriptedGateway struct {
	completions []*llm.Completion
}

func (g *scriptedGateway) Complete(ctx context.Context, messages []*session.Message, model string) (*llm.Completion, error) {
	if len(g.completions) == 0 {
		return &llm.Completion{Text: "done"}, nil
	}
	next := g.completions[0]
	g.completions = g.completions[1:]
	return next, nil
}

type nopPersistence struct{}

func (nopPersistence) AppendMessage(sessionID uuid.UUID, msg *session.Message) error { return nil }
func (nopPersistence) UpsertSessionMetadata(sess *session.Session) error             { return nil }

func newTestCLI(t *testing.T, gateway llm.Gateway, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	cfs := fs.NewCachedFS(t.TempDir(), time.Second, 4)
	t.Cleanup(func() { _ = cfs.Close() })

	store := session.NewStore()
	orch := orchestrator.New(store, nopPersistence{}, gateway, tools.NewDefaultRegistry(cfs), "gpt-4o-mini")
	orch.NewSession("test")

	out := &bytes.Buffer{}
	return New(orch, nil, strings.NewReader(input), out), out
}

func TestRunSimpleExchange(t *testing.T) {
	gateway := &scriptedGateway{completions: []*llm.Completion{{Text: "hi there"}}}
	cli, out := newTestCLI(t, gateway, "hello\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))
	assert.Contains(t, out.String(), "assistant: hi there")
}

func TestRunPermissionPromptAllowOnce(t *testing.T) {
	gateway := &scriptedGateway{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCallRequest{{ID: "c1", Name: "ls", Arguments: `{"path": "."}`}}},
		{Text: "empty directory"},
	}}
	cli, out := newTestCLI(t, gateway, "list files\ny\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, `Tool "ls" requests permission`)
	assert.Contains(t, text, "tool ls [ok]:")
	assert.Contains(t, text, "assistant: empty directory")
}

func TestRunPermissionPromptDeny(t *testing.T) {
	gateway := &scriptedGateway{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCallRequest{{ID: "c1", Name: "write", Arguments: `{"file_path": "x", "content": "y"}`}}},
		{Text: "okay, not writing"},
	}}
	cli, out := newTestCLI(t, gateway, "write something\nn\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "tool write [error]: Tool execution denied by user.")
	assert.Contains(t, text, "assistant: okay, not writing")
}

func TestNewAndSwitchSessions(t *testing.T) {
	gateway := &scriptedGateway{}
	cli, out := newTestCLI(t, gateway, "/new second\n/sessions\n/switch 2\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Started session: second")
	assert.Contains(t, text, "1: second")
	assert.Contains(t, text, "2: test")
	assert.Contains(t, text, "Switched to session: test")
}

func TestModelsWithoutAPIKey(t *testing.T) {
	cli, out := newTestCLI(t, &scriptedGateway{}, "/models\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))
	assert.Contains(t, out.String(), "No API key configured.")
}

func TestUnknownCommand(t *testing.T) {
	cli, out := newTestCLI(t, &scriptedGateway{}, "/bogus\n/quit\n")

	require.NoError(t, cli.Run(context.Background()))
	assert.Contains(t, out.String(), "Unknown command: /bogus")
}
