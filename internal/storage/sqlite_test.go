package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/codeflink/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "codeflink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadAllSessionsEmpty(t *testing.T) {
	store := openTestStore(t)

	sessions, err := store.LoadAllSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	sess := session.New("round trip")
	userMsg := session.NewTextMessage(session.AuthorUser, "list the files")
	assistantMsg := session.NewMessage(session.AuthorAssistant,
		session.TextPart{Text: "sure"},
		session.ToolRequestPart{CallID: "call_1", ToolName: "ls", ArgumentsJSON: "{}"},
	)
	toolMsg := session.NewMessage(session.AuthorTool,
		session.ToolResultPart{CallID: "call_1", ToolName: "ls", Output: "[FILE] main.go", IsError: false},
	)

	sess.AddMessage(userMsg)
	sess.AddMessage(assistantMsg)
	sess.AddMessage(toolMsg)

	require.NoError(t, store.UpsertSessionMetadata(sess))
	require.NoError(t, store.AppendMessage(sess.ID, userMsg))
	require.NoError(t, store.AppendMessage(sess.ID, assistantMsg))
	require.NoError(t, store.AppendMessage(sess.ID, toolMsg))

	loaded, err := store.LoadAllSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "round trip", got.Title)

	messages := got.Messages()
	require.Len(t, messages, 3)

	assert.Equal(t, userMsg.ID, messages[0].ID)
	assert.Equal(t, session.AuthorUser, messages[0].Author)
	assert.Equal(t, []session.Part{session.TextPart{Text: "list the files"}}, messages[0].Parts)

	assert.Equal(t, assistantMsg.ID, messages[1].ID)
	assert.Equal(t, session.AuthorAssistant, messages[1].Author)
	assert.Equal(t, assistantMsg.Parts, messages[1].Parts)

	assert.Equal(t, toolMsg.ID, messages[2].ID)
	assert.Equal(t, session.AuthorTool, messages[2].Author)
	assert.Equal(t, toolMsg.Parts, messages[2].Parts)
}

func TestUpsertSessionMetadataReplacesTitle(t *testing.T) {
	store := openTestStore(t)

	sess := session.New("before")
	require.NoError(t, store.UpsertSessionMetadata(sess))

	sess.Title = "after"
	require.NoError(t, store.UpsertSessionMetadata(sess))

	loaded, err := store.LoadAllSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "after", loaded[0].Title)
}

func TestAppendMessageRequiresSessionRow(t *testing.T) {
	store := openTestStore(t)

	// No session row: the messages table has a foreign key on sessions
	orphan := session.New("never persisted")
	err := store.AppendMessage(orphan.ID, session.NewTextMessage(session.AuthorUser, "hi"))
	assert.Error(t, err)
}

func TestMessagesOrderedByTimestamp(t *testing.T) {
	store := openTestStore(t)

	sess := session.New("")
	require.NoError(t, store.UpsertSessionMetadata(sess))

	var ids []string
	for i := 0; i < 5; i++ {
		msg := session.NewTextMessage(session.AuthorUser, "msg")
		ids = append(ids, msg.ID.String())
		require.NoError(t, store.AppendMessage(sess.ID, msg))
	}

	loaded, err := store.LoadAllSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	messages := loaded[0].Messages()
	require.Len(t, messages, 5)
	for i, msg := range messages {
		assert.Equal(t, ids[i], msg.ID.String())
	}
}

func TestMessagesWithEqualTimestampsKeepInsertionOrder(t *testing.T) {
	store := openTestStore(t)

	sess := session.New("")
	require.NoError(t, store.UpsertSessionMetadata(sess))

	// A coarse clock can stamp consecutive messages with the same instant
	stamp := time.Now().UTC()
	var ids []string
	for i := 0; i < 5; i++ {
		msg := session.NewTextMessage(session.AuthorUser, "msg")
		msg.Timestamp = stamp
		ids = append(ids, msg.ID.String())
		require.NoError(t, store.AppendMessage(sess.ID, msg))
	}

	loaded, err := store.LoadAllSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	messages := loaded[0].Messages()
	require.Len(t, messages, 5)
	for i, msg := range messages {
		assert.Equal(t, ids[i], msg.ID.String())
	}
}
