package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaultsTitle(t *testing.T) {
	s := New("")
	assert.Contains(t, s.Title, "Session ")
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.False(t, s.LastActivityAt().Before(s.CreatedAt))
}

func TestNewSessionKeepsExplicitTitle(t *testing.T) {
	s := New("scratch")
	assert.Equal(t, "scratch", s.Title)
}

func TestAddMessageBumpsActivityMonotonically(t *testing.T) {
	s := New("")

	var previous time.Time
	for i := 0; i < 5; i++ {
		s.AddMessage(NewTextMessage(AuthorUser, "hello"))
		current := s.LastActivityAt()
		assert.False(t, current.Before(previous), "last activity went backwards")
		assert.False(t, current.Before(s.CreatedAt))
		previous = current
	}

	assert.Equal(t, 5, s.MessageCount())
}

func TestMessagesReturnsCopyInOrder(t *testing.T) {
	s := New("")
	first := NewTextMessage(AuthorUser, "one")
	second := NewTextMessage(AuthorAssistant, "two")
	s.AddMessage(first)
	s.AddMessage(second)

	messages := s.Messages()
	require.Len(t, messages, 2)
	assert.Same(t, first, messages[0])
	assert.Same(t, second, messages[1])

	// Mutating the returned slice must not affect the session
	messages[0] = nil
	assert.Same(t, first, s.Messages()[0])
}

func TestMessageHelpers(t *testing.T) {
	msg := NewMessage(AuthorAssistant,
		TextPart{Text: "working on it"},
		ToolRequestPart{CallID: "call_1", ToolName: "ls", ArgumentsJSON: "{}"},
		ToolRequestPart{CallID: "call_2", ToolName: "view", ArgumentsJSON: `{"file_path":"a.go"}`},
	)

	assert.Equal(t, "working on it", msg.Text())

	reqs := msg.ToolRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "call_1", reqs[0].CallID)
	assert.Equal(t, "call_2", reqs[1].CallID)
}

func TestRestoreClampsActivityTimestamp(t *testing.T) {
	created := time.Now().UTC()
	stale := created.Add(-time.Hour)

	s := Restore(uuid.New(), "restored", created, stale, nil)
	assert.Equal(t, created, s.LastActivityAt())
}

func TestEncodeDecodePartsRoundTrip(t *testing.T) {
	parts := []Part{
		TextPart{Text: "hi"},
		ToolRequestPart{CallID: "call_1", ToolName: "write", ArgumentsJSON: `{"file_path":"x","content":"y"}`},
		ToolResultPart{CallID: "call_1", ToolName: "write", Output: "wrote 1 byte", IsError: false},
		ToolResultPart{CallID: "call_2", ToolName: "view", Output: "no such file", IsError: true},
	}

	data, err := EncodeParts(parts)
	require.NoError(t, err)

	decoded, err := DecodeParts(data)
	require.NoError(t, err)
	assert.Equal(t, parts, decoded)
}

func TestDecodePartsRejectsUnknownTag(t *testing.T) {
	_, err := DecodeParts([]byte(`[{"type":"image","text":"x"}]`))
	assert.Error(t, err)
}

func TestStoreActiveTracking(t *testing.T) {
	st := NewStore()

	_, ok := st.Active()
	assert.False(t, ok)

	a := New("a")
	b := New("b")
	st.Add(a)
	st.Add(b)

	assert.False(t, st.SetActive(uuid.New()), "unknown id must not activate")
	_, ok = st.Active()
	assert.False(t, ok)

	require.True(t, st.SetActive(a.ID))
	active, ok := st.Active()
	require.True(t, ok)
	assert.Same(t, a, active)
	assert.Equal(t, a.ID, st.ActiveID())

	require.True(t, st.SetActive(b.ID))
	active, _ = st.Active()
	assert.Same(t, b, active)
}

func TestStoreListMostRecentFirst(t *testing.T) {
	st := NewStore()
	older := New("older")
	newer := New("newer")
	st.Add(older)
	st.Add(newer)

	// Touch the newer session so its activity timestamp is ahead
	time.Sleep(2 * time.Millisecond)
	newer.AddMessage(NewTextMessage(AuthorUser, "ping"))

	list := st.List()
	require.Len(t, list, 2)
	assert.Same(t, newer, list[0])
	assert.Same(t, older, list[1])
}
