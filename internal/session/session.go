package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Author identifies who produced a message
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
	AuthorSystem    Author = "system"
	AuthorTool      Author = "tool"
)

// Message is one turn of a conversation. Immutable once constructed; it is
// appended to exactly one session and never edited or moved.
type Message struct {
	ID        uuid.UUID
	Author    Author
	Parts     []Part
	Timestamp time.Time
}

// NewMessage creates a message with a fresh id and timestamp
func NewMessage(author Author, parts ...Part) *Message {
	return &Message{
		ID:        uuid.New(),
		Author:    author,
		Parts:     parts,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextMessage creates a message with a single text part
func NewTextMessage(author Author, text string) *Message {
	return NewMessage(author, TextPart{Text: text})
}

// Text concatenates all text parts of the message
func (m *Message) Text() string {
	var out string
	for _, part := range m.Parts {
		if p, ok := part.(TextPart); ok {
			out += p.Text
		}
	}
	return out
}

// ToolRequests returns the tool-call requests carried by the message, in order
func (m *Message) ToolRequests() []ToolRequestPart {
	var reqs []ToolRequestPart
	for _, part := range m.Parts {
		if p, ok := part.(ToolRequestPart); ok {
			reqs = append(reqs, p)
		}
	}
	return reqs
}

// Session manages one persistent conversation thread
type Session struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time

	mu             sync.RWMutex
	messages       []*Message
	lastActivityAt time.Time
}

// New creates a session. An empty title defaults to the creation timestamp.
func New(title string) *Session {
	now := time.Now().UTC()
	if title == "" {
		title = "Session " + now.Format("2006-01-02 15:04:05")
	}
	return &Session{
		ID:             uuid.New(),
		Title:          title,
		CreatedAt:      now,
		lastActivityAt: now,
	}
}

// Restore rebuilds a session from persisted state. Messages must already be
// in conversation order.
func Restore(id uuid.UUID, title string, createdAt, lastActivityAt time.Time, messages []*Message) *Session {
	if lastActivityAt.Before(createdAt) {
		lastActivityAt = createdAt
	}
	return &Session{
		ID:             id,
		Title:          title,
		CreatedAt:      createdAt,
		messages:       messages,
		lastActivityAt: lastActivityAt,
	}
}

// AddMessage appends a message and bumps the activity timestamp. The
// timestamp never moves backwards.
func (s *Session) AddMessage(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if now := time.Now().UTC(); now.After(s.lastActivityAt) {
		s.lastActivityAt = now
	}
}

// Messages returns a copy of the ordered message log
func (s *Session) Messages() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]*Message, len(s.messages))
	copy(messages, s.messages)
	return messages
}

// MessageCount returns how many messages the session holds
func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// LastActivityAt returns when the session last changed
func (s *Session) LastActivityAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivityAt
}
