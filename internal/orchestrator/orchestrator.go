// Package orchestrator drives the conversation loop: it owns the session
// registry, the per-session tool permission cache and the single pending
// tool call slot, and decides when the model is called and when tools run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/codefionn/codeflink/internal/consts"
	"github.com/codefionn/codeflink/internal/llm"
	"github.com/codefionn/codeflink/internal/logger"
	"github.com/codefionn/codeflink/internal/session"
	"github.com/codefionn/codeflink/internal/tools"
)

// PermissionState is a cached session-scoped decision for a tool
type PermissionState int

const (
	PermissionAllowed PermissionState = iota + 1
	PermissionDenied
)

// PermissionScope qualifies an allow decision
type PermissionScope int

const (
	// ScopeOnce permits a single invocation and leaves the cache untouched
	ScopeOnce PermissionScope = iota
	// ScopeSession permits the tool for the rest of the session
	ScopeSession
)

type permissionKey struct {
	toolName  string
	sessionID uuid.UUID
}

// PendingToolCall is a tool invocation awaiting an explicit user decision.
// At most one exists per orchestrator. SessionID records the session the
// decision belongs to so a session switch can drop it.
type PendingToolCall struct {
	CallID        string
	ToolName      string
	ArgumentsJSON string
	SessionID     uuid.UUID
}

// Persistence is the write side of the storage layer. Failures are logged
// and never abort the in-memory conversation.
type Persistence interface {
	AppendMessage(sessionID uuid.UUID, msg *session.Message) error
	UpsertSessionMetadata(sess *session.Session) error
}

// ToolExecutor dispatches a named tool with raw JSON arguments
type ToolExecutor interface {
	Execute(ctx context.Context, name, argsJSON string) *tools.ToolResult
}

// Orchestrator serializes all conversation state mutation. It is not safe
// for concurrent use; callers drive it from a single loop.
type Orchestrator struct {
	store       *session.Store
	persist     Persistence
	gateway     llm.Gateway
	executor    ToolExecutor
	model       string
	permissions map[permissionKey]PermissionState
	pending     *PendingToolCall
}

func New(store *session.Store, persist Persistence, gateway llm.Gateway, executor ToolExecutor, model string) *Orchestrator {
	return &Orchestrator{
		store:       store,
		persist:     persist,
		gateway:     gateway,
		executor:    executor,
		model:       model,
		permissions: make(map[permissionKey]PermissionState),
	}
}

// Store exposes the session registry
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// Pending returns a copy of the pending tool call, if any
func (o *Orchestrator) Pending() (PendingToolCall, bool) {
	if o.pending == nil {
		return PendingToolCall{}, false
	}
	return *o.pending, true
}

// NewSession creates a session, persists its metadata and makes it active.
// Any pending tool call belonging to the previous session is dropped.
func (o *Orchestrator) NewSession(title string) *session.Session {
	sess := session.New(title)
	o.store.Add(sess)
	if err := o.persist.UpsertSessionMetadata(sess); err != nil {
		logger.Error("failed to persist session %s: %v", sess.ID, err)
	}
	o.SwitchSession(sess.ID)
	return sess
}

// SwitchSession makes the given session active. A pending tool call owned by
// a different session is dropped without recording a decision.
func (o *Orchestrator) SwitchSession(id uuid.UUID) bool {
	if !o.store.SetActive(id) {
		logger.Warn("attempted to switch to unknown session %s", id)
		return false
	}
	if o.pending != nil && o.pending.SessionID != id {
		logger.Info("dropping pending tool call %s on session switch", o.pending.CallID)
		o.pending = nil
	}
	logger.Info("switched to session %s", id)
	return true
}

// SubmitUserText appends a user message to the active session and persists
// it. It does not trigger a model call; the caller decides when to Advance.
func (o *Orchestrator) SubmitUserText(text string) {
	sess, ok := o.store.Active()
	if !ok {
		logger.Warn("submitUserText with no active session")
		return
	}
	o.appendAndPersist(sess, session.NewTextMessage(session.AuthorUser, text))
}

// Advance runs the control loop: send history, decode the assistant turn,
// branch on tool permission, execute or pause, and resend until the model
// stops requesting tools. The loop is capped at consts.MaxModelRounds.
func (o *Orchestrator) Advance(ctx context.Context) {
	for round := 0; round < consts.MaxModelRounds; round++ {
		if !o.advanceOnce(ctx) {
			return
		}
	}

	if sess, ok := o.store.Active(); ok {
		o.appendAndPersist(sess, session.NewTextMessage(session.AuthorSystem,
			fmt.Sprintf("Error: stopped after %d consecutive model calls without a final answer.", consts.MaxModelRounds)))
	}
}

// advanceOnce performs one model round-trip. It returns true when the loop
// should immediately call the model again (tool results were appended).
func (o *Orchestrator) advanceOnce(ctx context.Context) bool {
	sess, ok := o.store.Active()
	if !ok {
		logger.Warn("advance with no active session")
		return false
	}

	if o.pending != nil {
		logger.Warn("advance rejected: tool call %s pending user permission", o.pending.CallID)
		o.appendAndPersist(sess, session.NewTextMessage(session.AuthorSystem,
			"[Info] Tool call pending user permission. Please respond to the dialog first."))
		return false
	}

	if sess.MessageCount() == 0 {
		logger.Warn("advance with empty session %s", sess.ID)
		return false
	}

	if o.gateway == nil {
		o.appendAndPersist(sess, session.NewTextMessage(session.AuthorSystem,
			"Error: OpenAI API key not configured."))
		return false
	}

	logger.Info("sending %d messages to model %s", sess.MessageCount(), o.model)
	completion, err := o.gateway.Complete(ctx, sess.Messages(), o.model)
	if err != nil {
		// No automatic retry: failures are surfaced, the user may re-trigger.
		if errors.Is(err, llm.ErrNoChoices) {
			o.appendAndPersist(sess, session.NewTextMessage(session.AuthorSystem,
				"Error: No response choices from LLM."))
		} else {
			o.appendAndPersist(sess, session.NewTextMessage(session.AuthorSystem,
				fmt.Sprintf("Error: LLM request failed: %v", err)))
		}
		return false
	}

	var parts []session.Part
	if completion.Text != "" {
		parts = append(parts, session.TextPart{Text: completion.Text})
	}
	for _, call := range completion.ToolCalls {
		parts = append(parts, session.ToolRequestPart{
			CallID:        call.ID,
			ToolName:      call.Name,
			ArgumentsJSON: call.Arguments,
		})
	}

	if len(parts) == 0 {
		// Empty assistant turns are dropped, not persisted
		logger.Info("assistant response was empty (no text, no tool calls)")
		return false
	}

	o.appendAndPersist(sess, session.NewMessage(session.AuthorAssistant, parts...))

	if len(completion.ToolCalls) == 0 {
		return false
	}

	first := completion.ToolCalls[0]
	switch o.permissions[permissionKey{toolName: first.Name, sessionID: sess.ID}] {
	case PermissionAllowed:
		logger.Info("tool %s already permitted, executing batch of %d calls", first.Name, len(completion.ToolCalls))
		o.executeBatch(ctx, sess, completion.ToolCalls)
		return true
	case PermissionDenied:
		logger.Info("tool %s previously denied for session %s", first.Name, sess.ID)
		o.appendAndPersist(sess, session.NewMessage(session.AuthorTool, session.ToolResultPart{
			CallID:   first.ID,
			ToolName: first.Name,
			Output:   "Tool execution denied by session policy.",
			IsError:  true,
		}))
		return true
	default:
		logger.Info("tool %s requires user permission", first.Name)
		o.pending = &PendingToolCall{
			CallID:        first.ID,
			ToolName:      first.Name,
			ArgumentsJSON: first.Arguments,
			SessionID:     sess.ID,
		}
		return false
	}
}

// ResolvePendingToolCall consumes the pending slot. An allow decision with
// ScopeSession is cached; ScopeOnce never touches the cache. A deny appends
// an error tool result without caching. Either way the conversation is
// resent to the model. No-op when nothing is pending.
func (o *Orchestrator) ResolvePendingToolCall(ctx context.Context, allow bool, scope PermissionScope) {
	if o.pending == nil {
		logger.Debug("resolvePendingToolCall with no pending call")
		return
	}

	pending := *o.pending
	o.pending = nil

	sess, ok := o.store.Get(pending.SessionID)
	if !ok {
		logger.Error("pending tool call references unknown session %s", pending.SessionID)
		return
	}

	if allow {
		logger.Info("user allowed tool %s (scope %d)", pending.ToolName, scope)
		if scope == ScopeSession {
			o.permissions[permissionKey{toolName: pending.ToolName, sessionID: pending.SessionID}] = PermissionAllowed
		}
		o.executeBatch(ctx, sess, []llm.ToolCallRequest{{
			ID:        pending.CallID,
			Name:      pending.ToolName,
			Arguments: pending.ArgumentsJSON,
		}})
	} else {
		// One-shot denial: the cache is not written on this path
		logger.Info("user denied tool %s", pending.ToolName)
		o.appendAndPersist(sess, session.NewMessage(session.AuthorTool, session.ToolResultPart{
			CallID:   pending.CallID,
			ToolName: pending.ToolName,
			Output:   "Tool execution denied by user.",
			IsError:  true,
		}))
	}

	o.Advance(ctx)
}

// executeBatch runs tool calls strictly in order, appending and persisting
// one tool message per call before executing the next. A failed call never
// stops the rest of the batch.
func (o *Orchestrator) executeBatch(ctx context.Context, sess *session.Session, calls []llm.ToolCallRequest) {
	for _, call := range calls {
		logger.Info("executing tool %s (id %s)", call.Name, call.ID)
		result := o.executor.Execute(ctx, call.Name, call.Arguments)
		o.appendAndPersist(sess, session.NewMessage(session.AuthorTool, session.ToolResultPart{
			CallID:   call.ID,
			ToolName: call.Name,
			Output:   result.Output(),
			IsError:  result.IsError(),
		}))
	}
}

func (o *Orchestrator) appendAndPersist(sess *session.Session, msg *session.Message) {
	sess.AddMessage(msg)
	if err := o.persist.AppendMessage(sess.ID, msg); err != nil {
		logger.Error("failed to persist message %s: %v", msg.ID, err)
	}
	if err := o.persist.UpsertSessionMetadata(sess); err != nil {
		logger.Error("failed to persist session metadata %s: %v", sess.ID, err)
	}
}
