// Package cli implements the line-oriented terminal frontend: it reads user
// input, forwards it to the orchestrator and renders new conversation
// messages, including the tool permission prompt.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/codefionn/codeflink/internal/orchestrator"
	"github.com/codefionn/codeflink/internal/provider"
	"github.com/codefionn/codeflink/internal/session"
)

// CLI drives an interactive conversation loop over a reader/writer pair
type CLI struct {
	orch     *orchestrator.Orchestrator
	provider *provider.OpenAIProvider // nil when no API key is configured
	in       *bufio.Scanner
	out      io.Writer
	rendered map[uuid.UUID]int
}

func New(orch *orchestrator.Orchestrator, prov *provider.OpenAIProvider, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		orch:     orch,
		provider: prov,
		in:       bufio.NewScanner(in),
		out:      out,
		rendered: make(map[uuid.UUID]int),
	}
}

// Run processes input lines until EOF or /quit
func (c *CLI) Run(ctx context.Context) error {
	c.printBanner()
	c.flush()

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			break
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := c.handleCommand(ctx, line); quit {
				return c.in.Err()
			}
			continue
		}

		c.orch.SubmitUserText(line)
		c.flush()
		c.orch.Advance(ctx)
		c.flush()
		c.resolvePermissions(ctx)
	}

	return c.in.Err()
}

func (c *CLI) printBanner() {
	fmt.Fprintln(c.out, "codeflink - chat with a model that can list, view and write files")
	fmt.Fprintln(c.out, "Commands: /new [title], /sessions, /switch N, /models, /help, /quit")
	if sess, ok := c.orch.Store().Active(); ok {
		fmt.Fprintf(c.out, "Active session: %s\n", sess.Title)
	}
}

// handleCommand returns true when the loop should stop
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(c.out, "/new [title]  start a new session")
		fmt.Fprintln(c.out, "/sessions     list sessions, most recently active first")
		fmt.Fprintln(c.out, "/switch N     switch to session N from /sessions")
		fmt.Fprintln(c.out, "/models       list chat models available to the API key")
		fmt.Fprintln(c.out, "/quit         exit")
	case "/new":
		title := strings.TrimSpace(strings.TrimPrefix(line, "/new"))
		sess := c.orch.NewSession(title)
		fmt.Fprintf(c.out, "Started session: %s\n", sess.Title)
	case "/sessions":
		for i, sess := range c.orch.Store().List() {
			marker := " "
			if id := c.orch.Store().ActiveID(); id == sess.ID {
				marker = "*"
			}
			fmt.Fprintf(c.out, "%s %d: %s (%d messages)\n", marker, i+1, sess.Title, sess.MessageCount())
		}
	case "/switch":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "Usage: /switch N")
			return false
		}
		idx, err := strconv.Atoi(fields[1])
		sessions := c.orch.Store().List()
		if err != nil || idx < 1 || idx > len(sessions) {
			fmt.Fprintln(c.out, "No such session.")
			return false
		}
		target := sessions[idx-1]
		if c.orch.SwitchSession(target.ID) {
			fmt.Fprintf(c.out, "Switched to session: %s\n", target.Title)
			c.flush()
		}
	case "/models":
		c.listModels(ctx)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n", cmd)
	}
	return false
}

func (c *CLI) listModels(ctx context.Context) {
	if c.provider == nil {
		fmt.Fprintln(c.out, "No API key configured.")
		return
	}
	models, err := c.provider.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Failed to list models: %v\n", err)
		return
	}
	for _, model := range models {
		fmt.Fprintln(c.out, model.ID)
	}
}

// resolvePermissions prompts for every pending tool call until the
// conversation no longer pauses on one
func (c *CLI) resolvePermissions(ctx context.Context) {
	for {
		pending, ok := c.orch.Pending()
		if !ok {
			return
		}

		fmt.Fprintf(c.out, "Tool %q requests permission, arguments: %s\n", pending.ToolName, pending.ArgumentsJSON)
		fmt.Fprint(c.out, "Allow? [y]es once / [a]lways this session / [n]o: ")
		if !c.in.Scan() {
			return
		}

		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes":
			c.orch.ResolvePendingToolCall(ctx, true, orchestrator.ScopeOnce)
		case "a", "always":
			c.orch.ResolvePendingToolCall(ctx, true, orchestrator.ScopeSession)
		default:
			// Escape or anything else counts as a denial
			c.orch.ResolvePendingToolCall(ctx, false, orchestrator.ScopeOnce)
		}
		c.flush()
	}
}

// flush renders messages appended since the last flush of the active session
func (c *CLI) flush() {
	sess, ok := c.orch.Store().Active()
	if !ok {
		return
	}

	msgs := sess.Messages()
	for i := c.rendered[sess.ID]; i < len(msgs); i++ {
		c.render(msgs[i])
	}
	c.rendered[sess.ID] = len(msgs)
}

func (c *CLI) render(msg *session.Message) {
	switch msg.Author {
	case session.AuthorUser:
		// Already on screen as the user's own input
	case session.AuthorAssistant:
		if text := msg.Text(); text != "" {
			fmt.Fprintf(c.out, "assistant: %s\n", text)
		}
		for _, req := range msg.ToolRequests() {
			fmt.Fprintf(c.out, "assistant requests tool %s(%s)\n", req.ToolName, req.ArgumentsJSON)
		}
	case session.AuthorTool:
		for _, part := range msg.Parts {
			if res, ok := part.(session.ToolResultPart); ok {
				status := "ok"
				if res.IsError {
					status = "error"
				}
				fmt.Fprintf(c.out, "tool %s [%s]: %s\n", res.ToolName, status, res.Output)
			}
		}
	case session.AuthorSystem:
		fmt.Fprintf(c.out, "system: %s\n", msg.Text())
	}
}
