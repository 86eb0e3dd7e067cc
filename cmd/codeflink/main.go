package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/codefionn/codeflink/internal/cli"
	"github.com/codefionn/codeflink/internal/config"
	"github.com/codefionn/codeflink/internal/consts"
	"github.com/codefionn/codeflink/internal/fs"
	"github.com/codefionn/codeflink/internal/llm"
	"github.com/codefionn/codeflink/internal/logger"
	"github.com/codefionn/codeflink/internal/orchestrator"
	"github.com/codefionn/codeflink/internal/provider"
	"github.com/codefionn/codeflink/internal/session"
	"github.com/codefionn/codeflink/internal/storage"
	"github.com/codefionn/codeflink/internal/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	configPath := flag.String("config", config.GetConfigPath(), "path to config file")
	modelFlag := flag.String("model", "", "override the configured model")
	dbFlag := flag.String("db", "", "override the configured database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *dbFlag != "" {
		cfg.DatabasePath = *dbFlag
	}

	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", initErr)
	}
	defer func() {
		if err != nil {
			logger.Error("fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	store, persist, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := persist.Close(); closeErr != nil {
			logger.Error("failed to close storage: %v", closeErr)
		}
	}()

	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	filesystem := fs.NewCachedFS(workingDir, 5*time.Second, 256)
	defer func() {
		if closeErr := filesystem.Close(); closeErr != nil {
			logger.Warn("failed to close filesystem watcher: %v", closeErr)
		}
	}()

	registry := tools.NewDefaultRegistry(filesystem)

	var gateway llm.Gateway
	var prov *provider.OpenAIProvider
	if apiKey := strings.TrimSpace(cfg.OpenAI.APIKey); apiKey != "" {
		client, clientErr := llm.NewOpenAIClient(apiKey, cfg.OpenAI.BaseURL, registry, cfg.Temperature, cfg.MaxTokens)
		if clientErr != nil {
			return clientErr
		}
		gateway = client
		prov = provider.NewOpenAIProvider(apiKey, cfg.OpenAI.BaseURL)

		validateCtx, cancel := context.WithTimeout(context.Background(), consts.Timeout10Seconds)
		if validateErr := prov.Validate(validateCtx); validateErr != nil {
			logger.Warn("API key validation failed: %v", validateErr)
			fmt.Fprintf(os.Stderr, "Warning: %v\n", validateErr)
		}
		cancel()
	} else {
		logger.Warn("no OpenAI API key configured; model calls will fail")
	}

	model := cfg.Model
	if model == "" {
		model = consts.DefaultModel
	}

	orch := orchestrator.New(store, persist, gateway, registry, model)
	if _, ok := store.Active(); !ok {
		orch.NewSession("Default Session")
	}

	ctx := context.Background()

	// One-shot mode: treat remaining arguments as a single prompt
	if prompt := strings.TrimSpace(strings.Join(flag.Args(), " ")); prompt != "" {
		return runOnce(ctx, orch, prompt)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Info("stdin is not a terminal, reading input line by line")
	}

	return cli.New(orch, prov, os.Stdin, os.Stdout).Run(ctx)
}

// openStorage opens the database and rebuilds the session registry from it.
// The most recently active stored session becomes the active one.
func openStorage(cfg *config.Config) (*session.Store, *storage.Store, error) {
	persist, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	sessions, err := persist.LoadAllSessions()
	if err != nil {
		_ = persist.Close()
		return nil, nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	store := session.NewStore()
	for _, sess := range sessions {
		store.Add(sess)
	}
	if len(sessions) > 0 {
		store.SetActive(sessions[0].ID)
	}

	return store, persist, nil
}

// runOnce submits one prompt, auto-denies any permission request (there is
// no user to ask) and prints the assistant's reply.
func runOnce(ctx context.Context, orch *orchestrator.Orchestrator, prompt string) error {
	orch.SubmitUserText(prompt)
	orch.Advance(ctx)

	for {
		if _, ok := orch.Pending(); !ok {
			break
		}
		orch.ResolvePendingToolCall(ctx, false, orchestrator.ScopeOnce)
	}

	sess, ok := orch.Store().Active()
	if !ok {
		return fmt.Errorf("no active session")
	}
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Author == session.AuthorAssistant {
			fmt.Println(msgs[i].Text())
			return nil
		}
		if msgs[i].Author == session.AuthorSystem {
			return fmt.Errorf("%s", msgs[i].Text())
		}
	}
	return nil
}
