package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/career-assistant/internal/ai"
	"github.com/spigell/career-assistant/internal/assistant"
	"github.com/spigell/career-assistant/internal/history"
	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/render"
	"github.com/spigell/career-assistant/internal/router"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

const (
	PromptTypeMessage = "✏️  Type a message"
	PromptHelpful     = "👍 These matches were helpful"
	PromptNotHelpful  = "👎 These matches were not helpful"
	PromptExit        = "Exit"
)

type choiceKind int

const (
	choiceTool choiceKind = iota
	choiceStarter
	choiceType
	choiceHelpful
	choiceNotHelpful
	choiceExit
)

type choice struct {
	label   string
	kind    choiceKind
	tool    tools.ID
	message string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a conversation with the assistant",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("thread", "t", "", "resume the conversation with this thread id")
}

func chat(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, config := setup()
	defer log.Sync()

	log.Info("starting the career-assistant", zap.String("version", version))

	var (
		store     *history.SQLiteStore
		completer ai.Completer
	)

	// Opening the database and building the model client are independent.
	var g errgroup.Group
	g.Go(func() error {
		s, err := history.Open(config.HistoryFile)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		store = s
		return nil
	})
	g.Go(func() error {
		c, err := newCompleter(ctx, config.LLM, log)
		if err != nil {
			return fmt.Errorf("building completer: %w", err)
		}
		completer = c
		return nil
	})
	if err := g.Wait(); err != nil {
		if store != nil {
			store.Close()
		}
		log.Fatal("starting the assistant", zap.Error(err))
	}
	defer store.Close()

	writer := history.NewWriter(store, log)
	// Runs before store.Close so queued records are flushed.
	defer writer.Close()

	registry := tools.DefaultRegistry()
	terminal := render.NewTerminal(os.Stdout, registry)

	asst, err := newAssistant(config, registry, completer, terminal, log)
	if err != nil {
		log.Fatal("building the assistant", zap.Error(err))
	}

	base := loadProfile(config.Profile, log)
	manager := session.NewManager(session.ManagerOptions{
		TTL: config.Session.TTL,
		Session: session.Options{
			WindowSize:           config.Session.WindowSize,
			RemediationThreshold: config.Session.RemediationThreshold,
			NotHelpfulStreak:     config.Session.NotHelpfulStreak,
		},
		Profile:  func() *profile.Profile { return base },
		Loader:   store,
		Recorder: writer,
	}, log)

	threadID := strings.TrimSpace(cmd.Flag("thread").Value.String())
	if threadID == "" {
		threadID = uuid.NewString()
	}

	conversation, resumed, err := manager.Open(ctx, threadID)
	if err != nil {
		log.Fatal("opening the conversation", zap.Error(err), zap.String(logger.FieldThread, threadID))
	}
	defer manager.Close(threadID)

	log = logger.WithThread(log, threadID)
	log.Info("conversation started", zap.Bool("resumed", resumed))

	resp := asst.Start(ctx, conversation, resumed)

	if err := converse(ctx, asst, conversation, registry, resp, !resumed); err != nil {
		log.Error("conversation ended", zap.Error(err))
		return
	}

	log.Info("conversation saved, resume it with --thread", zap.String(logger.FieldThread, threadID))
}

func newAssistant(config *Config, registry *tools.Registry, completer ai.Completer, presenter assistant.Presenter, log *zap.Logger) (*assistant.Assistant, error) {
	catalog, err := loadCatalog(config.Jobs)
	if err != nil {
		return nil, err
	}

	executor, err := tools.NewExecutor(registry, tools.Options{
		CompletionThreshold: config.CompletionThreshold,
		Catalog:             catalog,
		ExcludeDivisions:    config.Jobs.ExcludeDivisions,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("building executor: %w", err)
	}

	rt, err := router.New(completer, registry, config.Router, log)
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}

	rk, err := ranker.New(registry, ranker.Config{GateThreshold: config.Assistant.GateThreshold})
	if err != nil {
		return nil, fmt.Errorf("building ranker: %w", err)
	}

	return assistant.New(rt, rk, executor, presenter, config.Assistant, log)
}

// converse runs the interactive loop until the user exits or ctx is cancelled.
func converse(ctx context.Context, a *assistant.Assistant, c *session.Context, registry *tools.Registry, resp assistant.Response, starters bool) error {
	for ctx.Err() == nil {
		choices := menu(resp, registry, starters)

		labels := make([]string, len(choices))
		for i, ch := range choices {
			labels[i] = ch.label
		}

		selectPrompt := promptui.Select{
			Label: "What next?",
			Items: labels,
			Size:  len(labels),
		}

		idx, _, err := selectPrompt.Run()
		if err != nil {
			return promptErr(err)
		}

		picked := choices[idx]
		switch picked.kind {
		case choiceExit:
			return nil
		case choiceTool:
			resp = a.HandleAction(ctx, c, picked.tool, nil)
		case choiceStarter:
			resp = a.HandleMessage(ctx, c, picked.message)
		case choiceHelpful:
			resp = a.HandleFeedback(ctx, c, true)
		case choiceNotHelpful:
			resp = a.HandleFeedback(ctx, c, false)
		case choiceType:
			text, err := (&promptui.Prompt{Label: "You"}).Run()
			if err != nil {
				return promptErr(err)
			}
			resp = a.HandleMessage(ctx, c, text)
		}

		if picked.kind != choiceHelpful && picked.kind != choiceNotHelpful {
			starters = false
		}
	}
	return nil
}

// menu lists the three ranked buttons first, then starters, free text,
// feedback after a job search, and exit.
func menu(resp assistant.Response, registry *tools.Registry, starters bool) []choice {
	choices := make([]choice, 0, ranker.Size+8)

	for i, id := range resp.Buttons {
		d := registry.Get(id)
		choices = append(choices, choice{
			label: fmt.Sprintf("[%d] %s %s", i+1, d.Icon, d.Label),
			kind:  choiceTool,
			tool:  id,
		})
	}

	if starters {
		for _, s := range assistant.Starters() {
			choices = append(choices, choice{
				label:   "💬 " + s.Label,
				kind:    choiceStarter,
				message: s.Message,
			})
		}
	}

	choices = append(choices, choice{label: PromptTypeMessage, kind: choiceType})

	if resp.Executed == tools.GetMatches {
		choices = append(choices,
			choice{label: PromptHelpful, kind: choiceHelpful},
			choice{label: PromptNotHelpful, kind: choiceNotHelpful},
		)
	}

	return append(choices, choice{label: PromptExit, kind: choiceExit})
}

// promptErr treats Ctrl+C and Ctrl+D as a normal exit.
func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return nil
	}
	return err
}
