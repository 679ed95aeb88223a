// Package router maps one utterance to a Direct, Clarify or Fallback decision
// using confidence scores from a language-model collaborator.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/ai"
	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

// ErrRoutingUnavailable marks decisions that degraded to Fallback because the
// model could not be reached or its reply could not be parsed.
var ErrRoutingUnavailable = errors.New("routing unavailable")

const (
	DefaultDirectThreshold  = 0.75
	DefaultClarifyThreshold = 0.45
	DefaultTimeout          = 30 * time.Second
)

const (
	EmptyPrompt = "Could you tell me what you would like to do? I can find jobs, review your profile, suggest skills, answer questions about a posting or draft a message."
	apology     = "Sorry, I could not understand that request right now."
)

// Kind is the outcome class of a routing decision.
type Kind int

const (
	Fallback Kind = iota
	Clarify
	Direct
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Clarify:
		return "clarify"
	default:
		return "fallback"
	}
}

// Config holds the threshold policy.
type Config struct {
	DirectThreshold  float64       `mapstructure:"direct-threshold"`
	ClarifyThreshold float64       `mapstructure:"clarify-threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.DirectThreshold == 0 {
		c.DirectThreshold = DefaultDirectThreshold
	}
	if c.ClarifyThreshold == 0 {
		c.ClarifyThreshold = DefaultClarifyThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks 0 <= clarify <= direct <= 1.
func (c Config) Validate() error {
	if c.ClarifyThreshold < 0 || c.DirectThreshold > 1 || c.ClarifyThreshold > c.DirectThreshold {
		return fmt.Errorf("invalid thresholds: clarify %.2f, direct %.2f", c.ClarifyThreshold, c.DirectThreshold)
	}
	return nil
}

// Decision is the transient per-turn routing result.
type Decision struct {
	Kind       Kind
	Tool       tools.ID
	Confidence float64
	Parameters tools.Args
	// Utterance is the text that was classified, including a clarified original.
	Utterance string
	Message   string
	// Reattempt is set when this decision resolved a pending clarification.
	Reattempt bool
	// Stale decisions lost to a newer turn and left the conversation untouched.
	Stale bool
	Err   error
}

// Unavailable reports whether the model call failed.
func (d Decision) Unavailable() bool {
	return errors.Is(d.Err, ErrRoutingUnavailable)
}

type Router struct {
	completer ai.Completer
	registry  *tools.Registry
	system    string
	cfg       Config
	logger    *zap.Logger
}

func New(completer ai.Completer, registry *tools.Registry, cfg Config, log *zap.Logger) (*Router, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Router{
		completer: completer,
		registry:  registry,
		system:    ai.SystemPrompt(registry),
		cfg:       cfg,
		logger:    logger.WithFields(log),
	}, nil
}

func (r *Router) Config() Config { return r.cfg }

// Route starts a new turn in c, classifies utterance and appends the user turn
// and the assistant reply to the chat history.
func (r *Router) Route(ctx context.Context, c *session.Context, utterance string) Decision {
	return r.route(ctx, c, c.BeginTurn(), utterance)
}

// Decide is Route for a turn token the caller already holds.
func (r *Router) Decide(ctx context.Context, c *session.Context, token uint64, utterance string) Decision {
	return r.route(ctx, c, token, utterance)
}

func (r *Router) route(ctx context.Context, c *session.Context, token uint64, utterance string) Decision {
	log := logger.WithThread(r.logger, c.ThreadID())
	text := strings.TrimSpace(utterance)

	if text == "" {
		d := Decision{Kind: Clarify, Message: EmptyPrompt}
		if !c.AppendTurnIfCurrent(token, session.RoleAssistant, d.Message) {
			d.Stale = true
		}
		return d
	}

	if !c.AppendTurnIfCurrent(token, session.RoleUser, text) {
		return Decision{Kind: Fallback, Utterance: text, Stale: true}
	}

	effective := text
	pending := c.Pending()
	if pending != nil {
		effective = pending.Utterance + "\n" + text
	}

	snapshot := c.Snapshot()
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	scores, err := r.completer.Complete(callCtx, ai.CompletionRequest{
		System:         r.system,
		ContextSummary: Summarize(snapshot),
		UserText:       effective,
	})
	cancel()

	if !c.IsCurrent(token) {
		log.Debug("discarding stale routing result")
		return Decision{Kind: Fallback, Utterance: effective, Stale: true}
	}

	d := r.decide(scores, err, pending != nil)
	d.Utterance = effective

	if err != nil {
		log.Warn("routing unavailable, falling back", zap.Error(err))
	} else {
		log.Info("routed utterance",
			zap.String("decision", d.Kind.String()),
			zap.String(logger.FieldTool, d.Tool.String()),
			zap.Float64("confidence", d.Confidence),
			zap.Bool("reattempt", d.Reattempt),
		)
	}

	var next *session.Clarification
	if d.Kind == Clarify {
		next = &session.Clarification{Utterance: effective, Tool: d.Tool}
	}
	if !c.SetPendingIfCurrent(token, next) || !c.AppendTurnIfCurrent(token, session.RoleAssistant, d.Message) {
		d.Stale = true
	}
	return d
}

func (r *Router) decide(scores ai.ToolScores, err error, reattempt bool) Decision {
	if err != nil {
		return Decision{
			Kind:    Fallback,
			Message: apology + " " + r.capabilities(),
			Err:     fmt.Errorf("%w: %w", ErrRoutingUnavailable, err),
		}
	}

	tool, confidence := scores.Best()
	if _, ok := r.registry.Lookup(tool); !ok {
		tool, confidence = "", 0
	}

	d := Decision{
		Tool:       tool,
		Confidence: confidence,
		Parameters: tools.Args(scores.Parameters),
		Reattempt:  reattempt,
	}

	switch {
	case confidence >= r.cfg.DirectThreshold:
		d.Kind = Direct
		d.Message = fmt.Sprintf("I can help you %s.", r.registry.Get(tool).Description)
	case confidence >= r.cfg.ClarifyThreshold && !reattempt:
		d.Kind = Clarify
		d.Message = fmt.Sprintf("I want to make sure I help you with the right action. Are you looking to %s?", r.registry.Get(tool).Description)
	default:
		d.Kind = Fallback
		d.Tool = ""
		d.Parameters = nil
		d.Message = "I'd be happy to help you with your career! " + r.capabilities()
	}
	return d
}

func (r *Router) capabilities() string {
	var b strings.Builder
	b.WriteString("Here are the actions I can assist with:\n")
	for _, desc := range r.registry.Descriptors() {
		fmt.Fprintf(&b, "\n- %s", desc.Label)
	}
	b.WriteString("\n\nWhat would you like to do?")
	return b.String()
}
