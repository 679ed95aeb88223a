package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/jobs"
	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/profile"
)

var (
	// ErrExecutionFailed wraps every tool failure: returned errors, panics and unsuccessful results.
	ErrExecutionFailed = errors.New("tool execution failed")
	// ErrMissingArguments is returned when required arguments are absent.
	ErrMissingArguments = errors.New("missing tool arguments")
)

// Args are the loosely typed arguments of a tool call.
type Args map[string]any

// Result is the uniform envelope every tool returns.
type Result struct {
	Success bool
	Data    any
	// Summary is a one-line description kept in the action history.
	Summary string
	Error   string
	// Score carries the completion score of profile_analyzer or the average of get_matches.
	Score *float64
}

// State is the per-conversation data tools read and mutate.
type State struct {
	Profile *profile.Profile
}

// ExecFunc executes one tool.
type ExecFunc func(ctx context.Context, args Args, state *State) (Result, error)

// Options tune the built-in tool bodies.
type Options struct {
	CompletionThreshold float64
	Catalog             *jobs.Jobs
	ExcludeDivisions    []string
}

// Executor dispatches tool calls through an exhaustive table.
type Executor struct {
	registry *Registry
	table    map[ID]ExecFunc
	logger   *zap.Logger
	opts     Options
}

// NewExecutor builds the dispatch table and checks it covers every registered tool.
func NewExecutor(registry *Registry, opts Options, log *zap.Logger) (*Executor, error) {
	if opts.CompletionThreshold <= 0 {
		opts.CompletionThreshold = profile.DefaultCompletionThreshold
	}
	if opts.Catalog == nil {
		opts.Catalog = jobs.Catalog()
	}

	e := &Executor{
		registry: registry,
		logger:   logger.WithFields(log),
		opts:     opts,
	}
	e.table = map[ID]ExecFunc{
		ProfileAnalyzer: e.analyzeProfile,
		UpdateProfile:   e.updateProfile,
		InferSkills:     e.inferSkills,
		GetMatches:      e.getMatches,
		AskJDQA:         e.askJDQA,
		DraftEmail:      e.draftEmail,
	}

	if err := ValidateTable(registry, e.table); err != nil {
		return nil, err
	}
	return e, nil
}

// ValidateTable fails unless table and registry describe the same tools.
func ValidateTable(registry *Registry, table map[ID]ExecFunc) error {
	if registry == nil {
		return fmt.Errorf("%w: registry is nil", ErrInvalidRegistry)
	}
	for _, d := range registry.Descriptors() {
		if table[d.ID] == nil {
			return fmt.Errorf("%w: no executor for %q", ErrInvalidRegistry, d.ID)
		}
	}
	for id := range table {
		if _, ok := registry.Lookup(id); !ok {
			return fmt.Errorf("%w: executor for unregistered tool %q", ErrInvalidRegistry, id)
		}
	}
	return nil
}

// Registry exposes the registry the executor was built with.
func (e *Executor) Registry() *Registry { return e.registry }

// MissingArgs lists required arguments absent from args.
func (e *Executor) MissingArgs(id ID, args Args) []string {
	d, ok := e.registry.Lookup(id)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range d.RequiredArgs {
		v, ok := args[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Execute runs one tool. Failures of any kind are reported as ErrExecutionFailed
// together with a result describing them.
func (e *Executor) Execute(ctx context.Context, id ID, args Args, state *State) (res Result, err error) {
	fn, ok := e.table[id]
	if !ok {
		return Result{Error: fmt.Sprintf("unknown tool %q", id)}, fmt.Errorf("%w: unknown tool %q", ErrExecutionFailed, id)
	}
	if missing := e.MissingArgs(id, args); len(missing) > 0 {
		return Result{Error: "missing " + strings.Join(missing, ", ")}, fmt.Errorf("%w: %s", ErrMissingArguments, strings.Join(missing, ", "))
	}
	if state == nil {
		state = &State{}
	}
	if state.Profile == nil {
		state.Profile = &profile.Profile{}
	}

	log := e.logger.With(zap.String(logger.FieldTool, id.String()))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = Result{Error: fmt.Sprintf("%v", r)}
			err = fmt.Errorf("%w: %s: panic: %v", ErrExecutionFailed, id, r)
		}
	}()

	res, err = fn(ctx, args, state)
	if err != nil {
		if res.Error == "" {
			res.Error = err.Error()
		}
		res.Success = false
		log.Warn("tool failed", zap.Error(err), zap.Duration("took", time.Since(started)))
		return res, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, id, err)
	}
	if !res.Success {
		log.Warn("tool reported failure", zap.String("error", res.Error), zap.Duration("took", time.Since(started)))
		return res, fmt.Errorf("%w: %s: %s", ErrExecutionFailed, id, res.Error)
	}

	log.Debug("tool executed", zap.String("summary", res.Summary), zap.Duration("took", time.Since(started)))
	return res, nil
}

func scorePtr(v float64) *float64 { return &v }
