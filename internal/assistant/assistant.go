// Package assistant drives one conversation: it routes typed messages,
// dispatches button clicks, enforces the profile gate and chooses the next
// three actions after every turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/router"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

const (
	gateMessage        = "Job matching needs a profile that is at least %.0f%% complete. Yours is at %.0f%%, so let's improve it first."
	remediationMessage = "Your recent matches have not been a strong fit. Improving your profile usually leads to better matches, and the actions below are a good place to start."
	proceedMessage     = "Click the button below to proceed."
	askJDPrompt        = "Which job would you like to ask about, and what is your question? Include the job ID, for example: \"What is the salary for 3286618BR?\""
	failureMessage     = "Sorry, I couldn't %s right now. Please try again in a moment."
)

// Presenter renders a response and its three buttons.
type Presenter interface {
	Present(text string, buttons [ranker.Size]tools.ID)
}

type Config struct {
	GateThreshold float64 `mapstructure:"gate-threshold"`
}

// Response is what one turn produced.
type Response struct {
	Text    string
	Buttons [ranker.Size]tools.ID
	Reason  ranker.Reason

	Decision *router.Decision
	Executed tools.ID
	Result   *tools.Result
	// Gated is set when a job search was redirected to the profile analyzer.
	Gated bool
	// Stale responses were overtaken by a newer turn and were not presented.
	Stale bool
}

type Assistant struct {
	router    *router.Router
	ranker    *ranker.Ranker
	executor  *tools.Executor
	registry  *tools.Registry
	presenter Presenter
	gate      float64
	logger    *zap.Logger
}

func New(rt *router.Router, rk *ranker.Ranker, ex *tools.Executor, presenter Presenter, cfg Config, log *zap.Logger) (*Assistant, error) {
	if rt == nil || rk == nil || ex == nil {
		return nil, errors.New("router, ranker and executor are required")
	}
	if cfg.GateThreshold <= 0 {
		cfg.GateThreshold = ranker.DefaultGateThreshold
	}
	return &Assistant{
		router:    rt,
		ranker:    rk,
		executor:  ex,
		registry:  ex.Registry(),
		presenter: presenter,
		gate:      cfg.GateThreshold,
		logger:    logger.WithFields(log),
	}, nil
}

type outcome struct {
	parts    []string
	ranking  ranker.Ranking
	executed tools.ID
	result   *tools.Result
	gated    bool
}

// HandleMessage routes free text and, for confident read-only requests,
// executes the mapped tool right away.
func (a *Assistant) HandleMessage(ctx context.Context, c *session.Context, text string) Response {
	token := c.BeginTurn()
	d := a.router.Decide(ctx, c, token, text)
	if d.Stale {
		return Response{Decision: &d, Stale: true}
	}

	var out outcome
	switch d.Kind {
	case router.Direct:
		out = a.direct(ctx, c, token, d)
	case router.Clarify:
		out.ranking = a.rank(c, d.Tool, false)
	default:
		out.ranking = a.rank(c, "", false)
	}

	out.parts = append([]string{d.Message}, out.parts...)
	resp := a.finish(c, token, out)
	resp.Decision = &d
	return resp
}

func (a *Assistant) direct(ctx context.Context, c *session.Context, token uint64, d router.Decision) outcome {
	args := a.completeArgs(c, d.Tool, d.Parameters, d.Utterance)
	if missing := a.executor.MissingArgs(d.Tool, args); len(missing) > 0 {
		return outcome{
			parts:   []string{a.say(c, token, a.missingText(d.Tool, missing))},
			ranking: a.rank(c, d.Tool, false),
		}
	}
	if !a.registry.Get(d.Tool).Idempotent {
		return outcome{
			parts:   []string{a.say(c, token, proceedMessage)},
			ranking: a.rank(c, d.Tool, false),
		}
	}
	return a.run(ctx, c, token, d.Tool, args)
}

// HandleAction executes the tool behind a clicked button.
func (a *Assistant) HandleAction(ctx context.Context, c *session.Context, id tools.ID, args tools.Args) Response {
	token := c.BeginTurn()
	// A click answers the conversation differently than the follow-up a clarification asked for.
	c.ClearPending()

	desc, ok := a.registry.Lookup(id)
	if !ok {
		a.logger.Warn("unknown action", zap.String(logger.FieldTool, id.String()))
		return a.finish(c, token, outcome{
			parts:   []string{a.say(c, token, fmt.Sprintf("I don't know the action %q.", id))},
			ranking: a.rank(c, "", false),
		})
	}
	c.AppendTurnIfCurrent(token, session.RoleUser, desc.Label)

	args = a.completeArgs(c, id, args, "")
	if missing := a.executor.MissingArgs(id, args); len(missing) > 0 {
		return a.finish(c, token, outcome{
			parts:   []string{a.say(c, token, a.missingText(id, missing))},
			ranking: a.rank(c, id, false),
		})
	}
	return a.finish(c, token, a.run(ctx, c, token, id, args))
}

// HandleFeedback records whether the last match results were helpful.
// Feedback on anything other than match results is acknowledged only.
func (a *Assistant) HandleFeedback(_ context.Context, c *session.Context, helpful bool) Response {
	token := c.BeginTurn()
	c.ClearPending()

	label := "not helpful"
	if helpful {
		label = "helpful"
	}
	c.AppendTurnIfCurrent(token, session.RoleUser, "["+label+"]")

	text := "Thanks for the feedback!"
	if c.Snapshot().LastTool() == tools.GetMatches {
		c.RecordFeedback(helpful)
		if helpful {
			text = "Glad those matches were useful!"
		} else {
			text = "Thanks for letting me know those matches were not a good fit."
		}
	}

	return a.finish(c, token, outcome{
		parts:   []string{a.say(c, token, text)},
		ranking: a.rank(c, "", false),
	})
}

// Start greets a conversation. New conversations get a profile analysis,
// resumed ones a welcome back.
func (a *Assistant) Start(ctx context.Context, c *session.Context, resumed bool) Response {
	token := c.BeginTurn()

	var name string
	c.Do(func(state *tools.State) { name = state.Profile.DisplayName() })

	if resumed {
		text := fmt.Sprintf("Welcome back, %s! You can continue where you left off.", name)
		if last := c.Snapshot().LastTool(); last != "" {
			text += fmt.Sprintf(" Last time you used \"%s\".", a.registry.Get(last).Label)
		}
		return a.finish(c, token, outcome{
			parts:   []string{a.say(c, token, text)},
			ranking: a.rank(c, "", false),
		})
	}

	text := "Welcome to Career Assistant! I'm here to help you with your career. What would you like to do?"
	res, err := a.execute(ctx, c, tools.ProfileAnalyzer, nil)
	if err == nil && res.Score != nil {
		text = fmt.Sprintf("Welcome to Career Assistant, %s!\n\nYour profile is %.0f%% complete. I'm here to help you find great job opportunities and improve your profile.\n\nWhat would you like to do today?", name, *res.Score)
	}

	return a.finish(c, token, outcome{
		parts:   []string{a.say(c, token, text)},
		ranking: a.rank(c, "", false),
	})
}

// run executes id behind the profile gate and formats the outcome.
func (a *Assistant) run(ctx context.Context, c *session.Context, token uint64, id tools.ID, args tools.Args) outcome {
	if id == tools.GetMatches {
		if out, blocked := a.checkGate(ctx, c, token); blocked {
			return out
		}
	}

	res, err := a.execute(ctx, c, id, args)
	if err != nil {
		return a.failed(c, token, id, res)
	}

	return outcome{
		parts:    []string{a.say(c, token, Format(res))},
		ranking:  a.rank(c, id, true),
		executed: id,
		result:   &res,
	}
}

// checkGate blocks job matching while the profile score is under the gate.
// An unknown or outdated score is recomputed first.
func (a *Assistant) checkGate(ctx context.Context, c *session.Context, token uint64) (outcome, bool) {
	s := c.Snapshot()

	var analysis *tools.Result
	if !s.ScoreKnown || s.ScoreStale {
		res, err := a.execute(ctx, c, tools.ProfileAnalyzer, nil)
		if err != nil {
			a.logger.Warn("profile score unavailable, skipping gate", zap.String(logger.FieldThread, c.ThreadID()), zap.Error(err))
			return outcome{}, false
		}
		analysis = &res
		s = c.Snapshot()
	}

	if !s.ScoreKnown || s.ProfileScore >= a.gate {
		return outcome{}, false
	}

	if analysis == nil {
		res, err := a.execute(ctx, c, tools.ProfileAnalyzer, nil)
		if err != nil {
			return a.failed(c, token, tools.ProfileAnalyzer, res), true
		}
		analysis = &res
	}

	a.logger.Info("job matching blocked by profile gate",
		zap.String(logger.FieldThread, c.ThreadID()),
		zap.Float64("profile_score", s.ProfileScore),
	)

	return outcome{
		parts: []string{
			a.say(c, token, fmt.Sprintf(gateMessage, a.gate, s.ProfileScore)),
			a.say(c, token, Format(*analysis)),
		},
		ranking:  a.rank(c, tools.ProfileAnalyzer, true),
		executed: tools.ProfileAnalyzer,
		result:   analysis,
		gated:    true,
	}, true
}

// execute runs a tool, retrying idempotent tools once, and records the final attempt.
func (a *Assistant) execute(ctx context.Context, c *session.Context, id tools.ID, args tools.Args) (tools.Result, error) {
	log := logger.WithThread(a.logger, c.ThreadID()).With(zap.String(logger.FieldTool, id.String()))

	attempts := 1
	if a.registry.Get(id).Idempotent {
		attempts = 2
	}

	var (
		res tools.Result
		err error
	)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Info("retrying tool", zap.NamedError("previous_error", err))
		}
		c.Do(func(state *tools.State) {
			res, err = a.executor.Execute(ctx, id, args, state)
		})
		if err == nil || errors.Is(err, tools.ErrMissingArguments) || ctx.Err() != nil {
			break
		}
	}

	summary := res.Summary
	if err != nil {
		summary = res.Error
	}
	c.RecordAction(session.Action{
		Tool:    id,
		Args:    args,
		Summary: summary,
		Success: err == nil,
		Score:   res.Score,
	})

	if err == nil {
		switch data := res.Data.(type) {
		case profile.Analysis:
			c.SetAnalysis(data.MissingSections)
		case tools.MatchResult:
			ids := make([]string, 0, len(data.Matches))
			for _, m := range data.Matches {
				ids = append(ids, m.ID)
			}
			c.SetLastJobs(ids)
		}
	}
	return res, err
}

// failed builds the response for a tool that failed after any retry. Tools
// with side effects keep the previous buttons.
func (a *Assistant) failed(c *session.Context, token uint64, id tools.ID, res tools.Result) outcome {
	desc := a.registry.Get(id)
	text := fmt.Sprintf(failureMessage, desc.Description)

	if desc.Idempotent {
		return outcome{
			parts:   []string{a.say(c, token, text)},
			ranking: a.rank(c, "", false),
			result:  &res,
		}
	}

	if detail := strings.TrimSpace(res.Error); detail != "" {
		text = fmt.Sprintf("Sorry, I couldn't %s. %s", desc.Description, detail)
	}
	ranking := a.rank(c, "", false)
	if prev := c.Buttons(); len(prev) == ranker.Size {
		ranking = ranker.Ranking{}
		copy(ranking.Tools[:], prev)
	}
	return outcome{
		parts:   []string{a.say(c, token, text)},
		ranking: ranking,
		result:  &res,
	}
}

func (a *Assistant) rank(c *session.Context, recent tools.ID, executed bool) ranker.Ranking {
	s := c.Snapshot()
	return a.ranker.Rank(ranker.Input{
		Recent:       recent,
		Executed:     executed,
		ProfileScore: s.ProfileScore,
		ScoreKnown:   s.ScoreKnown && !s.ScoreStale,
		Remediation:  s.Remediation,
	})
}

// say appends text as an assistant turn of the current turn.
func (a *Assistant) say(c *session.Context, token uint64, text string) string {
	if text != "" {
		c.AppendTurnIfCurrent(token, session.RoleAssistant, text)
	}
	return text
}

func (a *Assistant) finish(c *session.Context, token uint64, out outcome) Response {
	if out.ranking.Reason == ranker.ReasonLowMatchQuality {
		out.parts = append(out.parts, a.say(c, token, remediationMessage))
	}

	var parts []string
	for _, p := range out.parts {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	resp := Response{
		Text:     strings.Join(parts, "\n\n"),
		Buttons:  out.ranking.Tools,
		Reason:   out.ranking.Reason,
		Executed: out.executed,
		Result:   out.result,
		Gated:    out.gated,
	}

	if !c.IsCurrent(token) {
		resp.Stale = true
		return resp
	}

	c.SetButtons(resp.Buttons[:])
	if a.presenter != nil {
		a.presenter.Present(resp.Text, resp.Buttons)
	}
	return resp
}

func (a *Assistant) missingText(id tools.ID, missing []string) string {
	if id == tools.AskJDQA {
		return askJDPrompt
	}
	return fmt.Sprintf("I need a bit more information to %s: %s.", a.registry.Get(id).Description, strings.Join(missing, ", "))
}
