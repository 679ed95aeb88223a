package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/career-assistant/internal/ai"
	"github.com/spigell/career-assistant/internal/jobs"
	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/router"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

const (
	// experience, skills, preferences and languages: 80
	profile80 = `{"core":{
		"name":{"businessFirstName":"Sam","businessLastName":"Lee"},
		"businessTitle":"Risk Analyst",
		"experience":{"experiences":[{"jobTitle":"Risk Analyst","company":"Acme"}]},
		"skills":{"topSkills":["Risk Management"]},
		"careerAspirationPreference":{"roles":["Risk Lead"]},
		"careerLocationPreference":{"regions":["Europe"]},
		"language":{"languages":[{"language":"English","proficiency":"Native"}]}
	}}`
	// experience and languages: 40
	profile40 = `{"core":{
		"name":{"businessFirstName":"Kim"},
		"experience":{"experiences":[{"jobTitle":"Analyst","company":"Acme"}]},
		"language":{"languages":[{"language":"English"}]}
	}}`
)

type scripted struct {
	replies []ai.ToolScores
	err     error
	calls   int
}

func (s *scripted) Complete(context.Context, ai.CompletionRequest) (ai.ToolScores, error) {
	defer func() { s.calls++ }()
	if s.err != nil {
		return ai.ToolScores{}, s.err
	}
	if s.calls < len(s.replies) {
		return s.replies[s.calls], nil
	}
	return ai.ToolScores{}, nil
}

func best(tool tools.ID, confidence float64) ai.ToolScores {
	return ai.ToolScores{Tool: tool, Confidence: confidence}
}

type presented struct {
	text    string
	buttons [ranker.Size]tools.ID
}

type recordingPresenter struct {
	calls []presented
}

func (p *recordingPresenter) Present(text string, buttons [ranker.Size]tools.ID) {
	p.calls = append(p.calls, presented{text: text, buttons: buttons})
}

type fixture struct {
	assistant *Assistant
	presenter *recordingPresenter
	session   *session.Context
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, completer ai.Completer, rawProfile string, opts tools.Options) fixture {
	t.Helper()

	registry := tools.DefaultRegistry()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	rt, err := router.New(completer, registry, router.Config{}, log)
	require.NoError(t, err)
	rk, err := ranker.New(registry, ranker.Config{})
	require.NoError(t, err)
	ex, err := tools.NewExecutor(registry, opts, log)
	require.NoError(t, err)

	p := &recordingPresenter{}
	a, err := New(rt, rk, ex, p, Config{}, log)
	require.NoError(t, err)

	prof, err := profile.Parse([]byte(rawProfile))
	require.NoError(t, err)

	return fixture{
		assistant: a,
		presenter: p,
		session:   session.New("thread-1", prof, session.Options{}, nil),
		logs:      logs,
	}
}

func ids(list ...tools.ID) [ranker.Size]tools.ID {
	var out [ranker.Size]tools.ID
	copy(out[:], list)
	return out
}

func countActions(c *session.Context, id tools.ID) int {
	n := 0
	for _, a := range c.Actions() {
		if a.Tool == id {
			n++
		}
	}
	return n
}

func TestStartGreetsWithCompletion(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})

	resp := f.assistant.Start(context.Background(), f.session, false)

	assert.Contains(t, resp.Text, "Sam Lee")
	assert.Contains(t, resp.Text, "80% complete")
	assert.Equal(t, ids(tools.GetMatches, tools.ProfileAnalyzer, tools.InferSkills), resp.Buttons)
	assert.True(t, f.session.Snapshot().ScoreKnown)
	require.Len(t, f.presenter.calls, 1)
}

func TestStartWithIncompleteProfileOffersRemediation(t *testing.T) {
	f := newFixture(t, &scripted{}, profile40, tools.Options{})

	resp := f.assistant.Start(context.Background(), f.session, false)

	assert.Equal(t, ranker.RemediationSet(), resp.Buttons)
	assert.Equal(t, ranker.ReasonProfileIncomplete, resp.Reason)
}

func TestShowMeJobMatches(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.GetMatches, 0.9)}}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	resp := f.assistant.HandleMessage(ctx, f.session, "Show me job matches")

	require.NotNil(t, resp.Decision)
	assert.Equal(t, router.Direct, resp.Decision.Kind)
	assert.Equal(t, tools.GetMatches, resp.Executed)
	assert.Equal(t, ids(tools.GetMatches, tools.AskJDQA, tools.DraftEmail), resp.Buttons)
	assert.Equal(t, ranker.ReasonPostMatch, resp.Reason)
	assert.Contains(t, resp.Text, "Top Job Matches")
	assert.Equal(t, 1, countActions(f.session, tools.GetMatches))
	assert.Len(t, f.session.Snapshot().LastJobIDs, 3)
}

func TestHelloThereFallsBack(t *testing.T) {
	low := ai.ToolScores{Scores: map[tools.ID]float64{
		tools.GetMatches: 0.2, tools.ProfileAnalyzer: 0.2, tools.InferSkills: 0.2,
		tools.UpdateProfile: 0.2, tools.AskJDQA: 0.2, tools.DraftEmail: 0.2,
	}}
	f := newFixture(t, &scripted{replies: []ai.ToolScores{low}}, profile80, tools.Options{})

	resp := f.assistant.HandleMessage(context.Background(), f.session, "Hello there")

	assert.Equal(t, router.Fallback, resp.Decision.Kind)
	assert.Empty(t, resp.Executed)
	assert.Equal(t, ids(tools.GetMatches, tools.ProfileAnalyzer, tools.InferSkills), resp.Buttons)
	assert.Empty(t, f.session.Actions())
}

func TestProfileGateRedirectsToAnalyzer(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.GetMatches, 0.9)}}, profile40, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	resp := f.assistant.HandleMessage(ctx, f.session, "Show me job matches")

	assert.True(t, resp.Gated)
	assert.Equal(t, tools.ProfileAnalyzer, resp.Executed)
	assert.Equal(t, ranker.RemediationSet(), resp.Buttons)
	assert.Contains(t, resp.Text, "Job matching needs a profile")
	assert.Contains(t, resp.Text, "Profile Analysis")
	assert.Zero(t, countActions(f.session, tools.GetMatches))
}

func TestProfileGateComputesUnknownScore(t *testing.T) {
	f := newFixture(t, &scripted{}, profile40, tools.Options{})

	resp := f.assistant.HandleAction(context.Background(), f.session, tools.GetMatches, nil)

	assert.True(t, resp.Gated)
	assert.Equal(t, ranker.RemediationSet(), resp.Buttons)
	assert.Zero(t, countActions(f.session, tools.GetMatches))
	assert.Equal(t, 1, countActions(f.session, tools.ProfileAnalyzer))
}

func TestProfileUpdateForcesRecompute(t *testing.T) {
	f := newFixture(t, &scripted{}, profile40, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	update := f.assistant.HandleAction(ctx, f.session, tools.UpdateProfile, nil)
	require.Equal(t, tools.UpdateProfile, update.Executed)
	assert.True(t, f.session.Snapshot().ScoreStale)

	resp := f.assistant.HandleAction(ctx, f.session, tools.GetMatches, nil)

	assert.False(t, resp.Gated)
	assert.Equal(t, tools.GetMatches, resp.Executed)
	assert.InDelta(t, 65, f.session.Snapshot().ProfileScore, 0.001)
}

func TestMatchQualityRemediationOnThirdTurn(t *testing.T) {
	catalog := &jobs.Jobs{Items: []*jobs.Job{
		{ID: "L1", Title: "Analyst", Country: "Lowland", Score: 40},
		{ID: "M1", Title: "Analyst", Country: "Midland", Score: 50},
	}}
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.GetMatches, 0.1)}}, profile80, tools.Options{Catalog: catalog})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	first := f.assistant.HandleAction(ctx, f.session, tools.GetMatches, tools.Args{"filters": map[string]any{"country": "Lowland"}})
	assert.Equal(t, ranker.ReasonPostMatch, first.Reason)

	second := f.assistant.HandleAction(ctx, f.session, tools.GetMatches, tools.Args{"filters": map[string]any{"country": "Midland"}})
	assert.Equal(t, ranker.ReasonPostMatch, second.Reason)
	assert.Equal(t, []float64{40, 50}, f.session.Snapshot().Window)

	third := f.assistant.HandleMessage(ctx, f.session, "hmm")

	assert.Equal(t, ranker.RemediationSet(), third.Buttons)
	assert.Equal(t, ranker.ReasonLowMatchQuality, third.Reason)
	assert.Contains(t, third.Text, remediationMessage)
}

func TestClickDropsPendingClarification(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{
		best(tools.GetMatches, 0.6),
		best(tools.InferSkills, 0.6),
	}}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	first := f.assistant.HandleMessage(ctx, f.session, "jobs maybe")
	require.NotNil(t, first.Decision)
	require.Equal(t, router.Clarify, first.Decision.Kind)
	require.NotNil(t, f.session.Pending())

	f.assistant.HandleAction(ctx, f.session, tools.ProfileAnalyzer, nil)
	assert.Nil(t, f.session.Pending())

	next := f.assistant.HandleMessage(ctx, f.session, "what skills do I lack")
	require.NotNil(t, next.Decision)
	assert.Equal(t, router.Clarify, next.Decision.Kind)
	assert.Equal(t, tools.InferSkills, next.Decision.Tool)
	assert.False(t, next.Decision.Reattempt)
	assert.Equal(t, "what skills do I lack", next.Decision.Utterance)
}

func TestFeedbackDropsPendingClarification(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.GetMatches, 0.6)}}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	resp := f.assistant.HandleMessage(ctx, f.session, "jobs maybe")
	require.Equal(t, router.Clarify, resp.Decision.Kind)

	f.assistant.HandleFeedback(ctx, f.session, true)
	assert.Nil(t, f.session.Pending())
}

func TestNotHelpfulStreakTriggersSameRemediation(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)
	f.assistant.HandleAction(ctx, f.session, tools.GetMatches, nil)

	first := f.assistant.HandleFeedback(ctx, f.session, false)
	assert.NotEqual(t, ranker.ReasonLowMatchQuality, first.Reason)

	second := f.assistant.HandleFeedback(ctx, f.session, false)
	assert.Equal(t, ranker.RemediationSet(), second.Buttons)
	assert.Equal(t, ranker.ReasonLowMatchQuality, second.Reason)
	assert.Contains(t, second.Text, remediationMessage)
}

func TestFeedbackOutsideMatchesIsNotCounted(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.Start(ctx, f.session, false)

	f.assistant.HandleFeedback(ctx, f.session, false)
	f.assistant.HandleFeedback(ctx, f.session, false)

	assert.Zero(t, f.session.Snapshot().NotHelpful)
}

func TestNonIdempotentFailureKeepsButtons(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})
	ctx := context.Background()
	start := f.assistant.Start(ctx, f.session, false)

	resp := f.assistant.HandleAction(ctx, f.session, tools.UpdateProfile, tools.Args{"section": "experience"})

	assert.Equal(t, start.Buttons, resp.Buttons)
	assert.Contains(t, resp.Text, "Update for section 'experience' will be implemented later.")
	assert.Empty(t, resp.Executed)

	actions := f.session.Actions()
	last := actions[len(actions)-1]
	assert.Equal(t, tools.UpdateProfile, last.Tool)
	assert.False(t, last.Success)
}

func TestIdempotentFailureRetriedOnce(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})

	resp := f.assistant.HandleAction(context.Background(), f.session, tools.AskJDQA, tools.Args{
		"job_id":   map[string]any{"nested": true},
		"question": "salary?",
	})

	assert.Contains(t, resp.Text, "Sorry, I couldn't answer questions about a job posting right now.")
	assert.Equal(t, 1, f.logs.FilterMessage("retrying tool").Len())
	assert.Equal(t, 1, countActions(f.session, tools.AskJDQA))
	assert.Equal(t, ids(tools.GetMatches, tools.ProfileAnalyzer, tools.InferSkills), resp.Buttons)
}

func TestRoutingUnavailableApologises(t *testing.T) {
	f := newFixture(t, &scripted{err: errors.New("connection refused")}, profile80, tools.Options{})

	resp := f.assistant.HandleMessage(context.Background(), f.session, "Show me job matches")

	assert.True(t, resp.Decision.Unavailable())
	assert.Contains(t, resp.Text, "Sorry")
	assert.Equal(t, ids(tools.GetMatches, tools.ProfileAnalyzer, tools.InferSkills), resp.Buttons)
}

func TestAskJDQAButtonPromptsForDetails(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})

	resp := f.assistant.HandleAction(context.Background(), f.session, tools.AskJDQA, nil)

	assert.Equal(t, askJDPrompt, resp.Text)
	assert.Equal(t, tools.AskJDQA, resp.Buttons[0])
	assert.Empty(t, f.session.Actions())
}

func TestDirectQuestionUsesUtterance(t *testing.T) {
	scores := ai.ToolScores{
		Tool:       tools.AskJDQA,
		Confidence: 0.9,
		Parameters: map[string]any{"job_id": "3286618BR"},
	}
	f := newFixture(t, &scripted{replies: []ai.ToolScores{scores}}, profile80, tools.Options{})

	resp := f.assistant.HandleMessage(context.Background(), f.session, "What is the salary for 3286618BR?")

	assert.Equal(t, tools.AskJDQA, resp.Executed)
	require.NotNil(t, resp.Result)
	answer, ok := resp.Result.Data.(tools.Answer)
	require.True(t, ok)
	assert.Contains(t, answer.Answer, "$158,000 to $250,000")
}

func TestDirectSideEffectToolIsOnlyRecommended(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.DraftEmail, 0.95)}}, profile80, tools.Options{})

	resp := f.assistant.HandleMessage(context.Background(), f.session, "Draft an email to the recruiter")

	assert.Empty(t, resp.Executed)
	assert.Contains(t, resp.Text, proceedMessage)
	assert.Equal(t, tools.DraftEmail, resp.Buttons[0])
	assert.Empty(t, f.session.Actions())
}

func TestResumeWelcomesBack(t *testing.T) {
	f := newFixture(t, &scripted{}, profile80, tools.Options{})
	ctx := context.Background()
	f.assistant.HandleAction(ctx, f.session, tools.InferSkills, nil)

	resp := f.assistant.Start(ctx, f.session, true)

	assert.Contains(t, resp.Text, "Welcome back, Sam Lee!")
	assert.Contains(t, resp.Text, "Suggest skills")
}

func TestResponsesAreRecordedAndPresented(t *testing.T) {
	f := newFixture(t, &scripted{replies: []ai.ToolScores{best(tools.GetMatches, 0.9)}}, profile80, tools.Options{})
	ctx := context.Background()

	f.assistant.Start(ctx, f.session, false)
	resp := f.assistant.HandleMessage(ctx, f.session, "Show me job matches")

	require.Len(t, f.presenter.calls, 2)
	assert.Equal(t, resp.Text, f.presenter.calls[1].text)
	assert.Equal(t, resp.Buttons[:], f.session.Buttons())

	history := f.session.History()
	require.GreaterOrEqual(t, len(history), 4)
	assert.Equal(t, session.RoleUser, history[1].Role)
	assert.Equal(t, "Show me job matches", history[1].Text)
}

func TestStartersOffered(t *testing.T) {
	starters := Starters()
	require.Len(t, starters, 4)
	assert.Equal(t, "Can you find matching jobs for me?", starters[0].Message)
}
