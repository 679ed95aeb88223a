package session

import (
	"sync"
	"time"

	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/tools"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one chat message.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Action is one tool execution.
type Action struct {
	Tool    tools.ID
	Args    tools.Args
	Summary string
	Success bool
	Score   *float64
	At      time.Time
}

// Clarification is an utterance waiting for the user's follow-up.
type Clarification struct {
	Utterance string
	Tool      tools.ID
}

// Recorder receives every appended turn and action for persistence.
// Implementations must not block.
type Recorder interface {
	RecordTurn(threadID string, turn Turn)
	RecordAction(threadID string, action Action)
}

// Options configure the remediation triggers.
type Options struct {
	WindowSize           int
	RemediationThreshold float64
	NotHelpfulStreak     int
}

const (
	DefaultWindowSize           = 2
	DefaultRemediationThreshold = 60
	DefaultNotHelpfulStreak     = 2

	summaryTurns = 6
)

func (o Options) withDefaults() Options {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.RemediationThreshold <= 0 {
		o.RemediationThreshold = DefaultRemediationThreshold
	}
	if o.NotHelpfulStreak <= 0 {
		o.NotHelpfulStreak = DefaultNotHelpfulStreak
	}
	return o
}

// Context is the mutable record of one conversation. All methods are safe for
// concurrent use; tool executions are serialised through Do.
type Context struct {
	mu sync.Mutex

	threadID string
	opts     Options
	recorder Recorder
	now      func() time.Time

	chat    []Turn
	actions []Action

	profile      *profile.Profile
	profileScore float64
	scoreKnown   bool
	scoreStale   bool
	missing      []string

	window     []float64
	notHelpful int
	lastJobIDs []string

	pending *Clarification
	buttons []tools.ID
	seq     uint64
}

// New creates an empty conversation that owns p.
func New(threadID string, p *profile.Profile, opts Options, recorder Recorder) *Context {
	if p == nil {
		p = &profile.Profile{}
	}
	return &Context{
		threadID: threadID,
		opts:     opts.withDefaults(),
		recorder: recorder,
		now:      time.Now,
		profile:  p,
	}
}

func (c *Context) ThreadID() string { return c.threadID }

// BeginTurn starts a new turn and returns its token. Any earlier token stops being current.
func (c *Context) BeginTurn() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// IsCurrent reports whether token belongs to the latest turn.
func (c *Context) IsCurrent(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token == c.seq
}

// AppendTurn appends a chat turn unconditionally.
func (c *Context) AppendTurn(role Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendTurnLocked(role, text)
}

// AppendTurnIfCurrent appends a chat turn only while token is still current.
func (c *Context) AppendTurnIfCurrent(token uint64, role Role, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		return false
	}
	c.appendTurnLocked(role, text)
	return true
}

func (c *Context) appendTurnLocked(role Role, text string) {
	turn := Turn{Role: role, Text: text, At: c.now().UTC()}
	c.chat = append(c.chat, turn)
	if c.recorder != nil {
		c.recorder.RecordTurn(c.threadID, turn)
	}
}

// History returns a copy of the chat turns.
func (c *Context) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.chat...)
}

// Actions returns a copy of the action history.
func (c *Context) Actions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Action(nil), c.actions...)
}

// Do runs fn with exclusive access to the tool state of this conversation.
func (c *Context) Do(fn func(state *tools.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&tools.State{Profile: c.profile})
}

// RecordAction appends a tool execution and folds its outcome into the cached signals.
func (c *Context) RecordAction(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.At.IsZero() {
		a.At = c.now().UTC()
	}
	c.actions = append(c.actions, a)
	c.applyLocked(a)
	if c.recorder != nil {
		c.recorder.RecordAction(c.threadID, a)
	}
}

func (c *Context) applyLocked(a Action) {
	if !a.Success {
		return
	}
	switch a.Tool {
	case tools.ProfileAnalyzer:
		if a.Score != nil {
			c.profileScore = *a.Score
			c.scoreKnown = true
			c.scoreStale = false
		}
	case tools.UpdateProfile:
		// Scores and match quality describe the profile before the update.
		c.scoreStale = true
		c.window = nil
		c.notHelpful = 0
	case tools.GetMatches:
		if a.Score != nil {
			c.pushScoreLocked(*a.Score)
		}
	}
}

// SetAnalysis caches the missing sections reported by the profile analyzer.
func (c *Context) SetAnalysis(missing []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing = append([]string(nil), missing...)
}

// SetLastJobs remembers the job ids shown most recently.
func (c *Context) SetLastJobs(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastJobIDs = append([]string(nil), ids...)
}

func (c *Context) pushScoreLocked(score float64) {
	c.window = append(c.window, score)
	if over := len(c.window) - c.opts.WindowSize; over > 0 {
		c.window = append([]float64(nil), c.window[over:]...)
	}
}

// RecordFeedback counts consecutive "not helpful" signals on match results.
func (c *Context) RecordFeedback(helpful bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if helpful {
		c.notHelpful = 0
		return
	}
	c.notHelpful++
}

// Pending returns the clarification awaiting a follow-up, if any.
func (c *Context) Pending() *Clarification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// SetPendingIfCurrent stores or clears the pending clarification while token is current.
func (c *Context) SetPendingIfCurrent(token uint64, p *Clarification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		return false
	}
	c.pending = p
	return true
}

// ClearPending drops any pending clarification.
func (c *Context) ClearPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// SetButtons remembers the actions presented last.
func (c *Context) SetButtons(ids []tools.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buttons = append([]tools.ID(nil), ids...)
}

// Buttons returns the actions presented last, or nil before the first response.
func (c *Context) Buttons() []tools.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tools.ID(nil), c.buttons...)
}
