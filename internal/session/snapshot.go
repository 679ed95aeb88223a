package session

import (
	"github.com/spigell/career-assistant/internal/tools"
)

// Snapshot is a read-only copy of the signals the router and ranker consume.
type Snapshot struct {
	ThreadID string

	ProfileScore float64
	// ScoreKnown is false until the profile analyzer has run in this conversation.
	ScoreKnown bool
	// ScoreStale is set after an accepted profile update until the next analysis.
	ScoreStale      bool
	MissingSections []string

	LastAction *Action
	Window     []float64
	WindowSize int
	NotHelpful int

	// Remediation is true when match quality has been poor for a full window or the
	// user flagged consecutive match results as not helpful.
	Remediation bool

	RecentTurns []Turn
	LastJobIDs  []string
	TurnCount   int
}

// LastTool returns the most recently executed tool, or "" when none ran yet.
func (s Snapshot) LastTool() tools.ID {
	if s.LastAction == nil {
		return ""
	}
	return s.LastAction.Tool
}

// WindowMean returns the mean of the match-quality window and whether the window is full.
func (s Snapshot) WindowMean() (float64, bool) {
	if len(s.Window) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range s.Window {
		sum += v
	}
	return sum / float64(len(s.Window)), len(s.Window) >= s.WindowSize
}

// Snapshot copies the current signals.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ThreadID:        c.threadID,
		ProfileScore:    c.profileScore,
		ScoreKnown:      c.scoreKnown,
		ScoreStale:      c.scoreStale,
		MissingSections: append([]string(nil), c.missing...),
		Window:          append([]float64(nil), c.window...),
		WindowSize:      c.opts.WindowSize,
		NotHelpful:      c.notHelpful,
		LastJobIDs:      append([]string(nil), c.lastJobIDs...),
		TurnCount:       len(c.chat),
	}
	if n := len(c.actions); n > 0 {
		last := c.actions[n-1]
		s.LastAction = &last
	}

	start := len(c.chat) - summaryTurns
	if start < 0 {
		start = 0
	}
	s.RecentTurns = append([]Turn(nil), c.chat[start:]...)

	mean, full := s.WindowMean()
	s.Remediation = (full && mean < c.opts.RemediationThreshold) || c.notHelpful >= c.opts.NotHelpfulStreak
	return s
}
