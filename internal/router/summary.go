package router

import (
	"fmt"
	"strings"

	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/utils"
)

const summaryTurnLength = 160

// Summarize renders the compact context sent along with an utterance.
func Summarize(s session.Snapshot) string {
	var lines []string

	switch {
	case !s.ScoreKnown:
		lines = append(lines, "Profile completion: unknown")
	case s.ScoreStale:
		lines = append(lines, fmt.Sprintf("Profile completion: %.0f%% (outdated after an update)", s.ProfileScore))
	default:
		lines = append(lines, fmt.Sprintf("Profile completion: %.0f%%", s.ProfileScore))
	}
	if len(s.MissingSections) > 0 {
		lines = append(lines, "Missing sections: "+strings.Join(s.MissingSections, ", "))
	}
	if last := s.LastTool(); last != "" {
		lines = append(lines, "Last action: "+last.String())
	}
	if mean, _ := s.WindowMean(); len(s.Window) > 0 {
		lines = append(lines, fmt.Sprintf("Recent match quality: %.1f", mean))
	}
	if len(s.LastJobIDs) > 0 {
		lines = append(lines, "Last matched jobs: "+strings.Join(s.LastJobIDs, ", "))
	}

	if len(s.RecentTurns) > 0 {
		lines = append(lines, "Recent conversation:")
		for _, t := range s.RecentTurns {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Role, utils.TruncateForLog(t.Text, summaryTurnLength)))
		}
	}

	return strings.Join(lines, "\n")
}
