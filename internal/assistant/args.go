package assistant

import (
	"strings"

	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

// Starter is a suggested first message.
type Starter struct {
	Label   string
	Message string
}

// Starters returns the conversation starters offered before the first message.
func Starters() []Starter {
	return []Starter{
		{Label: "Find Matching Jobs", Message: "Can you find matching jobs for me?"},
		{Label: "Analyze My Profile", Message: "Analyze my profile"},
		{Label: "Suggest Skills", Message: "What skills should I add to my profile?"},
		{Label: "Show All Actions", Message: "What can you help me with?"},
	}
}

// completeArgs fills arguments the conversation already knows: the utterance
// as a job question and the first job of the last match list.
func (a *Assistant) completeArgs(c *session.Context, id tools.ID, args tools.Args, utterance string) tools.Args {
	out := make(tools.Args, len(args)+2)
	for k, v := range args {
		out[k] = v
	}

	switch id {
	case tools.AskJDQA, tools.DraftEmail:
		if blank(out["job_id"]) {
			if last := c.Snapshot().LastJobIDs; len(last) > 0 {
				out["job_id"] = last[0]
			}
		}
		if id == tools.AskJDQA && blank(out["question"]) && strings.TrimSpace(utterance) != "" {
			out["question"] = strings.TrimSpace(utterance)
		}
	}
	return out
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
