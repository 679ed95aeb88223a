package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/career-assistant/internal/filtering"
	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/tools"
)

const maxInsights = 3

// Format renders a tool result as chat text.
func Format(res tools.Result) string {
	switch data := res.Data.(type) {
	case profile.Analysis:
		return formatAnalysis(data)
	case tools.MatchResult:
		return formatMatches(data)
	case tools.SkillsResult:
		return formatSkills(data)
	case tools.UpdateResult:
		return fmt.Sprintf("%s. Profile completion went from %.0f%% to %.0f%%.", data.Message, data.PreviousScore, data.NewScore)
	case tools.Answer:
		text := "**Answer:** " + data.Answer
		if len(data.Citations) > 0 {
			text += "\n\n_Source: " + strings.Join(data.Citations, "; ") + "_"
		}
		return text
	case tools.Email:
		return fmt.Sprintf("### Draft Email\n\n**Subject:** %s\n\n%s\n\n_%s_", data.Subject, data.Body, data.Message)
	case nil:
		return res.Summary
	default:
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return res.Summary
		}
		return string(raw)
	}
}

func formatAnalysis(a profile.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Profile Analysis\n\n**Completion Score:** %.0f%%\n", a.CompletionScore)
	if len(a.MissingSections) > 0 {
		fmt.Fprintf(&b, "\n**Missing Sections:** %s\n", strings.Join(a.MissingSections, ", "))
	}
	if len(a.Insights) > 0 {
		b.WriteString("\n**Insights:**\n")
		for i, insight := range a.Insights {
			if i == maxInsights {
				break
			}
			fmt.Fprintf(&b, "- *%s*: %s. %s\n", titleCase(insight.Area), insight.Observation, insight.Recommendation)
		}
	}
	return strings.TrimSpace(b.String())
}

func formatMatches(m tools.MatchResult) string {
	if len(m.Matches) == 0 {
		return "No matching jobs found. Try updating your profile or adjusting filters."
	}

	var b strings.Builder
	b.WriteString("### Top Job Matches\n\n")
	for i, job := range m.Matches {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, job.Title)
		fmt.Fprintf(&b, "   %s | ID: `%s` | Match: **%d%%**\n", job.Location, job.ID, job.Score)
		if len(job.Why) > 0 {
			fmt.Fprintf(&b, "   Why: %s\n", job.Why[0])
		}
		b.WriteString("\n")
	}
	b.WriteString(m.Message + ".")
	if applied := appliedSteps(m.Steps); len(applied) > 0 {
		fmt.Fprintf(&b, "\n\n_Narrowed by: %s_", strings.Join(applied, ", "))
	}
	return b.String()
}

// appliedSteps names the enabled narrowing steps, leaving out the ones that always run.
func appliedSteps(steps []filtering.Status) []string {
	var names []string
	for _, s := range steps {
		if !s.Enabled {
			continue
		}
		switch s.Name {
		case "top", "explain", "excluded_divisions":
			continue
		}
		names = append(names, strings.ReplaceAll(s.Name, "_", " "))
	}
	return names
}

func formatSkills(s tools.SkillsResult) string {
	var b strings.Builder
	b.WriteString("### Suggested Skills\n\n")
	if len(s.TopSkills) > 0 {
		fmt.Fprintf(&b, "**Top Skills:** %s\n\n", strings.Join(s.TopSkills, ", "))
	}
	if len(s.AdditionalSkills) > 0 {
		fmt.Fprintf(&b, "**Additional Skills:** %s\n\n", strings.Join(s.AdditionalSkills, ", "))
	}
	b.WriteString(s.Message)
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
