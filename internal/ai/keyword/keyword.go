// Package keyword is an offline ai.Completer that routes on fixed keyword rules.
package keyword

import (
	"context"
	"regexp"
	"strings"

	"github.com/spigell/career-assistant/internal/ai"
	"github.com/spigell/career-assistant/internal/tools"
)

type rule struct {
	tool       tools.ID
	confidence float64
	words      []string
}

// Rules are evaluated in order; the first rule with a matching word wins.
var rules = []rule{
	{tool: tools.GetMatches, confidence: 0.65, words: []string{"job", "match", "find", "search", "opportunity"}},
	{tool: tools.ProfileAnalyzer, confidence: 0.65, words: []string{"profile", "analyze", "check", "complete"}},
	{tool: tools.InferSkills, confidence: 0.60, words: []string{"skill", "suggest", "recommend"}},
	{tool: tools.UpdateProfile, confidence: 0.60, words: []string{"update", "change", "edit"}},
	{tool: tools.DraftEmail, confidence: 0.60, words: []string{"email", "message", "draft", "write"}},
	{tool: tools.AskJDQA, confidence: 0.55, words: []string{"ask", "question", "tell me about"}},
}

var jobIDPattern = regexp.MustCompile(`\b\d{6,}[A-Za-z]{0,2}\b`)

// Completer never calls a model and never fails.
type Completer struct{}

func New() *Completer {
	return &Completer{}
}

func (c *Completer) Complete(_ context.Context, req ai.CompletionRequest) (ai.ToolScores, error) {
	text := strings.TrimSpace(req.UserText)
	lower := strings.ToLower(text)

	for _, r := range rules {
		if !containsAny(lower, r.words) {
			continue
		}
		return ai.ToolScores{
			Tool:       r.tool,
			Confidence: r.confidence,
			Parameters: parameters(r.tool, text),
			Raw:        text,
		}, nil
	}

	return ai.ToolScores{Raw: text}, nil
}

func (c *Completer) Model() string {
	return "keyword"
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parameters(tool tools.ID, text string) map[string]any {
	params := map[string]any{}
	if id := jobIDPattern.FindString(text); id != "" {
		params["job_id"] = strings.ToUpper(id)
	}
	if tool == tools.AskJDQA {
		params["question"] = text
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
