package ai

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/tools"
	"github.com/spigell/career-assistant/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Classifier turns a TextGenerator into a Completer by prompting for JSON tool scores.
type Classifier struct {
	generator TextGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewClassifier(generator TextGenerator, log *zap.Logger, maxLogLength int) *Classifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Classifier{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// SystemPrompt renders the routing instructions for the given registry.
func SystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	for _, d := range registry.Descriptors() {
		fmt.Fprintf(&b, "- %s: %s", d.ID, d.Description)
		if len(d.RequiredArgs) > 0 {
			fmt.Fprintf(&b, " (requires %s)", strings.Join(d.RequiredArgs, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(strings.ReplaceAll(promptTemplate, "{{TOOLS}}", strings.TrimSpace(b.String())))
}

func (c *Classifier) Complete(ctx context.Context, req CompletionRequest) (ToolScores, error) {
	user := buildUserMessage(req)

	c.logger.Debug("classify request",
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", utils.TruncateForLog(user, c.maxLogLen)),
	)

	raw, err := c.generator.Generate(ctx, req.System, user)
	if err != nil {
		return ToolScores{}, err
	}

	c.logger.Debug("classify response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	return ParseScores(raw)
}

func buildUserMessage(req CompletionRequest) string {
	summary := strings.TrimSpace(req.ContextSummary)
	if summary == "" {
		summary = "none"
	}
	return fmt.Sprintf("Current context:\n%s\n\nUser input: %s", summary, strings.TrimSpace(req.UserText))
}
