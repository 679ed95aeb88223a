package ai

import (
	"context"
	"errors"
	"math"

	"github.com/spigell/career-assistant/internal/tools"
)

// ErrUnparsable is returned when a model reply cannot be mapped to tool scores.
var ErrUnparsable = errors.New("unparsable model response")

// CompletionRequest is one intent classification call.
type CompletionRequest struct {
	System         string
	ContextSummary string
	UserText       string
}

// ToolScores carries either a confidence per tool or a single best tool with
// its confidence, depending on what the backend returns.
type ToolScores struct {
	Scores     map[tools.ID]float64
	Tool       tools.ID
	Confidence float64
	// Parameters are tool arguments the model extracted from the utterance.
	Parameters map[string]any
	Raw        string
}

// Best returns the highest scoring tool. Ties resolve in base order.
func (s ToolScores) Best() (tools.ID, float64) {
	if len(s.Scores) == 0 {
		if !s.Tool.Known() {
			return "", 0
		}
		return s.Tool, clamp(s.Confidence)
	}

	var (
		best  tools.ID
		score = -1.0
	)
	for _, id := range tools.BaseOrder() {
		v, ok := s.Scores[id]
		if !ok {
			continue
		}
		if v = clamp(v); v > score {
			best, score = id, v
		}
	}
	if best == "" {
		return "", 0
	}
	return best, score
}

// Completer maps an utterance to tool scores.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (ToolScores, error)
}

// TextGenerator is a chat model that answers one system + user message pair.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Model() string
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
