package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/career-assistant/internal/tools"
)

// percentFloor is the smallest confidence read as a percentage.
const percentFloor = 2

// ParseScores accepts either {"tool_scores": {...}} or a single best tool in
// "primary_tool"/"tool" with a "confidence". Unknown tool ids are ignored.
// Confidences from 2 to 100 are read as percentages, values between 1 and 2
// clamp to 1.
func ParseScores(raw string) (ToolScores, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return ToolScores{}, fmt.Errorf("%w: %w", ErrUnparsable, err)
	}

	out := ToolScores{Raw: raw}
	if params, ok := data["parameters"].(map[string]any); ok && len(params) > 0 {
		out.Parameters = params
	}

	for _, key := range []string{"tool_scores", "scores", "confidences"} {
		scores, ok := data[key].(map[string]any)
		if !ok {
			continue
		}
		out.Scores = make(map[tools.ID]float64, len(scores))
		for name, v := range scores {
			id, known := tools.Parse(name)
			f := normalize(coerceFloat(v))
			if !known || math.IsNaN(f) {
				continue
			}
			out.Scores[id] = f
		}
		if len(out.Scores) == 0 {
			return ToolScores{}, fmt.Errorf("%w: no known tools in %s", ErrUnparsable, key)
		}
		return out, nil
	}

	for _, key := range []string{"primary_tool", "tool", "best_tool"} {
		var (
			name       string
			confidence = math.NaN()
		)
		switch v := data[key].(type) {
		case string:
			name = v
			confidence = coerceFloat(data["confidence"])
		case map[string]any:
			// {"primary_tool": {"tool": "...", "confidence": 0.9}}
			name = coerceString(v["tool"])
			confidence = coerceFloat(v["confidence"])
		default:
			continue
		}

		id, known := tools.Parse(name)
		confidence = normalize(confidence)
		if !known || math.IsNaN(confidence) {
			return ToolScores{}, fmt.Errorf("%w: %s=%q confidence=%v", ErrUnparsable, key, name, data["confidence"])
		}
		out.Tool = id
		out.Confidence = confidence
		return out, nil
	}

	return ToolScores{}, fmt.Errorf("%w: no tool scores found", ErrUnparsable)
}

// normalize maps percentages onto [0,1] and clamps the rest. Values in
// [2, 100] are percentages; anything between 1 and 2 is an overshooting
// fraction and clamps to 1.
func normalize(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v >= percentFloor && v <= 100 {
		v /= 100
	}
	return clamp(v)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// Models sometimes wrap the object in prose.
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}
}
