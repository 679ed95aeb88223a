package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/career-assistant/internal/profile"
)

// UpdateResult describes an accepted profile update.
type UpdateResult struct {
	Section       string              `json:"section"`
	Updated       profile.SkillUpdate `json:"updatedFields"`
	PreviousScore float64             `json:"previousCompletionScore"`
	NewScore      float64             `json:"newCompletionScore"`
	Message       string              `json:"message"`
}

// SkillsResult wraps inferred skills with a user-facing message.
type SkillsResult struct {
	profile.SkillSuggestion
	Message string `json:"message"`
}

type analyzeArgs struct {
	CompletionThreshold float64 `mapstructure:"completion_threshold"`
}

type updateArgs struct {
	Section string              `mapstructure:"section"`
	Updates profile.SkillUpdate `mapstructure:"updates"`
}

const supportedSection = "skills"

func (e *Executor) analyzeProfile(_ context.Context, args Args, state *State) (Result, error) {
	var in analyzeArgs
	if err := Decode(args, &in); err != nil {
		return Result{}, err
	}
	threshold := in.CompletionThreshold
	if threshold <= 0 {
		threshold = e.opts.CompletionThreshold
	}

	analysis := profile.Analyze(state.Profile, threshold)
	summary := fmt.Sprintf("completion score %.0f%%", analysis.CompletionScore)
	if len(analysis.MissingSections) > 0 {
		summary += ", missing " + strings.Join(analysis.MissingSections, ", ")
	}

	return Result{
		Success: true,
		Data:    analysis,
		Summary: summary,
		Score:   scorePtr(analysis.CompletionScore),
	}, nil
}

// ErrUnsupportedSection is returned for profile sections that cannot be updated yet.
var ErrUnsupportedSection = errors.New("unsupported profile section")

// ApplyProfileUpdate decodes update arguments and merges them into p. Only the
// skills section is supported; an update without skills applies the defaults.
func ApplyProfileUpdate(p *profile.Profile, args Args) (profile.SkillUpdate, error) {
	var in updateArgs
	if err := Decode(args, &in); err != nil {
		return profile.SkillUpdate{}, err
	}
	section := strings.ToLower(strings.TrimSpace(in.Section))
	if section != "" && section != supportedSection {
		return profile.SkillUpdate{}, fmt.Errorf("%w: %s", ErrUnsupportedSection, section)
	}

	updates := in.Updates
	if updates.Empty() {
		updates = profile.DefaultSkillUpdate()
	}
	p.ApplySkills(updates)
	return updates, nil
}

func (e *Executor) updateProfile(_ context.Context, args Args, state *State) (Result, error) {
	before := profile.Analyze(state.Profile, e.opts.CompletionThreshold).CompletionScore

	updates, err := ApplyProfileUpdate(state.Profile, args)
	if errors.Is(err, ErrUnsupportedSection) {
		var in updateArgs
		_ = Decode(args, &in)
		return Result{
			Error: fmt.Sprintf("Update for section '%s' will be implemented later.", strings.ToLower(strings.TrimSpace(in.Section))),
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	after := profile.Analyze(state.Profile, e.opts.CompletionThreshold).CompletionScore
	changed := append(append([]string(nil), updates.TopSkills...), updates.AdditionalSkills...)

	return Result{
		Success: true,
		Data: UpdateResult{
			Section:       supportedSection,
			Updated:       updates,
			PreviousScore: before,
			NewScore:      after,
			Message:       "Skills section updated successfully",
		},
		Summary: "updated skills: " + strings.Join(changed, ", "),
	}, nil
}

func (e *Executor) inferSkills(_ context.Context, _ Args, state *State) (Result, error) {
	suggestion := profile.InferSkills(state.Profile)
	return Result{
		Success: true,
		Data: SkillsResult{
			SkillSuggestion: suggestion,
			Message:         "Skills inferred from your experience and education. Review and confirm to add to your profile.",
		},
		Summary: "suggested " + strings.Join(suggestion.TopSkills, ", "),
	}, nil
}
