package tools

import (
	"context"
	"fmt"

	"github.com/spigell/career-assistant/internal/filtering"
	"github.com/spigell/career-assistant/internal/jobs"
)

// MatchResult is the outcome of a job search.
type MatchResult struct {
	Matches      []*jobs.Job        `json:"matches"`
	Count        int                `json:"count"`
	AverageScore float64            `json:"averageScore"`
	Filters      filtering.Criteria `json:"filtersApplied"`
	SearchText   string             `json:"searchTextUsed,omitempty"`
	Message      string             `json:"message"`
	// Steps reports which pipeline steps ran.
	Steps []filtering.Status `json:"steps"`
}

type matchArgs struct {
	Filters    filtering.Criteria `mapstructure:"filters"`
	SearchText string             `mapstructure:"search_text"`
	TopK       int                `mapstructure:"top_k"`
}

func (e *Executor) getMatches(ctx context.Context, args Args, state *State) (Result, error) {
	var in matchArgs
	if err := Decode(args, &in); err != nil {
		return Result{}, err
	}

	cfg := &filtering.Config{
		Criteria:         in.Filters,
		SearchText:       in.SearchText,
		TopK:             in.TopK,
		ExcludeDivisions: e.opts.ExcludeDivisions,
	}
	deps := filtering.Deps{Logger: e.logger, Profile: state.Profile}

	steps := filtering.Steps(cfg)
	found, err := filtering.Run(ctx, cfg, deps, steps, e.opts.Catalog.Clone())
	if err != nil {
		return Result{}, err
	}

	avg := found.AverageScore()
	message := fmt.Sprintf("Found %d matching opportunities", found.Len())
	if in.Filters != (filtering.Criteria{}) {
		where := in.Filters.Country
		if where == "" {
			where = "your preferred locations"
		}
		message += " in " + where
	}

	return Result{
		Success: true,
		Data: MatchResult{
			Matches:      found.Items,
			Count:        found.Len(),
			AverageScore: avg,
			Filters:      in.Filters,
			SearchText:   in.SearchText,
			Message:      message,
			Steps:        filtering.Describe(steps),
		},
		Summary: fmt.Sprintf("%d matches, average score %.1f", found.Len(), avg),
		Score:   scorePtr(avg),
	}, nil
}
