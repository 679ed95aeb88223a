package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/jobs"
	"github.com/spigell/career-assistant/internal/profile"
)

// Filter represents a single step applied to the job list.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Logger  *zap.Logger
	Profile *profile.Profile
}

// Step describes the result of executing a step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Criteria narrows the catalog. Empty fields match everything.
type Criteria struct {
	Country  string `mapstructure:"country"`
	Location string `mapstructure:"location"`
	Role     string `mapstructure:"role"`
}

// Config contains the settings consumed by the steps.
type Config struct {
	Criteria         Criteria
	SearchText       string
	TopK             int
	ExcludeDivisions []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and executes the supplied filters sequentially.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, j *jobs.Jobs) (*jobs.Jobs, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, j)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		j = next
	}

	return j, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
