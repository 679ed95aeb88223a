package filtering

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/jobs"
)

const (
	// DefaultTopK is the number of matches returned when none is requested.
	DefaultTopK = 3

	searchBoost    = 5
	searchBoostCap = 95
	maxReasons     = 3

	notRequestedMsg = "not requested"
)

// Steps builds the matching pipeline for cfg. Steps without criteria stay in
// the list but are disabled.
func Steps(cfg *Config) []Filter {
	steps := []Filter{
		NewExcludedDivisions(cfg.ExcludeDivisions),
		NewCountry(cfg.Criteria.Country),
		NewLocation(cfg.Criteria.Location),
		NewRole(cfg.Criteria.Role),
		NewSearchBoost(cfg.SearchText),
		NewTop(cfg.TopK),
		NewExplain(),
	}

	if len(cfg.ExcludeDivisions) == 0 {
		DisableByName(steps, "excluded_divisions", notRequestedMsg)
	}
	if strings.TrimSpace(cfg.Criteria.Country) == "" {
		DisableByName(steps, "country", notRequestedMsg)
	}
	if strings.TrimSpace(cfg.Criteria.Location) == "" {
		DisableByName(steps, "location", notRequestedMsg)
	}
	if strings.TrimSpace(cfg.Criteria.Role) == "" {
		DisableByName(steps, "role", notRequestedMsg)
	}
	if strings.TrimSpace(cfg.SearchText) == "" {
		DisableByName(steps, "search_boost", notRequestedMsg)
	}

	return steps
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

type excludedDivisionsFilter struct {
	toggle
	divisions []string
}

// NewExcludedDivisions creates a filter that removes jobs from configured divisions.
func NewExcludedDivisions(divisions []string) Filter {
	return &excludedDivisionsFilter{divisions: divisions}
}

func (f *excludedDivisionsFilter) Name() string { return "excluded_divisions" }

func (f *excludedDivisionsFilter) Validate(*Config) error { return nil }

func (f *excludedDivisionsFilter) Apply(_ context.Context, deps Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	excluded := j.Exclude(jobs.JobDivisionField, f.divisions)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding jobs by division", zap.Strings("excluded_jobs", excluded))
	}
	return j, Step{Initial: initial, Dropped: len(excluded), Left: j.Len()}, nil
}

func (f *excludedDivisionsFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"divisions": strings.Join(f.divisions, ", ")})
}

type matchFilter struct {
	toggle
	name  string
	value string
	match func(job *jobs.Job, value string) bool
}

// NewCountry keeps jobs whose country equals country, ignoring case.
func NewCountry(country string) Filter {
	return &matchFilter{name: "country", value: country, match: func(job *jobs.Job, v string) bool {
		return strings.EqualFold(job.Country, v)
	}}
}

// NewLocation keeps jobs whose location contains location, ignoring case.
func NewLocation(location string) Filter {
	return &matchFilter{name: "location", value: location, match: func(job *jobs.Job, v string) bool {
		return strings.Contains(strings.ToLower(job.Location), strings.ToLower(v))
	}}
}

// NewRole keeps jobs whose title contains role, ignoring case.
func NewRole(role string) Filter {
	return &matchFilter{name: "role", value: role, match: func(job *jobs.Job, v string) bool {
		return strings.Contains(strings.ToLower(job.Title), strings.ToLower(v))
	}}
}

func (f *matchFilter) Name() string { return f.name }

func (f *matchFilter) Validate(*Config) error { return nil }

func (f *matchFilter) Apply(_ context.Context, _ Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	value := strings.TrimSpace(f.value)
	dropped := j.Keep(func(job *jobs.Job) bool { return f.match(job, value) })
	return j, Step{Initial: initial, Dropped: len(dropped), Left: j.Len()}, nil
}

func (f *matchFilter) Status() Status {
	return f.status(f.name, map[string]string{"value": f.value})
}

type searchBoostFilter struct {
	toggle
	words []string
}

// NewSearchBoost raises the score of jobs whose title contains any search word.
func NewSearchBoost(text string) Filter {
	return &searchBoostFilter{words: strings.Fields(strings.ToLower(text))}
}

func (f *searchBoostFilter) Name() string { return "search_boost" }

func (f *searchBoostFilter) Validate(*Config) error { return nil }

func (f *searchBoostFilter) Apply(_ context.Context, _ Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	for _, job := range j.Items {
		title := strings.ToLower(job.Title)
		for _, word := range f.words {
			if strings.Contains(title, word) {
				job.Score = min(searchBoostCap, job.Score+searchBoost)
				break
			}
		}
	}
	return j, Step{Initial: j.Len(), Left: j.Len()}, nil
}

func (f *searchBoostFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"words": strings.Join(f.words, " ")})
}

type topFilter struct {
	toggle
	k int
}

// NewTop sorts by score and keeps the best k jobs.
func NewTop(k int) Filter {
	if k == 0 {
		k = DefaultTopK
	}
	return &topFilter{k: k}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Validate(*Config) error {
	if f.k < 0 {
		return errors.New("top_k must not be negative")
	}
	return nil
}

func (f *topFilter) Apply(_ context.Context, _ Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := j.Len()
	j.SortByScore()
	dropped := j.Truncate(f.k)
	return j, Step{Initial: initial, Dropped: len(dropped), Left: j.Len()}, nil
}

func (f *topFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"k": strconv.Itoa(f.k)})
}

type explainFilter struct {
	toggle
}

// NewExplain attaches up to three match reasons to each job.
func NewExplain() Filter {
	return &explainFilter{}
}

func (f *explainFilter) Name() string { return "explain" }

func (f *explainFilter) Validate(*Config) error { return nil }

func (f *explainFilter) Apply(_ context.Context, deps Deps, j *jobs.Jobs) (*jobs.Jobs, Step, error) {
	var rank, division string
	if deps.Profile != nil {
		rank = strings.TrimSpace(deps.Profile.Core.Rank.Description)
		division = deps.Profile.Core.GCRS.BusinessDivisionDescription
	}

	for _, job := range j.Items {
		var why []string
		if rank != "" && strings.Contains(strings.ToLower(job.Rank), strings.ToLower(rank)) {
			why = append(why, "Matches your current level ("+rank+")")
		}
		if strings.Contains(division, "Banking") && strings.Contains(job.Division, "Banking") {
			why = append(why, "Similar business division experience")
		}

		words := strings.Fields(strings.ToLower(job.Title))
		if hasWord(words, "compliance") || hasWord(words, "risk") {
			why = append(why, "Aligns with your compliance and risk management background")
		}
		if hasWord(words, "lead") || hasWord(words, "manager") {
			why = append(why, "Leadership role matching your experience level")
		}

		if len(why) == 0 {
			why = []string{"Strong overall profile match", "Relevant industry experience"}
		}
		if len(why) > maxReasons {
			why = why[:maxReasons]
		}
		job.Why = why
	}
	return j, Step{Initial: j.Len(), Left: j.Len()}, nil
}

func hasWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}
