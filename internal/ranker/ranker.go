package ranker

import (
	"errors"
	"fmt"

	"github.com/spigell/career-assistant/internal/tools"
)

// Size is the number of actions offered after every turn.
const Size = 3

// DefaultGateThreshold is the profile score under which only profile tools are offered.
const DefaultGateThreshold = 50

// ErrInvalidButtonState is returned when the registry cannot produce a full, distinct button set.
var ErrInvalidButtonState = errors.New("invalid button state")

// Reason names the override that shaped a ranking.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonProfileIncomplete Reason = "profile_incomplete"
	ReasonPostMatch         Reason = "post_match"
	ReasonLowMatchQuality   Reason = "low_match_quality"
)

var (
	remediationSet = [Size]tools.ID{tools.ProfileAnalyzer, tools.InferSkills, tools.UpdateProfile}
	postMatchSet   = [Size]tools.ID{tools.GetMatches, tools.AskJDQA, tools.DraftEmail}
)

// RemediationSet returns the profile-improvement buttons.
func RemediationSet() [Size]tools.ID { return remediationSet }

// Ranking is an ordered set of exactly three distinct tools.
type Ranking struct {
	Tools  [Size]tools.ID
	Reason Reason
}

func (r Ranking) Slice() []tools.ID { return r.Tools[:] }

// Input is everything a ranking depends on.
type Input struct {
	// Recent is the tool that was just mapped or executed, if any.
	Recent tools.ID
	// Executed is true when Recent actually ran this turn.
	Executed bool

	ProfileScore float64
	// ScoreKnown is false when no fresh profile score is available.
	ScoreKnown bool
	Remediation bool
}

type Config struct {
	GateThreshold float64
}

// Ranker orders the next best actions.
type Ranker struct {
	gate float64
}

// New validates that every ranking it can produce is made of registered, distinct tools.
func New(registry *tools.Registry, cfg Config) (*Ranker, error) {
	if cfg.GateThreshold <= 0 {
		cfg.GateThreshold = DefaultGateThreshold
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrInvalidButtonState)
	}
	if len(tools.BaseOrder()) < Size {
		return nil, fmt.Errorf("%w: base order has fewer than %d tools", ErrInvalidButtonState, Size)
	}

	for _, set := range [][Size]tools.ID{remediationSet, postMatchSet} {
		if err := validate(registry, set[:]); err != nil {
			return nil, err
		}
	}
	if err := validate(registry, tools.BaseOrder()); err != nil {
		return nil, err
	}
	return &Ranker{gate: cfg.GateThreshold}, nil
}

func validate(registry *tools.Registry, ids []tools.ID) error {
	seen := make(map[tools.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := registry.Lookup(id); !ok {
			return fmt.Errorf("%w: %q is not registered", ErrInvalidButtonState, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q appears twice", ErrInvalidButtonState, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Rank moves the recent tool to the front of the base order and applies at
// most one override, first match wins:
//  1. profile score under the gate threshold
//  2. get_matches just executed
//  3. remediation active
func (r *Ranker) Rank(in Input) Ranking {
	switch {
	case in.ScoreKnown && in.ProfileScore < r.gate:
		return Ranking{Tools: remediationSet, Reason: ReasonProfileIncomplete}
	case in.Executed && in.Recent == tools.GetMatches:
		return Ranking{Tools: postMatchSet, Reason: ReasonPostMatch}
	case in.Remediation:
		return Ranking{Tools: remediationSet, Reason: ReasonLowMatchQuality}
	}

	order := moveToFront(tools.BaseOrder(), in.Recent)
	var out Ranking
	copy(out.Tools[:], order[:Size])
	return out
}

func moveToFront(order []tools.ID, id tools.ID) []tools.ID {
	if !id.Known() {
		return order
	}
	out := make([]tools.ID, 0, len(order))
	out = append(out, id)
	for _, other := range order {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}
