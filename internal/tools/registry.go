package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ID names one of the six assistant tools.
type ID string

const (
	ProfileAnalyzer ID = "profile_analyzer"
	UpdateProfile   ID = "update_profile"
	InferSkills     ID = "infer_skills"
	GetMatches      ID = "get_matches"
	AskJDQA         ID = "ask_jd_qa"
	DraftEmail      ID = "draft_email"
)

// ErrInvalidRegistry is returned when a registry does not describe exactly the six known tools.
var ErrInvalidRegistry = errors.New("invalid tool registry")

var baseOrder = []ID{GetMatches, ProfileAnalyzer, InferSkills, UpdateProfile, AskJDQA, DraftEmail}

// BaseOrder returns the default ranking of all tools.
func BaseOrder() []ID {
	return append([]ID(nil), baseOrder...)
}

// Known reports whether id is one of the six tools.
func (id ID) Known() bool {
	for _, known := range baseOrder {
		if id == known {
			return true
		}
	}
	return false
}

func (id ID) String() string { return string(id) }

// Parse maps a raw tool name to an ID.
func Parse(raw string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(raw)))
	return id, id.Known()
}

// Descriptor is the immutable description of a tool.
type Descriptor struct {
	ID           ID
	Description  string
	RequiredArgs []string
	// Idempotent tools have no side effects and may be retried silently.
	Idempotent bool

	Label   string
	Icon    string
	Tooltip string
}

// Registry is a validated, read-only set of descriptors.
type Registry struct {
	byID map[ID]Descriptor
}

// NewRegistry validates that descriptors cover every tool exactly once.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	byID := make(map[ID]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if !d.ID.Known() {
			return nil, fmt.Errorf("%w: unknown tool %q", ErrInvalidRegistry, d.ID)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %q", ErrInvalidRegistry, d.ID)
		}
		if strings.TrimSpace(d.Description) == "" {
			return nil, fmt.Errorf("%w: tool %q has no description", ErrInvalidRegistry, d.ID)
		}
		byID[d.ID] = d
	}
	for _, id := range baseOrder {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: missing tool %q", ErrInvalidRegistry, id)
		}
	}
	return &Registry{byID: byID}, nil
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultDescriptors()...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(id ID) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Get returns the descriptor for a known id. It panics on ids outside the registry.
func (r *Registry) Get(id ID) Descriptor {
	d, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("tool %q is not registered", id))
	}
	return d
}

// Descriptors lists all descriptors in base order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(baseOrder))
	for _, id := range baseOrder {
		out = append(out, r.byID[id])
	}
	return out
}

func defaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:          ProfileAnalyzer,
			Description: "analyze your profile for completeness",
			Idempotent:  true,
			Label:       "Analyze my profile",
			Icon:        "📊",
			Tooltip:     "Analyze profile completeness and get improvement suggestions",
		},
		{
			ID:          UpdateProfile,
			Description: "update your profile information",
			Label:       "Update my profile",
			Icon:        "✏️",
			Tooltip:     "Update profile sections (skills, experience, etc.)",
		},
		{
			ID:          InferSkills,
			Description: "suggest skills based on your experience",
			Idempotent:  true,
			Label:       "Suggest skills",
			Icon:        "🧠",
			Tooltip:     "Get suggested skills based on your experience",
		},
		{
			ID:          GetMatches,
			Description: "find matching job opportunities",
			Idempotent:  true,
			Label:       "Find matching jobs",
			Icon:        "🔍",
			Tooltip:     "Find job opportunities that match your profile",
		},
		{
			ID:           AskJDQA,
			Description:  "answer questions about a job posting",
			RequiredArgs: []string{"job_id", "question"},
			Idempotent:   true,
			Label:        "Ask about a job",
			Icon:         "❓",
			Tooltip:      "Ask questions about a specific job posting",
		},
		{
			ID:          DraftEmail,
			Description: "draft a message to a recruiter",
			Label:       "Draft a message",
			Icon:        "✉️",
			Tooltip:     "Draft an email to hiring manager or recruiter",
		},
	}
}
