package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed sample_profile.json
var sampleProfile []byte

// Profile is the talent profile the assistant works against.
type Profile struct {
	Email string `json:"email,omitempty"`
	Core  Core   `json:"core"`
}

type Core struct {
	Name          Name          `json:"name"`
	Email         string        `json:"email,omitempty"`
	BusinessTitle string        `json:"businessTitle,omitempty"`
	Rank          Rank          `json:"rank"`
	GCRS          GCRS          `json:"gcrs"`
	Experience    Experience    `json:"experience"`
	Qualification Qualification `json:"qualification"`
	Skills        Skills        `json:"skills"`
	Language      Language      `json:"language"`

	// Preferences are free-form documents; only their presence is scored.
	CareerAspirationPreference json.RawMessage `json:"careerAspirationPreference,omitempty"`
	CareerLocationPreference   json.RawMessage `json:"careerLocationPreference,omitempty"`
}

type Name struct {
	BusinessFirstName string `json:"businessFirstName,omitempty"`
	BusinessLastName  string `json:"businessLastName,omitempty"`
	LegalFirstName    string `json:"legalFirstName,omitempty"`
	LegalLastName     string `json:"legalLastName,omitempty"`
}

type Rank struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

type GCRS struct {
	BusinessDivisionDescription string `json:"businessDivisionDescription,omitempty"`
}

type Experience struct {
	Experiences []Job `json:"experiences,omitempty"`
}

type Job struct {
	JobTitle  string `json:"jobTitle,omitempty"`
	Company   string `json:"company,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type Qualification struct {
	Educations []Education `json:"educations,omitempty"`
}

type Education struct {
	Degree      string `json:"degree,omitempty"`
	AreaOfStudy string `json:"areaOfStudy,omitempty"`
	Institution string `json:"institution,omitempty"`
}

type Skills struct {
	TopSkills        []string `json:"topSkills,omitempty"`
	AdditionalSkills []string `json:"additionalSkills,omitempty"`
}

type Language struct {
	Languages []Spoken `json:"languages,omitempty"`
}

type Spoken struct {
	Language    string `json:"language,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Load reads a profile document from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Sample returns the bundled demo profile.
func Sample() *Profile {
	p, err := Parse(sampleProfile)
	if err != nil {
		panic(err)
	}
	return p
}

// Clone returns a deep copy so a conversation can own its profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return &Profile{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var out Profile
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

// DisplayName prefers business names, then legal names, then any email on file.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Candidate"
	}
	name := p.Core.Name
	first := firstNonEmpty(name.BusinessFirstName, name.LegalFirstName)
	last := firstNonEmpty(name.BusinessLastName, name.LegalLastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	}
	if email := firstNonEmpty(p.Email, p.Core.Email); email != "" {
		return email
	}
	return "Candidate"
}

// Title returns the current business title or a neutral default.
func (p *Profile) Title() string {
	if p == nil {
		return "Professional"
	}
	if title := strings.TrimSpace(p.Core.BusinessTitle); title != "" {
		return title
	}
	return "Professional"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// present reports whether a free-form JSON value carries any content.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
