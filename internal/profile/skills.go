package profile

import "strings"

const maxSuggestedSkills = 5

// SkillUpdate carries the skill lists to merge into a profile.
type SkillUpdate struct {
	TopSkills        []string `mapstructure:"topSkills" json:"topSkills"`
	AdditionalSkills []string `mapstructure:"additionalSkills" json:"additionalSkills"`
}

// DefaultSkillUpdate is applied when an update arrives without explicit skills.
func DefaultSkillUpdate() SkillUpdate {
	return SkillUpdate{
		TopSkills:        []string{"Python", "Machine Learning", "Data Analysis"},
		AdditionalSkills: []string{"SQL", "Docker", "Kubernetes"},
	}
}

// Empty reports whether the update carries no skills at all.
func (u SkillUpdate) Empty() bool {
	return len(u.TopSkills) == 0 && len(u.AdditionalSkills) == 0
}

// ApplySkills merges u into the profile, skipping blanks and case-insensitive duplicates.
func (p *Profile) ApplySkills(u SkillUpdate) {
	p.Core.Skills.TopSkills = mergeSkills(p.Core.Skills.TopSkills, u.TopSkills)
	p.Core.Skills.AdditionalSkills = mergeSkills(p.Core.Skills.AdditionalSkills, u.AdditionalSkills)
}

func mergeSkills(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, skill := range list {
			skill = strings.TrimSpace(skill)
			if skill == "" {
				continue
			}
			key := strings.ToLower(skill)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, skill)
		}
	}
	return out
}

// SkillSuggestion is the result of inferring skills from a profile.
type SkillSuggestion struct {
	TopSkills        []string `json:"topSkills"`
	AdditionalSkills []string `json:"additionalSkills"`
	Evidence         []string `json:"evidence"`
	Confidence       float64  `json:"confidence"`
}

// InferSkills derives skills from the two most recent job titles and educations.
func InferSkills(p *Profile) SkillSuggestion {
	if p == nil {
		p = &Profile{}
	}

	var top, additional, evidence []string

	for _, exp := range firstN(p.Core.Experience.Experiences, 2) {
		title := strings.ToLower(exp.JobTitle)
		if strings.Contains(title, "lead") || strings.Contains(title, "manager") {
			top = append(top, "Leadership")
			evidence = append(evidence, "Leadership role: "+exp.JobTitle)
		}
		if strings.Contains(title, "java") || strings.Contains(title, "technical") {
			top = append(top, "Java")
			evidence = append(evidence, "Technical role: "+exp.JobTitle)
		}
		if strings.Contains(title, "compliance") || strings.Contains(title, "risk") {
			top = append(top, "Compliance")
			additional = append(additional, "Risk Management")
			evidence = append(evidence, "Compliance experience: "+exp.JobTitle)
		}
	}

	for _, edu := range firstN(p.Core.Qualification.Educations, 2) {
		area := strings.ToLower(edu.AreaOfStudy)
		if strings.Contains(area, "compliance") {
			if !contains(top, "Compliance") {
				top = append(top, "Compliance Management")
			}
			evidence = append(evidence, "Education in: "+edu.AreaOfStudy)
		}
		if strings.Contains(area, "computer") || strings.Contains(area, "software") {
			additional = append(additional, "Software Development")
		}
	}

	if len(top) == 0 {
		top = []string{"Communication", "Problem Solving", "Team Collaboration"}
		evidence = append(evidence, "Based on professional experience pattern")
	}
	if len(additional) == 0 {
		additional = []string{"Project Management", "Analytical Thinking", "Stakeholder Management"}
	}

	return SkillSuggestion{
		TopSkills:        firstN(mergeSkills(nil, top), maxSuggestedSkills),
		AdditionalSkills: firstN(mergeSkills(nil, additional), maxSuggestedSkills),
		Evidence:         evidence,
		Confidence:       0.75,
	}
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
