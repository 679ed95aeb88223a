package profile

import "math"

// DefaultCompletionThreshold is the score at which a profile counts as complete.
const DefaultCompletionThreshold = 80

// Section weights sum to 100.
const (
	weightExperience    = 30
	weightQualification = 20
	weightSkills        = 25
	weightPreferences   = 15
	weightLanguages     = 10
)

// Insight explains one missing section and the action that fixes it.
type Insight struct {
	Area           string `json:"area"`
	Observation    string `json:"observation"`
	Action         string `json:"action"`
	Recommendation string `json:"recommendation"`
}

// NextAction is a prioritised suggestion derived from the analysis.
type NextAction struct {
	Title    string `json:"title"`
	Tool     string `json:"tool"`
	Priority int    `json:"priority"`
}

// Analysis is the outcome of scoring a profile for completeness.
type Analysis struct {
	CompletionScore float64      `json:"completionScore"`
	MissingSections []string     `json:"missingSections"`
	Insights        []Insight    `json:"insights"`
	NextActions     []NextAction `json:"nextActions"`
}

// Analyze scores p as a weighted sum over its sections. Profiles scoring under
// threshold get next actions built from the insights, the rest are pointed at
// job matching.
func Analyze(p *Profile, threshold float64) Analysis {
	if p == nil {
		p = &Profile{}
	}
	if threshold <= 0 {
		threshold = DefaultCompletionThreshold
	}
	core := p.Core

	var (
		score    float64
		missing  = []string{}
		insights = []Insight{}
	)

	check := func(ok bool, weight float64, section string, insight Insight) {
		if ok {
			score += weight
			return
		}
		missing = append(missing, section)
		insights = append(insights, insight)
	}

	check(len(core.Experience.Experiences) > 0, weightExperience, "experience", Insight{
		Area:           "experience",
		Observation:    "No work experience found",
		Action:         "update_profile_field",
		Recommendation: "Add at least one job with title, company, and dates",
	})
	check(len(core.Qualification.Educations) > 0, weightQualification, "qualification", Insight{
		Area:           "qualification",
		Observation:    "Missing educational or certification details",
		Action:         "update_profile_field",
		Recommendation: "Add a degree or certification",
	})
	check(len(core.Skills.TopSkills) > 0 || len(core.Skills.AdditionalSkills) > 0, weightSkills, "skills", Insight{
		Area:           "skills",
		Observation:    "No top or additional skills detected",
		Action:         "infer_skills",
		Recommendation: "Infer or manually add top 5 skills",
	})
	check(present(core.CareerAspirationPreference) && present(core.CareerLocationPreference), weightPreferences, "preferences", Insight{
		Area:           "preferences",
		Observation:    "Career aspiration or location preferences missing",
		Action:         "set_preferences",
		Recommendation: "Add preferred roles and relocation regions",
	})
	check(len(core.Language.Languages) > 0, weightLanguages, "languages", Insight{
		Area:           "language",
		Observation:    "No language proficiency data found",
		Action:         "update_profile_field",
		Recommendation: "Add at least one language with proficiency level",
	})

	score = math.Round(score*100) / 100

	var next []NextAction
	if score < threshold {
		for i, insight := range insights {
			next = append(next, NextAction{Title: insight.Recommendation, Tool: insight.Action, Priority: i + 1})
		}
	} else {
		next = []NextAction{
			{Title: "Find Job Matches", Tool: "get_matches", Priority: 1},
			{Title: "Ask about a Job", Tool: "ask_jd_qa", Priority: 2},
		}
	}

	return Analysis{
		CompletionScore: score,
		MissingSections: missing,
		Insights:        insights,
		NextActions:     next,
	}
}
