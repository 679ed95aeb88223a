package tools

import (
	"context"
	"fmt"
	"strings"
)

// Answer is a reply to a question about one posting.
type Answer struct {
	JobID      string   `json:"jobId"`
	JobTitle   string   `json:"jobTitle"`
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence float64  `json:"confidence"`
}

type qaArgs struct {
	JobID    string `mapstructure:"job_id"`
	Question string `mapstructure:"question"`
}

type topic struct {
	keywords []string
	answer   func(d *descriptionView) string
	citation string
}

type descriptionView struct {
	requirements, salary, location, team string
}

var topics = []topic{
	{
		keywords: []string{"salary", "pay", "compensation"},
		answer: func(d *descriptionView) string {
			return fmt.Sprintf("The salary range for this position is %s.", orText(d.salary, "not specified in the posting"))
		},
		citation: "Job posting - Compensation section",
	},
	{
		keywords: []string{"requirement", "qualification", "need"},
		answer: func(d *descriptionView) string {
			return fmt.Sprintf("The key requirements are: %s.", orText(d.requirements, "not specified"))
		},
		citation: "Job posting - Requirements section",
	},
	{
		keywords: []string{"location", "where", "remote"},
		answer: func(d *descriptionView) string {
			return fmt.Sprintf("This position is based in %s.", orText(d.location, "location not specified"))
		},
		citation: "Job posting - Location section",
	},
	{
		keywords: []string{"team", "department", "division"},
		answer: func(d *descriptionView) string {
			return fmt.Sprintf("You would be joining the %s.", orText(d.team, "team not specified"))
		},
		citation: "Job posting - Team information",
	},
}

func (e *Executor) askJDQA(_ context.Context, args Args, _ *State) (Result, error) {
	var in qaArgs
	if err := Decode(args, &in); err != nil {
		return Result{}, err
	}
	jobID := strings.TrimSpace(in.JobID)

	job := e.opts.Catalog.FindByID(jobID)
	if job == nil || job.Description == nil {
		return Result{
			Success: true,
			Data: Answer{
				JobID:     jobID,
				JobTitle:  "Unknown",
				Answer:    fmt.Sprintf("I don't have detailed information about job %s loaded yet. Please try another job or load this posting first.", jobID),
				Citations: []string{},
			},
			Summary: "no posting details for " + jobID,
		}, nil
	}

	d := &descriptionView{
		requirements: job.Description.Requirements,
		salary:       job.Description.Salary,
		location:     job.Description.Location,
		team:         job.Description.Team,
	}
	question := strings.ToLower(in.Question)

	text := fmt.Sprintf("For the %s role: %s", job.Title, orText(d.requirements, "Please ask a more specific question about requirements, location, team, or compensation."))
	citation := "Job posting - General information"
	for _, t := range topics {
		if containsAny(question, t.keywords) {
			text = t.answer(d)
			citation = t.citation
			break
		}
	}

	return Result{
		Success: true,
		Data: Answer{
			JobID:      job.ID,
			JobTitle:   job.Title,
			Answer:     text,
			Citations:  []string{citation},
			Confidence: 0.85,
		},
		Summary: fmt.Sprintf("answered question about %s", job.ID),
	}, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func orText(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
