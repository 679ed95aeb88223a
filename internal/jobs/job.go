package jobs

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

const (
	JobIDField       = "ID"
	JobCountryField  = "Country"
	JobDivisionField = "Division"
)

// Job is one open position in the catalog.
type Job struct {
	ID       string   `json:"jobId"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Country  string   `json:"country"`
	Division string   `json:"division"`
	Rank     string   `json:"rank"`
	Score    int      `json:"score"`
	Why      []string `json:"why,omitempty"`

	Description *Description `json:"description,omitempty"`
}

// Description holds the posting details used to answer questions about a job.
type Description struct {
	Requirements string `json:"requirements,omitempty"`
	Salary       string `json:"salary,omitempty"`
	Location     string `json:"location,omitempty"`
	Team         string `json:"team,omitempty"`
}

type Jobs struct {
	Items []*Job
}

func (j *Job) GetStringField(name string) string {
	switch name {
	case JobIDField:
		return j.ID
	case JobCountryField:
		return j.Country
	case JobDivisionField:
		return j.Division
	default:
		return ""
	}
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	id = strings.TrimSpace(id)
	for _, job := range j.Items {
		if strings.EqualFold(job.ID, id) {
			return job
		}
	}
	return nil
}

// Clone copies the list and its items so scoring never touches the catalog.
func (j *Jobs) Clone() *Jobs {
	out := &Jobs{Items: make([]*Job, 0, len(j.Items))}
	for _, job := range j.Items {
		cp := *job
		cp.Why = append([]string(nil), job.Why...)
		out.Items = append(out.Items, &cp)
	}
	return out
}

// Keep removes every job for which keep returns false and returns the removed ids.
// Order of the remaining jobs is preserved.
func (j *Jobs) Keep(keep func(*Job) bool) []string {
	var dropped []string
	kept := j.Items[:0]
	for _, job := range j.Items {
		if keep(job) {
			kept = append(kept, job)
			continue
		}
		dropped = append(dropped, job.ID)
	}
	j.Items = kept
	return dropped
}

// Exclude removes jobs whose field matches any of targets.
func (j *Jobs) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return j.Keep(func(job *Job) bool {
		_, hit := set[strings.ToLower(job.GetStringField(name))]
		return !hit
	})
}

// SortByScore orders jobs by descending score, keeping catalog order for ties.
func (j *Jobs) SortByScore() {
	sort.SliceStable(j.Items, func(a, b int) bool {
		return j.Items[a].Score > j.Items[b].Score
	})
}

// Truncate keeps at most n jobs.
func (j *Jobs) Truncate(n int) []string {
	if n < 0 || n >= len(j.Items) {
		return nil
	}
	dropped := make([]string, 0, len(j.Items)-n)
	for _, job := range j.Items[n:] {
		dropped = append(dropped, job.ID)
	}
	j.Items = j.Items[:n]
	return dropped
}

// AverageScore is the mean score rounded to one decimal, zero for an empty list.
func (j *Jobs) AverageScore() float64 {
	if len(j.Items) == 0 {
		return 0
	}
	var sum int
	for _, job := range j.Items {
		sum += job.Score
	}
	return math.Round(float64(sum)/float64(len(j.Items))*10) / 10
}

// IDs returns the job ids in list order.
func (j *Jobs) IDs() []string {
	ids := make([]string, 0, len(j.Items))
	for _, job := range j.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

// ReportByDivision groups the jobs by division for listing.
func (j *Jobs) ReportByDivision() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range j.Items {
		entry := map[string]string{
			"id":       job.ID,
			"title":    job.Title,
			"location": fmt.Sprintf("%s, %s", job.Location, job.Country),
			"rank":     job.Rank,
			"score":    fmt.Sprintf("%d", job.Score),
		}
		if job.Description != nil && job.Description.Salary != "" {
			entry["salary"] = job.Description.Salary
		}
		report[job.Division] = append(report[job.Division], entry)
	}
	return report
}

// LoadFromFile reads a catalog previously written with ToFile.
func LoadFromFile(path string) (*Jobs, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Jobs{}, nil
	}

	var items []*Job
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, err
	}
	return &Jobs{Items: items}, nil
}

func (j *Jobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(j.Items)
}
