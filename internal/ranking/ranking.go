// Package ranking orders a job's applications by match score and derives the
// shortlist. Everything here is computed at read time and never persisted.
package ranking

import (
	"sort"
	"strings"

	"JobMatch-backend/internal/model"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Ranked is an application with its 1-based position.
type Ranked struct {
	model.Application
	Rank int `json:"rank"`
}

// Query narrows the ranked view of a job's applications.
type Query struct {
	Status      string
	Search      string
	Shortlisted bool
}

// Score is the similarity used for ordering. Missing analysis scores 0.
func Score(app model.Application) float64 {
	return app.Similarity()
}

// Rank orders apps by score descending. Ties go to the earlier application,
// then to the lower id. apps is not modified.
func Rank(apps []model.Application) []Ranked {
	sorted := make([]model.Application, len(apps))
	copy(sorted, apps)

	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := Score(sorted[i]), Score(sorted[j])
		if si != sj {
			return si > sj
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	ranked := make([]Ranked, len(sorted))
	for i, app := range sorted {
		ranked[i] = Ranked{Application: app, Rank: i + 1}
	}
	return ranked
}

// Shortlist returns the first size entries of ranked, or all of them when
// there are fewer. A size below one is treated as one.
func Shortlist(ranked []Ranked, size int) []Ranked {
	if size < 1 {
		size = 1
	}
	if size > len(ranked) {
		size = len(ranked)
	}
	return ranked[:size]
}

// Apply builds the recruiter view of a job's applications. In shortlist mode
// the status filter is ignored so the true top N is always shown. Search runs
// last, over the already narrowed set.
func Apply(apps []model.Application, shortlistSize int, q Query) []Ranked {
	var ranked []Ranked
	if q.Shortlisted {
		ranked = Shortlist(Rank(apps), shortlistSize)
	} else {
		ranked = Rank(FilterStatus(apps, q.Status))
	}
	return Search(ranked, q.Search)
}

// FilterStatus keeps applications in status. An empty status or StatusAll
// keeps everything.
func FilterStatus(apps []model.Application, status string) []model.Application {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, StatusAll) {
		return apps
	}
	out := make([]model.Application, 0, len(apps))
	for _, app := range apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out
}

// Search keeps entries whose applicant name, email or analysis text contains
// term, ignoring case. Ranks are left as computed before the search.
func Search(ranked []Ranked, term string) []Ranked {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ranked
	}
	out := make([]Ranked, 0, len(ranked))
	for _, r := range ranked {
		if matches(r.Application, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(app model.Application, term string) bool {
	fields := []string{app.Applicant.Name, app.Applicant.Username, app.Applicant.DisplayEmail()}
	if app.CVAnalysis != nil {
		fields = append(fields, app.CVAnalysis.Skills, app.CVAnalysis.Reason, app.CVAnalysis.Projects)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// IDs returns the application ids of ranked, in order.
func IDs(ranked []Ranked) []uint {
	ids := make([]uint, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
