package pipeline

import (
	"sort"
	"time"

	"mbsearch/internal/classify"
	"mbsearch/internal/pattern"
	"mbsearch/internal/tree"
)

// Status is the outcome of mining one pair.
type Status string

const (
	// StatusMined means a pattern and its query were produced.
	StatusMined Status = "mined"
	// StatusNoDivergence means the slow and fast trees are equal.
	StatusNoDivergence Status = "no_divergence"
	// StatusEmptyPattern means the divergence yielded no condition.
	StatusEmptyPattern Status = "empty_pattern"
	// StatusQueryFailed means a pattern exists but no query could be rendered.
	StatusQueryFailed Status = "query_failed"
	// StatusParseFailed means one side of the pair did not parse.
	StatusParseFailed Status = "parse_failed"
	// StatusFailed covers everything else, including recovered panics.
	StatusFailed Status = "failed"
)

// Statuses lists every status in report order.
var Statuses = []Status{
	StatusMined,
	StatusQueryFailed,
	StatusEmptyPattern,
	StatusNoDivergence,
	StatusParseFailed,
	StatusFailed,
}

// Result records what happened to one pair.
type Result struct {
	PairID   string           `json:"pairId"`
	Status   Status           `json:"status"`
	Kind     string           `json:"kind,omitempty"`
	Path     tree.Path        `json:"path,omitempty"`
	Flags    classify.Flags   `json:"flags"`
	Pattern  *pattern.Pattern `json:"pattern,omitempty"`
	Query    string           `json:"query,omitempty"`
	Err      error            `json:"-"`
	Error    string           `json:"error,omitempty"`
	Duration time.Duration    `json:"durationNs"`
}

// HasPattern reports whether the pair produced a pattern, with or without a
// query.
func (r Result) HasPattern() bool {
	return r.Pattern != nil
}

// Summary counts results by status.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Patterns int            `json:"patterns"`
	Queries  int            `json:"queries"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{ByStatus: make(map[Status]int)}
	for _, r := range results {
		s.Total++
		s.ByStatus[r.Status]++
		if r.HasPattern() {
			s.Patterns++
		}
		if r.Query != "" {
			s.Queries++
		}
	}
	return s
}

// Patterns returns the patterns of all results in input order.
func Patterns(results []Result) []*pattern.Pattern {
	var out []*pattern.Pattern
	for _, r := range results {
		if r.Pattern != nil {
			out = append(out, r.Pattern)
		}
	}
	return out
}

// SortedStatuses returns the statuses present in s, in report order
// followed by any unknown ones alphabetically.
func (s Summary) SortedStatuses() []Status {
	var out []Status
	known := make(map[Status]bool, len(Statuses))
	for _, st := range Statuses {
		known[st] = true
		if s.ByStatus[st] > 0 {
			out = append(out, st)
		}
	}
	var extra []Status
	for st := range s.ByStatus {
		if !known[st] {
			extra = append(extra, st)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
