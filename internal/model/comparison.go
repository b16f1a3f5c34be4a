package model

import "time"

// Trend directions of a comparison.
const (
	TrendImproved  = "improved"
	TrendWorsened  = "worsened"
	TrendUnchanged = "unchanged"
)

// BuildSummary is the part of a build shown side by side in a comparison.
type BuildSummary struct {
	StartedAt   time.Time `json:"started_at"`
	Outcome     string    `json:"outcome"`
	Docs        int       `json:"docs"`
	BrokenLinks int       `json:"broken_links"`
	Failures    int       `json:"failures"`
}

// Comparison is the difference between two builds of the same site.
type Comparison struct {
	Site     string       `json:"site"`
	Previous BuildSummary `json:"previous"`
	Current  BuildSummary `json:"current"`

	// NewBroken are broken links present now but not before.
	NewBroken []BrokenLink `json:"new_broken,omitempty"`

	// Fixed are broken links present before but not now.
	Fixed []BrokenLink `json:"fixed,omitempty"`

	// Unchanged counts broken links present in both builds.
	Unchanged int `json:"unchanged"`

	// Trend is TrendImproved, TrendWorsened or TrendUnchanged.
	Trend string `json:"trend"`
}

// Summarize returns the comparison summary of r.
func (r *BuildReport) Summarize() BuildSummary {
	return BuildSummary{
		StartedAt:   r.StartedAt,
		Outcome:     r.Outcome(),
		Docs:        r.Docs,
		BrokenLinks: len(r.BrokenLinks),
		Failures:    len(r.Failures()),
	}
}

// Compare returns the difference between previous and current.
// Broken links are matched by Key, preserving the order of each report.
func Compare(previous, current *BuildReport) *Comparison {
	c := &Comparison{
		Site:     current.Site,
		Previous: previous.Summarize(),
		Current:  current.Summarize(),
	}

	before := make(map[string]bool, len(previous.BrokenLinks))
	for _, l := range previous.BrokenLinks {
		before[l.Key()] = true
	}
	now := make(map[string]bool, len(current.BrokenLinks))
	for _, l := range current.BrokenLinks {
		now[l.Key()] = true
		if !before[l.Key()] {
			c.NewBroken = append(c.NewBroken, l)
		}
	}
	counted := make(map[string]bool, len(before))
	for _, l := range previous.BrokenLinks {
		switch {
		case !now[l.Key()]:
			c.Fixed = append(c.Fixed, l)
		case !counted[l.Key()]:
			counted[l.Key()] = true
			c.Unchanged++
		}
	}

	c.Trend = trend(c.Previous, c.Current)
	return c
}

// trend weighs failures above warnings; a failing build always outranks a
// passing one.
func trend(previous, current BuildSummary) string {
	score := func(s BuildSummary) int {
		n := s.Failures*10 + s.BrokenLinks
		if s.Outcome == OutcomeFailed {
			n += 1000
		}
		return n
	}
	switch p, c := score(previous), score(current); {
	case c < p:
		return TrendImproved
	case c > p:
		return TrendWorsened
	default:
		return TrendUnchanged
	}
}
