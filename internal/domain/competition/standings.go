package competition

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/competition-engine/internal/domain/naming"
)

const formLength = 5

// Rules holds the knobs shared by standings and identity resolution.
type Rules struct {
	MaxNameDistance int
}

func DefaultRules() Rules {
	return Rules{MaxNameDistance: naming.DefaultMaxDistance}
}

func (r Rules) matcher(teams []Team) *naming.Matcher {
	candidates := make([]naming.Candidate, 0, len(teams))
	for _, t := range teams {
		candidates = append(candidates, naming.Candidate{ID: t.ID, Name: t.Name})
	}
	return naming.NewMatcher(candidates, naming.WithMaxDistance(r.MaxNameDistance))
}

// ComputeStandings rebuilds every team's stats from the completed matches.
// It never reads the incoming stats, so repeated calls are idempotent.
func ComputeStandings(teams []Team, results []Match, rules Rules) []Team {
	out := make([]Team, len(teams))
	index := make(map[int64]int, len(teams))
	for i, t := range teams {
		t.stats = Stats{}
		out[i] = t
		if _, exists := index[t.ID]; !exists {
			index[t.ID] = i
		}
	}

	m := rules.matcher(teams)
	for _, match := range sortByDate(results) {
		if match.HomeScore == nil || match.AwayScore == nil {
			continue
		}

		homeIdx, homeOK := resolveIndex(m, index, match.Home)
		awayIdx, awayOK := resolveIndex(m, index, match.Away)
		if !homeOK && !awayOK {
			continue
		}
		if homeOK && awayOK && homeIdx == awayIdx {
			continue
		}

		home, away := *match.HomeScore, *match.AwayScore
		if homeOK {
			out[homeIdx].stats.record(home, away)
		}
		if awayOK {
			out[awayIdx].stats.record(away, home)
		}
	}

	return out
}

func resolveIndex(m *naming.Matcher, index map[int64]int, name string) (int, bool) {
	res, ok := m.Resolve(name)
	if !ok {
		return 0, false
	}
	idx, ok := index[res.ID]
	return idx, ok
}

func (s *Stats) record(scored, conceded int) {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst

	var marker string
	switch {
	case scored > conceded:
		s.Won++
		marker = "W"
	case scored == conceded:
		s.Drawn++
		marker = "D"
	default:
		s.Lost++
		marker = "L"
	}
	s.Points = 3*s.Won + s.Drawn

	form := marker + s.Form
	if len(form) > formLength {
		form = form[:formLength]
	}
	s.Form = form
}

// sortByDate orders matches oldest first. Matches without a parseable date
// come first in their original order.
func sortByDate(matches []Match) []Match {
	type dated struct {
		match Match
		at    time.Time
		ok    bool
	}
	rows := make([]dated, len(matches))
	for i, m := range matches {
		at, ok := ParseDate(m.FullDate)
		rows[i] = dated{match: m, at: at, ok: ok}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return !rows[i].ok
		}
		if !rows[i].ok {
			return false
		}
		return rows[i].at.Before(rows[j].at)
	})

	out := make([]Match, len(rows))
	for i, r := range rows {
		out[i] = r.match
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts the layouts admin forms and imports have produced.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if at, err := time.Parse(layout, v); err == nil {
			return at.UTC(), true
		}
	}
	return time.Time{}, false
}

// Standing is a display row. Positions are never persisted.
type Standing struct {
	Position int
	TeamID   int64
	Name     string
	CrestURL string
	Stats    Stats
}

// Rank orders teams by points, goal difference, goals scored, then name.
func Rank(teams []Team) []Standing {
	rows := make([]Standing, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, Standing{TeamID: t.ID, Name: t.Name, CrestURL: t.CrestURL, Stats: t.stats})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Stats, rows[j].Stats
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TeamID < rows[j].TeamID
	})

	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// Recompute regenerates every team's stats from the results list.
func (c *Competition) Recompute(rules Rules) {
	c.Teams = ComputeStandings(c.Teams, c.Results, rules)
}
