package competition

import (
	"bytes"
	"strings"
)

// Competition is the transactional aggregate: one document per league season.
type Competition struct {
	ID       string
	Name     string
	Teams    []Team
	Fixtures []Match // upcoming, every status except completed
	Results  []Match // completed
	Version  int64
}

// Team is a roster entry. Stats are derived and can only be produced by
// ComputeStandings.
type Team struct {
	ID       int64
	Name     string
	CrestURL string
	Players  []Member
	Staff    []Member

	stats Stats
}

func (t Team) Stats() Stats {
	return t.stats
}

// Stats is one team's aggregate over completed matches.
type Stats struct {
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	Form           string
}

// Match references teams by name because external fixtures may name teams
// that are not on the roster yet.
type Match struct {
	ID         string
	Home       string
	Away       string
	HomeScore  *int
	AwayScore  *int
	Status     Status
	FullDate   string
	LiveMinute *int
}

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func ParseSide(v string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case SideHome:
		return SideHome, true
	case SideAway:
		return SideAway, true
	default:
		return "", false
	}
}

// AllMatches returns fixtures followed by results.
func (c Competition) AllMatches() []Match {
	out := make([]Match, 0, len(c.Fixtures)+len(c.Results))
	out = append(out, c.Fixtures...)
	out = append(out, c.Results...)
	return out
}

func (c Competition) TeamByID(id int64) (Team, bool) {
	for _, t := range c.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

func (c Competition) MaxTeamID() int64 {
	var out int64
	for _, t := range c.Teams {
		if t.ID > out {
			out = t.ID
		}
	}
	return out
}

func (c Competition) fixtureIndex(matchID string) int {
	for i := range c.Fixtures {
		if c.Fixtures[i].ID == matchID {
			return i
		}
	}
	return -1
}

func (c Competition) resultIndex(matchID string) int {
	for i := range c.Results {
		if c.Results[i].ID == matchID {
			return i
		}
	}
	return -1
}

// FindMatch looks a match up in both lists.
func (c Competition) FindMatch(matchID string) (Match, bool) {
	if i := c.fixtureIndex(matchID); i >= 0 {
		return c.Fixtures[i], true
	}
	if i := c.resultIndex(matchID); i >= 0 {
		return c.Results[i], true
	}
	return Match{}, false
}

// Clone deep-copies the aggregate so transaction functions can mutate freely.
func (c Competition) Clone() Competition {
	out := c
	out.Teams = make([]Team, len(c.Teams))
	for i, t := range c.Teams {
		out.Teams[i] = t.clone()
	}
	out.Fixtures = cloneMatches(c.Fixtures)
	out.Results = cloneMatches(c.Results)
	return out
}

func (t Team) clone() Team {
	out := t
	out.Players = cloneMembers(t.Players)
	out.Staff = cloneMembers(t.Staff)
	return out
}

func cloneMembers(in []Member) []Member {
	if in == nil {
		return nil
	}
	out := make([]Member, len(in))
	for i, m := range in {
		out[i] = Member{ID: m.ID, Doc: bytes.Clone(m.Doc)}
	}
	return out
}

func cloneMatches(in []Match) []Match {
	if in == nil {
		return nil
	}
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func (m Match) Clone() Match {
	out := m
	out.HomeScore = copyInt(m.HomeScore)
	out.AwayScore = copyInt(m.AwayScore)
	out.LiveMinute = copyInt(m.LiveMinute)
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func IntPtr(v int) *int {
	return &v
}
