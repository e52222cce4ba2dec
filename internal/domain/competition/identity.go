package competition

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/competition-engine/internal/domain/naming"
)

// Ghost is a name used by matches that no roster team owns.
type Ghost struct {
	Key             string
	Name            string
	Matches         int
	SuggestedTeamID int64
}

// FindGhosts lists canonical keys used in match names but absent from the
// roster, in order of first appearance. Fuzzy resolution only feeds the
// suggestion; a typo stays a ghost until it is renamed or adopted.
func FindGhosts(teams []Team, matches []Match, rules Rules) []Ghost {
	roster := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		roster[naming.Canonicalize(t.Name)] = struct{}{}
	}

	m := rules.matcher(teams)
	var out []Ghost
	seen := make(map[string]int)
	for _, match := range matches {
		for _, name := range [2]string{match.Home, match.Away} {
			key := naming.Canonicalize(name)
			if key == "" {
				continue
			}
			if _, ok := roster[key]; ok {
				continue
			}
			if idx, ok := seen[key]; ok {
				out[idx].Matches++
				continue
			}
			g := Ghost{Key: key, Name: strings.TrimSpace(name), Matches: 1}
			if res, ok := m.Resolve(name); ok {
				g.SuggestedTeamID = res.ID
			}
			seen[key] = len(out)
			out = append(out, g)
		}
	}
	return out
}

// FindZombies lists roster teams that no match resolves to.
func FindZombies(teams []Team, matches []Match, rules Rules) []Team {
	m := rules.matcher(teams)
	referenced := make(map[int64]struct{}, len(teams))
	for _, match := range matches {
		for _, name := range [2]string{match.Home, match.Away} {
			if res, ok := m.Resolve(name); ok {
				referenced[res.ID] = struct{}{}
			}
		}
	}

	var out []Team
	for _, t := range teams {
		if _, ok := referenced[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Adopt registers one team per requested ghost. Names that are no longer
// ghosts when the transaction runs are skipped.
func (c *Competition) Adopt(names []string, ids TeamIDSource, rules Rules) ([]Team, error) {
	ghosts := FindGhosts(c.Teams, c.AllMatches(), rules)
	byKey := make(map[string]Ghost, len(ghosts))
	for _, g := range ghosts {
		byKey[g.Key] = g
	}

	adopted := make([]int64, 0, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := naming.Canonicalize(name)
		g, ok := byKey[key]
		if !ok {
			continue
		}
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}

		id, err := ids(c.MaxTeamID())
		if err != nil {
			return nil, fmt.Errorf("allocate team id for %q: %w", g.Name, err)
		}
		c.Teams = append(c.Teams, Team{ID: id, Name: g.Name})
		adopted = append(adopted, id)
	}

	c.Recompute(rules)

	out := make([]Team, 0, len(adopted))
	for _, id := range adopted {
		if t, ok := c.TeamByID(id); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// RenameGhost rewrites every match side carrying the ghost's canonical key
// to the target team's display name. It returns the number of rewritten
// sides.
func (c *Competition) RenameGhost(ghostName string, targetID int64, rules Rules) (int, error) {
	target, ok := c.TeamByID(targetID)
	if !ok {
		return 0, fmt.Errorf("%w: team=%d", ErrTeamsNotFound, targetID)
	}

	key := naming.Canonicalize(ghostName)
	if key == "" {
		return 0, fmt.Errorf("%w: ghost name %q has no canonical form", ErrInvalidTeam, ghostName)
	}
	if key != naming.Canonicalize(target.Name) {
		for _, t := range c.Teams {
			if naming.Canonicalize(t.Name) == key {
				return 0, fmt.Errorf("%w: %q is team %d, merge it instead", ErrNotGhost, ghostName, t.ID)
			}
		}
	}

	rewritten := 0
	rename := func(name string) string {
		if name != target.Name && naming.Canonicalize(name) == key {
			rewritten++
			return target.Name
		}
		return name
	}
	for i := range c.Fixtures {
		c.Fixtures[i].Home = rename(c.Fixtures[i].Home)
		c.Fixtures[i].Away = rename(c.Fixtures[i].Away)
	}
	for i := range c.Results {
		c.Results[i].Home = rename(c.Results[i].Home)
		c.Results[i].Away = rename(c.Results[i].Away)
	}

	c.Recompute(rules)
	return rewritten, nil
}

// MergeResult summarises a completed merge.
type MergeResult struct {
	Primary        Team
	Removed        Team
	RewrittenSides int
	MembersAdded   int
}

// Merge folds the secondary team into the primary: rosters are unioned by
// member id, match names are rewritten, the secondary is removed and stats
// are recomputed from the rewritten history.
func (c *Competition) Merge(primaryID, secondaryID int64, rules Rules) (MergeResult, error) {
	if primaryID == secondaryID {
		return MergeResult{}, fmt.Errorf("%w: primary and secondary are both team %d", ErrInvalidMerge, primaryID)
	}

	primaryIdx, secondaryIdx := -1, -1
	for i, t := range c.Teams {
		switch t.ID {
		case primaryID:
			primaryIdx = i
		case secondaryID:
			secondaryIdx = i
		}
	}
	if primaryIdx < 0 || secondaryIdx < 0 {
		return MergeResult{}, fmt.Errorf("%w: primary=%d secondary=%d", ErrTeamsNotFound, primaryID, secondaryID)
	}

	primary := c.Teams[primaryIdx]
	secondary := c.Teams[secondaryIdx]

	m := rules.matcher(c.Teams)
	if meetings := headToHead(c.AllMatches(), m, primaryID, secondaryID); len(meetings) > 0 {
		return MergeResult{}, fmt.Errorf("%w: teams %d and %d meet in %s; resolve those matches first",
			ErrInvalidMerge, primaryID, secondaryID, strings.Join(meetings, ", "))
	}

	var added int
	primary.Players, added = unionMembers(primary.Players, secondary.Players)
	result := MergeResult{MembersAdded: added}
	primary.Staff, added = unionMembers(primary.Staff, secondary.Staff)
	result.MembersAdded += added
	if primary.CrestURL == "" {
		primary.CrestURL = secondary.CrestURL
	}

	rename := func(name string) string {
		if res, ok := m.Resolve(name); ok && res.ID == secondaryID {
			result.RewrittenSides++
			return primary.Name
		}
		return name
	}
	for i := range c.Fixtures {
		c.Fixtures[i].Home = rename(c.Fixtures[i].Home)
		c.Fixtures[i].Away = rename(c.Fixtures[i].Away)
	}
	for i := range c.Results {
		c.Results[i].Home = rename(c.Results[i].Home)
		c.Results[i].Away = rename(c.Results[i].Away)
	}

	c.Teams[primaryIdx] = primary
	c.Teams = append(c.Teams[:secondaryIdx:secondaryIdx], c.Teams[secondaryIdx+1:]...)
	c.Recompute(rules)

	result.Primary, _ = c.TeamByID(primaryID)
	result.Removed = secondary
	return result, nil
}

// headToHead lists the ids of matches played between the two teams. Merging
// them would turn each into a team playing itself.
func headToHead(matches []Match, m *naming.Matcher, a, b int64) []string {
	var out []string
	for _, match := range matches {
		home, homeOK := m.Resolve(match.Home)
		away, awayOK := m.Resolve(match.Away)
		if !homeOK || !awayOK {
			continue
		}
		if (home.ID == a && away.ID == b) || (home.ID == b && away.ID == a) {
			out = append(out, match.ID)
		}
	}
	return out
}

func unionMembers(primary, secondary []Member) ([]Member, int) {
	out := cloneMembers(primary)
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	for _, m := range primary {
		seen[m.ID] = struct{}{}
	}

	added := 0
	for _, m := range cloneMembers(secondary) {
		if _, dup := seen[m.ID]; dup && m.ID != "" {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
		added++
	}
	return out, added
}

// DuplicateKey identifies a match independent of its id.
func DuplicateKey(m Match) string {
	date := strings.TrimSpace(m.FullDate)
	if at, ok := ParseDate(m.FullDate); ok {
		date = at.Format(time.RFC3339)
	}
	return naming.Canonicalize(m.Home) + "|" + naming.Canonicalize(m.Away) + "|" + date
}

// Dedup drops matches sharing a DuplicateKey. Results are scanned before
// fixtures so a recorded result survives a stale duplicate fixture.
func (c *Competition) Dedup(rules Rules) []Match {
	seen := make(map[string]struct{}, len(c.Results)+len(c.Fixtures))
	var dropped []Match

	keep := func(list []Match) []Match {
		out := make([]Match, 0, len(list))
		for _, m := range list {
			key := DuplicateKey(m)
			if _, dup := seen[key]; dup {
				dropped = append(dropped, m)
				continue
			}
			seen[key] = struct{}{}
			out = append(out, m)
		}
		return out
	}

	c.Results = keep(c.Results)
	c.Fixtures = keep(c.Fixtures)
	c.Recompute(rules)

	return dropped
}

// AuditReport is a read-only integrity snapshot of one competition.
type AuditReport struct {
	CompetitionID string
	Ghosts        []Ghost
	Zombies       []Team
	Duplicates    [][]string
	Collisions    [][]int64
}

func (r AuditReport) Clean() bool {
	return len(r.Ghosts) == 0 && len(r.Zombies) == 0 && len(r.Duplicates) == 0 && len(r.Collisions) == 0
}

func Audit(c Competition, rules Rules) AuditReport {
	all := append(append([]Match{}, c.Results...), c.Fixtures...)
	report := AuditReport{
		CompetitionID: c.ID,
		Ghosts:        FindGhosts(c.Teams, c.AllMatches(), rules),
		Zombies:       FindZombies(c.Teams, all, rules),
	}

	groups := make(map[string][]string)
	var order []string
	for _, m := range all {
		key := DuplicateKey(m)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m.ID)
	}
	for _, key := range order {
		if len(groups[key]) > 1 {
			report.Duplicates = append(report.Duplicates, groups[key])
		}
	}

	byKey := make(map[string][]int64)
	var keys []string
	for _, t := range c.Teams {
		key := naming.Canonicalize(t.Name)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], t.ID)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if len(byKey[key]) > 1 {
			report.Collisions = append(report.Collisions, byKey[key])
		}
	}

	return report
}
