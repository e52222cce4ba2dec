package postgres

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
)

type competitionTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	Name        string     `db:"name"`
	Document    []byte     `db:"document"`
	Version     int64      `db:"version"`
	CommitToken *string    `db:"commit_token"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type competitionInsertModel struct {
	PublicID string `db:"public_id"`
	Name     string `db:"name"`
	Document []byte `db:"document"`
	Version  int64  `db:"version"`
}

// competitionDocument is the persisted JSONB shape. Field names follow the
// documents the admin site has always written.
type competitionDocument struct {
	Name     string          `json:"name"`
	Teams    []teamDocument  `json:"teams"`
	Fixtures []matchDocument `json:"fixtures"`
	Results  []matchDocument `json:"results"`
}

type teamDocument struct {
	ID       int64                `json:"id"`
	Name     string               `json:"name"`
	CrestURL string               `json:"crestUrl,omitempty"`
	Stats    statsDocument        `json:"stats"`
	Players  []competition.Member `json:"players"`
	Staff    []competition.Member `json:"staff"`
}

type statsDocument struct {
	Played         int    `json:"p"`
	Won            int    `json:"w"`
	Drawn          int    `json:"d"`
	Lost           int    `json:"l"`
	GoalsFor       int    `json:"gs"`
	GoalsAgainst   int    `json:"gc"`
	GoalDifference int    `json:"gd"`
	Points         int    `json:"pts"`
	Form           string `json:"form"`
}

type matchDocument struct {
	ID         string `json:"id"`
	TeamA      string `json:"teamA"`
	TeamB      string `json:"teamB"`
	ScoreA     *int   `json:"scoreA,omitempty"`
	ScoreB     *int   `json:"scoreB,omitempty"`
	Status     string `json:"status"`
	FullDate   string `json:"fullDate"`
	LiveMinute *int   `json:"liveMinute,omitempty"`
}

func encodeDocument(c competition.Competition) ([]byte, error) {
	doc := competitionDocument{
		Name:     c.Name,
		Teams:    make([]teamDocument, 0, len(c.Teams)),
		Fixtures: encodeMatches(c.Fixtures),
		Results:  encodeMatches(c.Results),
	}
	for _, t := range c.Teams {
		s := t.Stats()
		doc.Teams = append(doc.Teams, teamDocument{
			ID:       t.ID,
			Name:     t.Name,
			CrestURL: t.CrestURL,
			Stats: statsDocument{
				Played:         s.Played,
				Won:            s.Won,
				Drawn:          s.Drawn,
				Lost:           s.Lost,
				GoalsFor:       s.GoalsFor,
				GoalsAgainst:   s.GoalsAgainst,
				GoalDifference: s.GoalDifference,
				Points:         s.Points,
				Form:           s.Form,
			},
			Players: encodeMembers(t.Players),
			Staff:   encodeMembers(t.Staff),
		})
	}

	return sonic.Marshal(doc)
}

func encodeMatches(in []competition.Match) []matchDocument {
	out := make([]matchDocument, 0, len(in))
	for _, m := range in {
		m = m.Clone()
		out = append(out, matchDocument{
			ID:         m.ID,
			TeamA:      m.Home,
			TeamB:      m.Away,
			ScoreA:     m.HomeScore,
			ScoreB:     m.AwayScore,
			Status:     string(m.Status),
			FullDate:   m.FullDate,
			LiveMinute: m.LiveMinute,
		})
	}
	return out
}

// encodeMembers writes each member object as stored so fields the engine
// does not model survive every commit.
func encodeMembers(in []competition.Member) []competition.Member {
	if in == nil {
		return []competition.Member{}
	}
	return in
}

// decodeDocument maps a row back to the aggregate. Persisted stats are
// dropped; callers recompute them.
func decodeDocument(row competitionTableModel) (competition.Competition, error) {
	var doc competitionDocument
	if len(row.Document) > 0 {
		if err := sonic.Unmarshal(row.Document, &doc); err != nil {
			return competition.Competition{}, err
		}
	}

	name := doc.Name
	if strings.TrimSpace(name) == "" {
		name = row.Name
	}
	out := competition.Competition{
		ID:       row.PublicID,
		Name:     name,
		Teams:    make([]competition.Team, 0, len(doc.Teams)),
		Fixtures: decodeMatches(doc.Fixtures),
		Results:  decodeMatches(doc.Results),
		Version:  row.Version,
	}
	for _, t := range doc.Teams {
		out.Teams = append(out.Teams, competition.Team{
			ID:       t.ID,
			Name:     t.Name,
			CrestURL: t.CrestURL,
			Players:  decodeMembers(t.Players),
			Staff:    decodeMembers(t.Staff),
		})
	}

	return out, nil
}

func decodeMatches(in []matchDocument) []competition.Match {
	out := make([]competition.Match, 0, len(in))
	for _, m := range in {
		status, ok := competition.ParseStatus(m.Status)
		if !ok {
			// Left as-is so validation reports the document as malformed.
			status = competition.Status(m.Status)
		}
		out = append(out, competition.Match{
			ID:         m.ID,
			Home:       m.TeamA,
			Away:       m.TeamB,
			HomeScore:  m.ScoreA,
			AwayScore:  m.ScoreB,
			Status:     status,
			FullDate:   m.FullDate,
			LiveMinute: m.LiveMinute,
		})
	}
	return out
}

func decodeMembers(in []competition.Member) []competition.Member {
	if len(in) == 0 {
		return nil
	}
	return in
}
