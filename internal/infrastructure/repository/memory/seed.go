package memory

import "github.com/riskibarqy/competition-engine/internal/domain/competition"

const CompetitionIDPremierLeague = "swz-premier-league-2025"

// SeedCompetitions returns a small league with one ghost spelling and one
// duplicate fixture so integrity tooling has something to report in dev.
func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{
			ID:   CompetitionIDPremierLeague,
			Name: "Eswatini Premier League 2025/2026",
			Teams: []competition.Team{
				{ID: 1, Name: "Mbabane Highlanders"},
				{ID: 2, Name: "Mbabane Swallows FC"},
				{ID: 3, Name: "Manzini Wanderers"},
				{ID: 4, Name: "Royal Leopards"},
			},
			Fixtures: []competition.Match{
				{ID: "swz-2025-05", Home: "Royal Leopards", Away: "Mbabane Highlanders", Status: competition.StatusScheduled, FullDate: "2025-09-20T15:00:00Z"},
				{ID: "swz-2025-06", Home: "Manzini Wanderers", Away: "Swallows", Status: competition.StatusScheduled, FullDate: "2025-09-21T15:00:00Z"},
				{ID: "swz-2025-06b", Home: "Manzini Wanderers FC", Away: "Swallows", Status: competition.StatusScheduled, FullDate: "2025-09-21T15:00:00Z"},
			},
			Results: []competition.Match{
				{ID: "swz-2025-01", Home: "Mbabane Highlandes", Away: "Manzini Wanderers", HomeScore: competition.IntPtr(2), AwayScore: competition.IntPtr(0), Status: competition.StatusCompleted, FullDate: "2025-08-23T15:00:00Z"},
				{ID: "swz-2025-02", Home: "Swallows", Away: "Royal Leopards", HomeScore: competition.IntPtr(1), AwayScore: competition.IntPtr(1), Status: competition.StatusCompleted, FullDate: "2025-08-24T15:00:00Z"},
				{ID: "swz-2025-03", Home: "Royal Leopards", Away: "Manzini Wanderers", HomeScore: competition.IntPtr(3), AwayScore: competition.IntPtr(1), Status: competition.StatusCompleted, FullDate: "2025-08-30T15:00:00Z"},
				{ID: "swz-2025-04", Home: "Mbabane Highlanders", Away: "Mbabane Swallows", HomeScore: competition.IntPtr(0), AwayScore: competition.IntPtr(0), Status: competition.StatusCompleted, FullDate: "2025-08-31T15:00:00Z"},
			},
			Version: 1,
		},
	}
}
