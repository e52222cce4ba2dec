package competition

import "errors"

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrCompetitionExists   = errors.New("competition already exists")
	ErrMatchNotFound       = errors.New("match not found")
	ErrTeamsNotFound       = errors.New("teams not found")
	ErrInvalidTransition   = errors.New("invalid match status transition")
	ErrContention          = errors.New("competition is being modified concurrently")
	ErrMalformedAggregate  = errors.New("malformed competition aggregate")
	ErrInvalidMatch        = errors.New("invalid match")
	ErrInvalidTeam         = errors.New("invalid team")
	ErrDuplicateTeam       = errors.New("team name already registered")
	ErrNotGhost            = errors.New("name belongs to a registered team")
	ErrInvalidMerge        = errors.New("invalid team merge")
	ErrInvalidMember       = errors.New("invalid roster member")

	// ErrVersionConflict is returned by adapters when a compare-and-swap
	// loses against a concurrent writer. Transactions retry on it.
	ErrVersionConflict = errors.New("competition version conflict")
)
