package competition

import "strings"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusSuspended Status = "suspended"
	StatusPostponed Status = "postponed"
	StatusCancelled Status = "cancelled"
	StatusAbandoned Status = "abandoned"
	StatusCompleted Status = "completed"
)

var transitions = map[Status]map[Status]struct{}{
	StatusScheduled: {StatusLive: {}, StatusPostponed: {}, StatusCancelled: {}},
	StatusLive:      {StatusSuspended: {}, StatusCompleted: {}, StatusAbandoned: {}},
	StatusSuspended: {StatusLive: {}, StatusAbandoned: {}, StatusCompleted: {}},
}

// statusAliases accepts the spellings used by data providers and older
// admin forms.
var statusAliases = map[string]Status{
	"scheduled": StatusScheduled,
	"upcoming":  StatusScheduled,
	"ns":        StatusScheduled,
	"live":      StatusLive,
	"in_play":   StatusLive,
	"inplay":    StatusLive,
	"suspended": StatusSuspended,
	"postponed": StatusPostponed,
	"cancelled": StatusCancelled,
	"canceled":  StatusCancelled,
	"abandoned": StatusAbandoned,
	"completed": StatusCompleted,
	"finished":  StatusCompleted,
	"ft":        StatusCompleted,
}

func ParseStatus(v string) (Status, bool) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(v))]
	return s, ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusSuspended, StatusPostponed,
		StatusCancelled, StatusAbandoned, StatusCompleted:
		return true
	default:
		return false
	}
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusAbandoned:
		return true
	default:
		return false
	}
}

func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}
