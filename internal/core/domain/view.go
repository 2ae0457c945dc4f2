package domain

import "time"

// A Status is a step of the fetch lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// User-facing messages.
const (
	MsgLoadFailed   = "Failed to load cards. Please try again later."
	MsgSearchFailed = "Failed to search cards. Please try again later."
	MsgNoMatches    = "No cards match your criteria."
)

// A View is everything a presenter observes of a dashboard.
//
// Cards stay populated while a new fetch is pending.
// ErrorMessage and NoMatches are never set together.
type View struct {
	Status        Status           `json:"status"`
	Loading       bool             `json:"loading"`
	Cards         []CardView       `json:"cards"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
	NoMatches     bool             `json:"noMatches"`
	Message       string           `json:"message,omitempty"`
	Criteria      SearchCriteria   `json:"criteria"`
	Ranges        map[string]Range `json:"ranges"`
	AllowedValues AllowedValues    `json:"allowedValues"`
}

// Outcome of a completed fetch, as reported to analytics.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeDiscarded Outcome = "discarded"
)

// A SearchEvent records one completed fetch for analytics.
type SearchEvent struct {
	Username    string
	Query       SearchRequest
	Outcome     Outcome
	FailureKind string // empty unless Outcome is OutcomeFailure
	ResultCount int
	OccurredAt  time.Time
}
