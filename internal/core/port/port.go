package port

import (
	"context"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
)

type closer interface {
	Close()
}

// CatalogService fetches cards. An empty request means the whole catalog.
type CatalogService interface {
	FetchCards(context.Context, domain.SearchRequest) ([]domain.Card, error)
}

// A Credentials pair is what the user types on the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// An Identity is the authenticated user as returned by [Authenticator].
type Identity struct {
	ID    string
	Email string
	Name  string
}

type Authenticator interface {
	Authenticate(context.Context, Credentials) (Identity, error)
}

type SearchEventsProducer interface {
	ProduceSearchEvent(context.Context, domain.SearchEvent) error
	closer
}

// SearchObserver receives fetch outcomes for metrics.
type SearchObserver interface {
	ObserveFetch(kind string, outcome domain.Outcome, elapsed time.Duration)
}

type SessionManager interface {
	Login(context.Context, Credentials) (token string, err error)
	Logout(token string) error
	Dashboard(token string) (Dashboard, error)
	Identity(token string) (Identity, error)
}

// Dashboard is the per-session filter and result state.
type Dashboard interface {
	View() domain.View
	SetRangeLower(name string, v int) (domain.Range, bool)
	SetRangeUpper(name string, v int) (domain.Range, bool)
	SetSelection(criterion, value string) bool
	SetField(field, raw string) bool
	TogglePreference(name string) bool
	ResetFilters()
	Search() <-chan struct{}
	LoadAll() <-chan struct{}
}
