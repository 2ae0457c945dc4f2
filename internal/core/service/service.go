package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
)

var _ port.SessionManager = (*Service)(nil)

// A session is the explicit login state: it exists from a successful
// authentication until logout, and owns exactly one dashboard.
type session struct {
	identity  port.Identity
	dashboard *Dashboard
	lastSeen  time.Time
}

type ServiceOpt func(*Service)

// IdleTTLOpt ends sessions that were not used for d. Zero keeps them
// until logout.
func IdleTTLOpt(d time.Duration) ServiceOpt {
	return func(s *Service) {
		s.idleTTL = d
	}
}

// ClockOpt replaces time.Now for session bookkeeping.
func ClockOpt(now func() time.Time) ServiceOpt {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	auth      port.Authenticator
	catalog   port.CatalogService
	events    port.SearchEventsProducer
	observer  port.SearchObserver
	queryOpts QueryOptions
	validate  *validator.Validate
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func New(
	auth port.Authenticator,
	catalog port.CatalogService,
	events port.SearchEventsProducer,
	observer port.SearchObserver,
	queryOpts QueryOptions,
	opts ...ServiceOpt,
) *Service {
	s := &Service{
		auth:      auth,
		catalog:   catalog,
		events:    events,
		observer:  observer,
		queryOpts: queryOpts,
		validate:  validator.New(),
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates the user, opens a dashboard and starts the initial
// unfiltered load. It returns the session token.
func (s *Service) Login(ctx context.Context, cr port.Credentials) (string, error) {
	const op = "Service.Login"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.validate.Struct(cr); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidCredentials, err)
	}

	identity, err := s.auth.Authenticate(ctx, cr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	d := NewDashboard(DashboardConfig{
		Username: identity.Email,
		Catalog:  s.catalog,
		Events:   s.events,
		Observer: s.observer,
		Query:    s.queryOpts,
	})

	token := uuid.NewString()

	s.mu.Lock()
	s.sessions[token] = &session{
		identity: identity, dashboard: d, lastSeen: s.now(),
	}
	s.mu.Unlock()

	d.LoadAll()

	log.Info("session opened", "user", identity.Email)
	return token, nil
}

// Logout ends the session and its dashboard.
func (s *Service) Logout(token string) error {
	const op = "Service.Logout"

	s.mu.Lock()
	ss, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	}

	ss.dashboard.Close()
	slog.Info("session closed", "op", op, "user", ss.identity.Email)
	return nil
}

func (s *Service) Dashboard(token string) (port.Dashboard, error) {
	const op = "Service.Dashboard"

	ss, err := s.touch(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ss.dashboard, nil
}

// Identity returns the user the session was opened for.
func (s *Service) Identity(token string) (port.Identity, error) {
	const op = "Service.Identity"

	ss, err := s.touch(token)
	if err != nil {
		return port.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	return ss.identity, nil
}

func (s *Service) touch(token string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	ss.lastSeen = s.now()
	return ss, nil
}

// ExpireIdle ends the sessions not used for longer than the idle TTL and
// returns how many were ended.
func (s *Service) ExpireIdle() int {
	const op = "Service.ExpireIdle"

	if s.idleTTL <= 0 {
		return 0
	}

	deadline := s.now().Add(-s.idleTTL)

	var expired []*session
	s.mu.Lock()
	for token, ss := range s.sessions {
		if ss.lastSeen.Before(deadline) {
			expired = append(expired, ss)
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	for _, ss := range expired {
		ss.dashboard.Close()
		slog.Info("session expired", "op", op, "user", ss.identity.Email)
	}
	return len(expired)
}

// RunExpiry calls ExpireIdle every half of the idle TTL, but not more
// often than once a second, until ctx is done.
func (s *Service) RunExpiry(ctx context.Context) {
	if s.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(max(s.idleTTL/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle()
		}
	}
}

// Close ends every open session.
func (s *Service) Close() {
	const op = "Service.Close"
	log := slog.With("op", op)

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	log.Info("closing sessions...", "nSessions", len(sessions))
	for _, ss := range sessions {
		ss.dashboard.Close()
	}
	log.Info("sessions are closed")
}
