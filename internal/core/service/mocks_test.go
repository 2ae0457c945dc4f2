package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FetchCards(
	ctx context.Context, req domain.SearchRequest,
) ([]domain.Card, error) {
	args := m.Called(ctx, req)
	cards, _ := args.Get(0).([]domain.Card)
	return cards, args.Error(1)
}

type MockEventsProducer struct {
	mock.Mock
}

func (m *MockEventsProducer) ProduceSearchEvent(
	ctx context.Context, evt domain.SearchEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockEventsProducer) Close() {
	m.Called()
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(
	ctx context.Context, cr port.Credentials,
) (port.Identity, error) {
	args := m.Called(ctx, cr)
	return args.Get(0).(port.Identity), args.Error(1)
}

type observation struct {
	kind    string
	outcome domain.Outcome
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) ObserveFetch(
	kind string, outcome domain.Outcome, _ time.Duration,
) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{kind, outcome})
}

func (o *recordingObserver) outcomes() []observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observation(nil), o.obs...)
}

// lateCatalog answers only after its context is cancelled, like a response
// that arrives after the view went away.
type lateCatalog struct {
	cards   []domain.Card
	entered chan struct{}
}

func (c lateCatalog) FetchCards(
	ctx context.Context, _ domain.SearchRequest,
) ([]domain.Card, error) {
	close(c.entered)
	<-ctx.Done()
	return c.cards, nil
}
