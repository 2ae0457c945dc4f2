package service_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	cardX = domain.Card{
		ID: "x", Bank: "Chase", Name: "Sapphire Preferred", Type: "Travel",
		AnnualFee: "$95", APR: "21.49%-28.49%",
		CreditScore: domain.Requirement{Min: 700, Notes: "Good to excellent"},
		MinIncome:   &domain.Requirement{Min: 50000, Notes: "Recommended"},
	}
	cardY = domain.Card{
		ID: "y", Bank: "Amex", Name: "Blue Cash", Type: "Cash Back",
		AnnualFee: "$0", APR: "19.24%-29.99%",
		CreditScore: domain.Requirement{Min: 670, Notes: "Good"},
	}
	cardZ = domain.Card{
		ID: "z", Bank: "Chase", Name: "Freedom", Type: "Cash Back",
		CreditScore: domain.Requirement{Min: 690},
	}
)

func newTestDashboard(
	catalog *MockCatalog, obs *recordingObserver,
) *service.Dashboard {
	cfg := service.DashboardConfig{Username: "jane@example.com", Catalog: catalog}
	if obs != nil {
		cfg.Observer = obs
	}
	return service.NewDashboard(cfg)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete")
	}
}

func TestDashboardLoadAll(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
		Return([]domain.Card{cardX, cardY}, nil)

	d := newTestDashboard(catalog, nil)
	defer d.Close()

	assert.Equal(t, domain.StatusIdle, d.View().Status)

	waitDone(t, d.LoadAll())

	v := d.View()
	assert.Equal(t, domain.StatusSuccess, v.Status)
	assert.False(t, v.Loading)
	assert.Empty(t, v.ErrorMessage)
	assert.False(t, v.NoMatches)
	require.Len(t, v.Cards, 2)
	assert.Equal(t, "x", v.Cards[0].ID)
	assert.Equal(t, "y", v.Cards[1].ID)
	assert.Equal(t, []string{"Amex", "Chase"}, v.AllowedValues.Banks)
	assert.Equal(t, []string{"Cash Back", "Travel"}, v.AllowedValues.Types)
	catalog.AssertExpectations(t)
}

func TestDashboardSearch(t *testing.T) {
	t.Run("SendsSnapshotQuery", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything,
			domain.SearchRequest{"minCreditScore": "700"},
		).Return([]domain.Card{cardX}, nil)

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		d.SetField(domain.FieldMinCreditScore, "700")
		waitDone(t, d.Search())

		v := d.View()
		assert.Equal(t, domain.StatusSuccess, v.Status)
		require.Len(t, v.Cards, 1)
		catalog.AssertExpectations(t)
	})

	t.Run("InvalidInputOmittedWithoutError", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
			Return([]domain.Card{cardX}, nil)

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		d.SetField(domain.FieldMinCreditScore, "abc")
		assert.True(t, d.Query().Empty())
		waitDone(t, d.Search())

		v := d.View()
		assert.Equal(t, domain.StatusSuccess, v.Status)
		assert.Empty(t, v.ErrorMessage)
		catalog.AssertExpectations(t)
	})

	t.Run("NoMatches", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything, mock.Anything).
			Return([]domain.Card{}, nil)

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		waitDone(t, d.Search())

		v := d.View()
		assert.True(t, v.NoMatches)
		assert.Equal(t, domain.MsgNoMatches, v.Message)
		assert.Empty(t, v.ErrorMessage)
	})

	t.Run("Idempotent", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything, mock.Anything).
			Return([]domain.Card{cardX, cardZ}, nil)

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		waitDone(t, d.Search())
		first := d.View()
		waitDone(t, d.Search())
		assert.Equal(t, first, d.View())
		catalog.AssertNumberOfCalls(t, "FetchCards", 2)
	})
}

func TestDashboardFailure(t *testing.T) {
	statusErr := fmt.Errorf("catalog: status 500: %w", domain.ErrServiceStatus)
	transportErr := fmt.Errorf("catalog: dial tcp: %w", domain.ErrTransport)

	for name, fetchErr := range map[string]error{
		"ServiceStatus": statusErr,
		"Transport":     transportErr,
	} {
		t.Run(name, func(t *testing.T) {
			catalog := new(MockCatalog)
			catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
				Return([]domain.Card{cardX, cardY}, nil).Once()
			catalog.On("FetchCards", mock.Anything,
				domain.SearchRequest{"minIncome": "40000"},
			).Return(nil, fetchErr).Once()

			obs := new(recordingObserver)
			d := newTestDashboard(catalog, obs)
			defer d.Close()

			waitDone(t, d.LoadAll())
			d.SetField(domain.FieldMinIncome, "40000")
			waitDone(t, d.Search())

			v := d.View()
			assert.Equal(t, domain.StatusFailure, v.Status)
			assert.False(t, v.Loading)
			assert.Empty(t, v.Cards)
			assert.Equal(t, domain.MsgSearchFailed, v.ErrorMessage)
			assert.Equal(t, domain.MsgSearchFailed, v.Message)
			assert.False(t, v.NoMatches)

			assert.Equal(t, []observation{
				{"load", domain.OutcomeSuccess},
				{"search", domain.OutcomeFailure},
			}, obs.outcomes())
		})
	}

	t.Run("LoadMessage", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything, mock.Anything).
			Return(nil, errors.New("boom"))

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		waitDone(t, d.LoadAll())
		assert.Equal(t, domain.MsgLoadFailed, d.View().ErrorMessage)
	})

	t.Run("RetryAfterFailure", func(t *testing.T) {
		catalog := new(MockCatalog)
		catalog.On("FetchCards", mock.Anything, mock.Anything).
			Return(nil, statusErr).Once()
		catalog.On("FetchCards", mock.Anything, mock.Anything).
			Return([]domain.Card{cardY}, nil).Once()

		d := newTestDashboard(catalog, nil)
		defer d.Close()

		waitDone(t, d.Search())
		require.Equal(t, domain.StatusFailure, d.View().Status)

		waitDone(t, d.Search())
		v := d.View()
		assert.Equal(t, domain.StatusSuccess, v.Status)
		assert.Empty(t, v.ErrorMessage)
		assert.Len(t, v.Cards, 1)
	})
}

func TestDashboardPending(t *testing.T) {
	release := make(chan time.Time)

	catalog := new(MockCatalog)
	catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
		Return([]domain.Card{cardX, cardY}, nil).Once()
	catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
		Return([]domain.Card{cardZ}, nil).WaitUntil(release).Once()

	d := newTestDashboard(catalog, nil)
	defer d.Close()

	waitDone(t, d.LoadAll())
	done := d.Search()

	v := d.View()
	assert.Equal(t, domain.StatusPending, v.Status)
	assert.True(t, v.Loading)
	assert.Len(t, v.Cards, 2, "previous results stay visible while loading")
	assert.Empty(t, v.ErrorMessage)

	close(release)
	waitDone(t, done)

	v = d.View()
	assert.False(t, v.Loading)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "z", v.Cards[0].ID)
}

type catalogFunc func(context.Context, domain.SearchRequest) ([]domain.Card, error)

func (f catalogFunc) FetchCards(
	ctx context.Context, req domain.SearchRequest,
) ([]domain.Card, error) {
	return f(ctx, req)
}

func TestDashboardConcurrentTriggersApplyLatestFilters(t *testing.T) {
	// every response names the query it answers
	echo := catalogFunc(func(
		_ context.Context, req domain.SearchRequest,
	) ([]domain.Card, error) {
		return []domain.Card{{ID: req.Encode(), Bank: "Chase"}}, nil
	})

	d := service.NewDashboard(service.DashboardConfig{
		Username: "jane@example.com", Catalog: echo,
	})
	defer d.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pending []<-chan struct{}
	)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.SetField(domain.FieldMaxAnnualFee, strconv.Itoa(i))
			done := d.Search()
			mu.Lock()
			pending = append(pending, done)
			mu.Unlock()
		}()
	}
	wg.Wait()
	for _, done := range pending {
		waitDone(t, done)
	}

	v := d.View()
	require.Equal(t, domain.StatusSuccess, v.Status)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, d.Query().Encode(), v.Cards[0].ID)
}

func TestDashboardStaleResponseDiscarded(t *testing.T) {
	releaseA := make(chan time.Time)

	catalog := new(MockCatalog)
	catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
		Return([]domain.Card{cardX, cardY}, nil).Once()
	catalog.On("FetchCards", mock.Anything, domain.SearchRequest{}).
		Return([]domain.Card{cardX, cardY}, nil).WaitUntil(releaseA).Once()
	catalog.On("FetchCards", mock.Anything,
		domain.SearchRequest{"bank": "Chase"},
	).Return([]domain.Card{cardZ}, nil)

	obs := new(recordingObserver)
	d := newTestDashboard(catalog, obs)
	defer d.Close()

	waitDone(t, d.LoadAll())

	doneA := d.LoadAll()

	require.True(t, d.SetSelection(domain.SelectionBank, "Chase"))
	doneB := d.Search()
	waitDone(t, doneB)

	close(releaseA)
	waitDone(t, doneA)

	v := d.View()
	assert.Equal(t, domain.StatusSuccess, v.Status)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "z", v.Cards[0].ID)
	assert.Contains(t, obs.outcomes(), observation{"load", domain.OutcomeDiscarded})
}

func TestDashboardClose(t *testing.T) {
	entered := make(chan struct{})
	d := service.NewDashboard(service.DashboardConfig{
		Username: "jane@example.com",
		Catalog:  lateCatalog{cards: []domain.Card{cardX}, entered: entered},
	})

	done := d.LoadAll()
	<-entered

	d.Close()
	waitDone(t, done)

	v := d.View()
	assert.Empty(t, v.Cards)
	assert.NotEqual(t, domain.StatusSuccess, v.Status)

	t.Run("TriggerAfterClose", func(t *testing.T) {
		waitDone(t, d.Search())
		assert.Empty(t, d.View().Cards)
	})

	t.Run("CloseTwice", func(t *testing.T) {
		assert.NotPanics(t, d.Close)
	})
}

func TestDashboardEvents(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("FetchCards", mock.Anything, mock.Anything).
		Return([]domain.Card{cardX, cardZ}, nil)

	events := new(MockEventsProducer)
	events.On("ProduceSearchEvent", mock.Anything,
		mock.MatchedBy(func(e domain.SearchEvent) bool {
			return e.Username == "jane@example.com" &&
				e.Outcome == domain.OutcomeSuccess &&
				e.ResultCount == 2 &&
				e.Query["maxAnnualFee"] == "$95"
		}),
	).Return(errors.New("broker down"))

	d := service.NewDashboard(service.DashboardConfig{
		Username: "jane@example.com",
		Catalog:  catalog,
		Events:   events,
	})
	defer d.Close()

	d.SetField(domain.FieldMaxAnnualFee, "95")
	waitDone(t, d.Search())

	assert.Equal(t, domain.StatusSuccess, d.View().Status,
		"event failures never reach the view")
	events.AssertExpectations(t)
}

func TestDashboardRanges(t *testing.T) {
	d := newTestDashboard(new(MockCatalog), nil)
	defer d.Close()

	_, ok := d.SetRangeUpper(domain.RangeSalary, 100000)
	require.True(t, ok)

	r, ok := d.SetRangeLower(domain.RangeSalary, 150000)
	assert.False(t, ok)
	assert.LessOrEqual(t, r.Min, r.Max)

	v := d.View()
	assert.Equal(t, 100000, v.Ranges[domain.RangeSalary].Max)
	assert.Equal(t, 20000, v.Ranges[domain.RangeSalary].Min)

	d.ResetFilters()
	assert.Equal(t, domain.DefaultRanges(), d.View().Ranges)
}
