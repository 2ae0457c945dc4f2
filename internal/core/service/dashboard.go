package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
)

var _ port.Dashboard = (*Dashboard)(nil)

const (
	fetchKindLoad   = "load"
	fetchKindSearch = "search"

	eventPublishTimeout = 3 * time.Second
)

type DashboardConfig struct {
	Username string
	Catalog  port.CatalogService
	// Events and Observer are optional.
	Events   port.SearchEventsProducer
	Observer port.SearchObserver
	Query    QueryOptions
}

// A Dashboard is one view scope: the filter state of a session and the
// result of its latest fetch.
//
// Every trigger takes a new sequence token. A response is applied only if
// its token is still the latest and the dashboard is not closed, so a slow
// earlier response never overwrites a newer one.
type Dashboard struct {
	username  string
	catalog   port.CatalogService
	events    port.SearchEventsProducer
	observer  port.SearchObserver
	queryOpts QueryOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	closed         bool
	seq            uint64
	cancelInflight context.CancelFunc
	filters        *Filters
	status         domain.Status
	cards          []domain.Card
	errMsg         string
}

func NewDashboard(cfg DashboardConfig) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		username:  cfg.Username,
		catalog:   cfg.Catalog,
		events:    cfg.Events,
		observer:  cfg.Observer,
		queryOpts: cfg.Query,
		ctx:       ctx,
		cancel:    cancel,
		filters:   NewFilters(),
		status:    domain.StatusIdle,
	}
}

// LoadAll fetches the unfiltered catalog.
//
// The returned channel is closed once the response is applied or discarded.
func (d *Dashboard) LoadAll() <-chan struct{} {
	return d.fetch(fetchKindLoad, domain.MsgLoadFailed, func() domain.SearchRequest {
		return domain.SearchRequest{}
	})
}

// Search fetches the cards matching the current filter snapshot.
func (d *Dashboard) Search() <-chan struct{} {
	return d.fetch(fetchKindSearch, domain.MsgSearchFailed, d.buildQuery)
}

// buildQuery must be called with d.mu held.
func (d *Dashboard) buildQuery() domain.SearchRequest {
	return BuildQuery(d.filters.Snapshot(), d.queryOpts)
}

// Query returns the request a search would send right now.
func (d *Dashboard) Query() domain.SearchRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buildQuery()
}

// fetch takes the sequence token and builds the request under one lock,
// so a later token always carries a snapshot at least as new.
func (d *Dashboard) fetch(
	kind string, failMsg string, build func() domain.SearchRequest,
) <-chan struct{} {
	done := make(chan struct{})

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		close(done)
		return done
	}

	d.seq++
	token := d.seq
	req := build()

	if d.cancelInflight != nil {
		d.cancelInflight()
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancelInflight = cancel

	d.status = domain.StatusPending
	d.errMsg = ""
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer close(done)
		defer cancel()
		d.run(ctx, token, kind, req, failMsg)
	}()

	return done
}

func (d *Dashboard) run(
	ctx context.Context,
	token uint64,
	kind string,
	req domain.SearchRequest,
	failMsg string,
) {
	const op = "Dashboard.run"
	log := slog.With(
		"op", op, "user", d.username, "kind", kind,
		"seq", token, "query", req.Encode(),
	)

	start := time.Now()
	cards, err := d.catalog.FetchCards(ctx, req)
	elapsed := time.Since(start)

	outcome := d.apply(token, cards, err, failMsg)

	switch outcome {
	case domain.OutcomeDiscarded:
		log.Debug("stale response discarded", "err", err)
	case domain.OutcomeFailure:
		log.Error("failed to fetch cards",
			"failure", domain.FailureKind(err), "err", err)
	default:
		log.Info("cards fetched", "nCards", len(cards), "elapsed", elapsed)
	}

	if d.observer != nil {
		d.observer.ObserveFetch(kind, outcome, elapsed)
	}

	if outcome != domain.OutcomeDiscarded {
		d.publish(req, outcome, len(cards), err)
	}
}

// apply moves the lifecycle to Success or Failure, unless the response
// is stale or the view is gone.
func (d *Dashboard) apply(
	token uint64, cards []domain.Card, err error, failMsg string,
) domain.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || token != d.seq {
		return domain.OutcomeDiscarded
	}

	if err != nil {
		d.status = domain.StatusFailure
		d.cards = nil
		d.errMsg = failMsg
		return domain.OutcomeFailure
	}

	d.status = domain.StatusSuccess
	d.cards = cards
	d.errMsg = ""
	d.filters.PopulateAllowedValues(cards)
	return domain.OutcomeSuccess
}

func (d *Dashboard) publish(
	req domain.SearchRequest, outcome domain.Outcome, n int, fetchErr error,
) {
	const op = "Dashboard.publish"

	if d.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()

	evt := domain.SearchEvent{
		Username:    d.username,
		Query:       req,
		Outcome:     outcome,
		ResultCount: n,
		OccurredAt:  time.Now(),
	}
	if outcome == domain.OutcomeFailure {
		evt.FailureKind = domain.FailureKind(fetchErr)
	}
	if err := d.events.ProduceSearchEvent(ctx, evt); err != nil {
		slog.Warn("failed to publish search event", "op", op, "err", err)
	}
}

func (d *Dashboard) View() domain.View {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := domain.View{
		Status:        d.status,
		Loading:       d.status == domain.StatusPending,
		Cards:         domain.CardViews(d.cards),
		ErrorMessage:  d.errMsg,
		Criteria:      d.filters.Snapshot(),
		Ranges:        d.filters.Ranges(),
		AllowedValues: d.filters.AllowedValues(),
	}

	switch {
	case d.status == domain.StatusFailure:
		v.Message = d.errMsg
	case d.status == domain.StatusSuccess && len(d.cards) == 0:
		v.NoMatches = true
		v.Message = domain.MsgNoMatches
	}
	return v
}

func (d *Dashboard) SetRangeLower(name string, v int) (domain.Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.SetRangeLower(name, v)
}

func (d *Dashboard) SetRangeUpper(name string, v int) (domain.Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.SetRangeUpper(name, v)
}

func (d *Dashboard) SetSelection(criterion, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.SetSelection(criterion, value)
}

func (d *Dashboard) SetField(field, raw string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.SetField(field, raw)
}

func (d *Dashboard) TogglePreference(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.ToggleBooleanPreference(name)
}

func (d *Dashboard) ResetFilters() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters.Reset()
}

// Close ends the view scope. In-flight fetches are cancelled and their
// responses discarded. Close blocks until they return.
func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.cancel()
	d.mu.Unlock()

	d.wg.Wait()
}
