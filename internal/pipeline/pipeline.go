package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/listing"
	"github.com/couchcryptid/dengue-data-service/internal/observability"
)

var (
	// ErrBusy is returned when an action is attempted while another store call is in flight.
	ErrBusy = errors.New("another store operation is in progress")

	// ErrNotEditing is returned when a draft operation runs with no record under edit.
	ErrNotEditing = errors.New("no record is being edited")
)

// Store is the backing record collection. Implementations wrap their driver
// errors with domain.ErrStoreUnavailable and report missing ids as domain.ErrNotFound.
type Store interface {
	FetchAll(ctx context.Context) ([]domain.CaseRecord, error)
	Create(ctx context.Context, record domain.CaseRecord) (string, error)
	Update(ctx context.Context, id string, record domain.CaseRecord) error
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report connectivity. Readiness
// checks it after the first successful load.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChangePublisher receives an event after every acknowledged mutation.
type ChangePublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// Draft is the record currently under edit: its id and the form fields as typed.
type Draft struct {
	ID    string
	Input domain.RecordInput
}

// Pipeline owns the in-memory record sequence and mediates every store call.
// At most one store call is in flight at a time; the in-memory sequence only
// changes after the store acknowledges a mutation.
type Pipeline struct {
	store     Store
	publisher ChangePublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu      sync.RWMutex
	records []domain.CaseRecord
	draft   *Draft
	lastErr error

	busy  atomic.Bool
	ready atomic.Bool
}

// New creates a Pipeline over store. publisher may be nil to disable the change feed.
func New(store Store, publisher ChangePublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the record set has been loaded at least
// once and, for stores that implement Pinger, the store still answers.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if !p.ready.Load() {
		return errors.New("records have not been loaded yet")
	}
	if pinger, ok := p.store.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return fmt.Errorf("store ping: %w", err)
		}
	}
	return nil
}

// Busy reports whether a store call is in flight.
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

// LastError returns the error from the most recent failed refresh, or nil
// once a later refresh succeeds.
func (p *Pipeline) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Refresh replaces the in-memory sequence with the store's current contents.
// On failure the previous sequence is kept.
func (p *Pipeline) Refresh(ctx context.Context) error {
	var records []domain.CaseRecord
	err := p.call("fetch_all", func() error {
		var err error
		records, err = p.store.FetchAll(ctx)
		return err
	})
	if errors.Is(err, ErrBusy) {
		return err
	}
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.logger.Error("refresh failed, keeping previous records", "error", err)
		return fmt.Errorf("refresh records: %w", err)
	}

	p.mu.Lock()
	p.records = slices.Clone(records)
	p.lastErr = nil
	p.mu.Unlock()

	p.ready.Store(true)
	p.metrics.RecordsLoaded.Set(float64(len(records)))
	p.logger.Info("records refreshed", "count", len(records))
	return nil
}

// Records returns a copy of the current sequence in store order.
func (p *Pipeline) Records() []domain.CaseRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.records)
}

// Listing filters the current sequence by term and returns the requested page.
// A page outside [1, totalPages] yields an empty page and ErrPageOutOfRange.
func (p *Pipeline) Listing(term string, page int) (listing.Page, error) {
	p.mu.RLock()
	out := listing.Build(p.records, term, page)
	p.mu.RUnlock()

	if !out.InRange() {
		return out, fmt.Errorf("page %d of %d: %w", page, out.TotalPages, domain.ErrPageOutOfRange)
	}
	return out, nil
}

// Regions aggregates the full sequence by normalized region. The search term
// never applies here.
func (p *Pipeline) Regions() []domain.RegionAggregate {
	p.mu.RLock()
	aggs := domain.Aggregate(p.records)
	p.mu.RUnlock()

	p.metrics.RegionsAggregated.Set(float64(len(aggs)))
	return aggs
}

// Choropleth classifies every named region. Names with no records map to
// domain.BandNoData.
func (p *Pipeline) Choropleth(names []string) map[string]domain.SeverityBand {
	return domain.ClassifyRegions(domain.FillRegions(p.Regions(), names))
}

// Create validates input and persists it. The record joins the in-memory
// sequence with its store-assigned id only after the store accepts it.
func (p *Pipeline) Create(ctx context.Context, in domain.RecordInput) (domain.CaseRecord, error) {
	record, err := p.parse(in)
	if err != nil {
		return domain.CaseRecord{}, err
	}

	var id string
	err = p.call("create", func() error {
		var err error
		id, err = p.store.Create(ctx, record)
		return err
	})
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("create record: %w", err)
	}
	record.ID = id

	p.mu.Lock()
	p.records = append(p.records, record)
	n := len(p.records)
	p.mu.Unlock()

	p.metrics.RecordsLoaded.Set(float64(n))
	p.logger.Info("record created", "record_id", id, "region", record.Region)
	p.publish(ctx, domain.NewChangeEvent(domain.OpCreated, id, &record))
	return record, nil
}

// BeginEdit copies the record with id into the draft, discarding any previous draft.
func (p *Pipeline) BeginEdit(id string) (Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(id)
	if i < 0 {
		return Draft{}, fmt.Errorf("begin edit %s: %w", id, domain.ErrNotFound)
	}
	p.draft = &Draft{ID: id, Input: p.records[i].Input()}
	return *p.draft, nil
}

// UpdateDraft replaces the draft's form fields.
func (p *Pipeline) UpdateDraft(in domain.RecordInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.draft == nil {
		return ErrNotEditing
	}
	p.draft.Input = in
	return nil
}

// CancelEdit discards the draft without touching the store.
func (p *Pipeline) CancelEdit() {
	p.mu.Lock()
	p.draft = nil
	p.mu.Unlock()
}

// Draft returns the record under edit, if any.
func (p *Pipeline) Draft() (Draft, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.draft == nil {
		return Draft{}, false
	}
	return *p.draft, true
}

// SubmitEdit validates the draft and sends it to the store. On success the
// in-memory record is replaced and the draft cleared; on any failure the
// draft is kept so the user can correct it.
func (p *Pipeline) SubmitEdit(ctx context.Context) (domain.CaseRecord, error) {
	draft, ok := p.Draft()
	if !ok {
		return domain.CaseRecord{}, ErrNotEditing
	}
	return p.update(ctx, draft.ID, draft.Input, true)
}

// Edit updates the record with id from in without going through the shared
// draft. Used by request-scoped callers that submit a whole form at once; an
// interactive draft of the same record is left in place.
func (p *Pipeline) Edit(ctx context.Context, id string, in domain.RecordInput) (domain.CaseRecord, error) {
	p.mu.RLock()
	known := p.indexOf(id) >= 0
	p.mu.RUnlock()
	if !known {
		return domain.CaseRecord{}, fmt.Errorf("edit %s: %w", id, domain.ErrNotFound)
	}
	return p.update(ctx, id, in, false)
}

func (p *Pipeline) update(ctx context.Context, id string, in domain.RecordInput, fromDraft bool) (domain.CaseRecord, error) {
	record, err := p.parse(in)
	if err != nil {
		return domain.CaseRecord{}, err
	}
	record.ID = id

	err = p.call("update", func() error {
		return p.store.Update(ctx, id, record)
	})
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("update record %s: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.records[i] = record
	}
	if fromDraft && p.draft != nil && p.draft.ID == id {
		p.draft = nil
	}
	p.mu.Unlock()

	p.logger.Info("record updated", "record_id", id, "region", record.Region)
	p.publish(ctx, domain.NewChangeEvent(domain.OpUpdated, id, &record))
	return record, nil
}

// Delete removes the record with id from the store, then from the in-memory
// sequence. A draft for the same record is discarded.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	err := p.call("delete", func() error {
		return p.store.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.records = slices.Delete(p.records, i, i+1)
	}
	if p.draft != nil && p.draft.ID == id {
		p.draft = nil
	}
	n := len(p.records)
	p.mu.Unlock()

	p.metrics.RecordsLoaded.Set(float64(n))
	p.logger.Info("record deleted", "record_id", id)
	p.publish(ctx, domain.NewChangeEvent(domain.OpDeleted, id, nil))
	return nil
}

func (p *Pipeline) parse(in domain.RecordInput) (domain.CaseRecord, error) {
	record, err := domain.ParseInput(in)
	if err != nil {
		p.metrics.ValidationErrors.Inc()
		return domain.CaseRecord{}, err
	}
	return record, nil
}

// call runs fn as the single in-flight store call, recording its outcome.
// The state mutex is never held while fn runs.
func (p *Pipeline) call(op string, fn func() error) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.metrics.BusyRejections.Inc()
		return ErrBusy
	}
	defer p.busy.Store(false)

	start := time.Now()
	err := fn()
	p.metrics.StoreCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.StoreCalls.WithLabelValues(op, outcome).Inc()
	return err
}

// publish hands event to the change feed. Failures are logged and counted
// but never fail the mutation that produced the event.
func (p *Pipeline) publish(ctx context.Context, event domain.ChangeEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.metrics.ChangeEvents.WithLabelValues(string(event.Op), "failed").Inc()
		p.logger.Warn("publish change event failed", "error", err, "record_id", event.RecordID, "op", event.Op)
		return
	}
	p.metrics.ChangeEvents.WithLabelValues(string(event.Op), "published").Inc()
}

func (p *Pipeline) indexOf(id string) int {
	return slices.IndexFunc(p.records, func(r domain.CaseRecord) bool { return r.ID == id })
}
