package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/observability"
	"github.com/couchcryptid/dengue-data-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct {
	mu        sync.Mutex
	records   []domain.CaseRecord
	nextID    int
	fetchErr  error
	createErr error
	updateErr error
	deleteErr error
	calls     []string

	// block, when set, holds every call until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (m *mockStore) enter(op string) {
	m.mu.Lock()
	m.calls = append(m.calls, op)
	m.mu.Unlock()
	if m.block != nil {
		m.entered <- struct{}{}
		<-m.block
	}
}

func (m *mockStore) FetchAll(_ context.Context) ([]domain.CaseRecord, error) {
	m.enter("fetch_all")
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]domain.CaseRecord(nil), m.records...), nil
}

func (m *mockStore) Create(_ context.Context, r domain.CaseRecord) (string, error) {
	m.enter("create")
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	return fmt.Sprintf("new-%d", m.nextID), nil
}

func (m *mockStore) Update(_ context.Context, _ string, _ domain.CaseRecord) error {
	m.enter("update")
	return m.updateErr
}

func (m *mockStore) Delete(_ context.Context, _ string) error {
	m.enter("delete")
	return m.deleteErr
}

func (m *mockStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

type mockPublisher struct {
	events []domain.ChangeEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.ChangeEvent) error {
	m.events = append(m.events, e)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenarioRecords() []domain.CaseRecord {
	return []domain.CaseRecord{
		{ID: "a", Location: "Manila", Region: "NCR", Cases: 120, Deaths: 2, ReportDate: "2024-07-01"},
		{ID: "b", Location: "Cebu City", Region: "Region VII", Cases: 30, Deaths: 0, ReportDate: "2024-07-01"},
	}
}

func validInput() domain.RecordInput {
	return domain.RecordInput{Location: "Davao", Region: "Region XI", Cases: "12", Deaths: "1", ReportDate: "2024-07-02"}
}

// newLoaded returns a pipeline that has refreshed the scenario records once.
func newLoaded(t *testing.T) (*pipeline.Pipeline, *mockStore, *mockPublisher, *observability.Metrics) {
	t.Helper()
	store := &mockStore{records: scenarioRecords()}
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(store, pub, discardLogger(), metrics)
	require.NoError(t, p.Refresh(context.Background()))
	return p, store, pub, metrics
}

// --- refresh and reads ---

func TestPipeline_Refresh(t *testing.T) {
	store := &mockStore{records: scenarioRecords()}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(store, nil, discardLogger(), metrics)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, scenarioRecords(), p.Records())
	assert.NoError(t, p.LastError())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StoreCalls.WithLabelValues("fetch_all", "success")), 0)
}

type pingingStore struct {
	*mockStore
	pingErr error
}

func (s *pingingStore) Ping(_ context.Context) error { return s.pingErr }

func TestPipeline_CheckReadiness_PingsStore(t *testing.T) {
	store := &pingingStore{mockStore: &mockStore{records: scenarioRecords()}}
	p := pipeline.New(store, nil, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Refresh(context.Background()))
	require.NoError(t, p.CheckReadiness(context.Background()))

	store.pingErr = fmt.Errorf("ping: %w", domain.ErrStoreUnavailable)
	err := p.CheckReadiness(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, scenarioRecords(), p.Records())
}

func TestPipeline_Refresh_FailureKeepsPreviousRecords(t *testing.T) {
	p, store, _, metrics := newLoaded(t)
	store.fetchErr = fmt.Errorf("fetch: %w", domain.ErrStoreUnavailable)

	err := p.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, scenarioRecords(), p.Records())
	require.ErrorIs(t, p.LastError(), domain.ErrStoreUnavailable)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StoreCalls.WithLabelValues("fetch_all", "error")), 0)

	store.fetchErr = nil
	require.NoError(t, p.Refresh(context.Background()))
	assert.NoError(t, p.LastError())
}

func TestPipeline_RecordsReturnsCopy(t *testing.T) {
	p, _, _, _ := newLoaded(t)
	got := p.Records()
	got[0].Cases = 9999
	assert.Equal(t, 120, p.Records()[0].Cases)
}

func TestPipeline_Listing(t *testing.T) {
	p, _, _, _ := newLoaded(t)

	page, err := p.Listing("", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, scenarioRecords(), page.Records)

	page, err = p.Listing("cebu", 1)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "b", page.Records[0].ID)

	page, err = p.Listing("", 2)
	require.ErrorIs(t, err, domain.ErrPageOutOfRange)
	assert.Empty(t, page.Records)
}

func TestPipeline_RegionsAndChoropleth(t *testing.T) {
	p, _, _, metrics := newLoaded(t)

	want := []domain.RegionAggregate{
		{Region: "NCR", TotalCases: 120, TotalDeaths: 2},
		{Region: "REGION VII", TotalCases: 30, TotalDeaths: 0},
	}
	if diff := cmp.Diff(want, p.Regions()); diff != "" {
		t.Errorf("Regions() mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RegionsAggregated), 0)

	bands := p.Choropleth([]string{"ncr", "Region VII", "CAR"})
	assert.Equal(t, map[string]domain.SeverityBand{
		"NCR":        domain.BandOver100,
		"REGION VII": domain.BandOver10,
		"CAR":        domain.BandNoData,
	}, bands)
}

// --- create ---

func TestPipeline_Create(t *testing.T) {
	p, _, pub, _ := newLoaded(t)

	rec, err := p.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "new-1", rec.ID)
	assert.Equal(t, 12, rec.Cases)

	records := p.Records()
	require.Len(t, records, 3)
	assert.Equal(t, rec, records[2])

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.OpCreated, pub.events[0].Op)
	assert.Equal(t, "new-1", pub.events[0].RecordID)
}

func TestPipeline_Create_ValidationRejectedSkipsStore(t *testing.T) {
	p, store, pub, metrics := newLoaded(t)
	in := validInput()
	in.Cases = "-3"

	_, err := p.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrValidationRejected)
	assert.Zero(t, store.callCount("create"))
	assert.Len(t, p.Records(), 2)
	assert.Empty(t, pub.events)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ValidationErrors), 0)
}

func TestPipeline_Create_StoreFailureLeavesSequence(t *testing.T) {
	p, store, pub, _ := newLoaded(t)
	store.createErr = fmt.Errorf("insert: %w", domain.ErrStoreUnavailable)

	_, err := p.Create(context.Background(), validInput())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, scenarioRecords(), p.Records())
	assert.Empty(t, pub.events)
}

// --- edit ---

func TestPipeline_SubmitEdit(t *testing.T) {
	p, _, pub, _ := newLoaded(t)

	draft, err := p.BeginEdit("a")
	require.NoError(t, err)
	assert.Equal(t, "120", draft.Input.Cases)

	in := draft.Input
	in.Cases = "6000"
	require.NoError(t, p.UpdateDraft(in))

	rec, err := p.SubmitEdit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", rec.ID)
	assert.Equal(t, 6000, rec.Cases)
	assert.Equal(t, 6000, p.Records()[0].Cases)

	_, editing := p.Draft()
	assert.False(t, editing)
	assert.Equal(t, domain.BandOver5000, p.Choropleth([]string{"NCR"})["NCR"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.OpUpdated, pub.events[0].Op)
}

func TestPipeline_SubmitEdit_StoreFailurePreservesDraft(t *testing.T) {
	p, store, pub, _ := newLoaded(t)
	store.updateErr = fmt.Errorf("update: %w", domain.ErrStoreUnavailable)

	draft, err := p.BeginEdit("a")
	require.NoError(t, err)
	draft.Input.Cases = "6000"
	require.NoError(t, p.UpdateDraft(draft.Input))

	_, err = p.SubmitEdit(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	kept, editing := p.Draft()
	require.True(t, editing)
	assert.Equal(t, "6000", kept.Input.Cases)
	assert.Equal(t, scenarioRecords(), p.Records())
	assert.Empty(t, pub.events)
}

func TestPipeline_SubmitEdit_NotFound(t *testing.T) {
	p, store, _, _ := newLoaded(t)
	store.updateErr = fmt.Errorf("update: %w", domain.ErrNotFound)

	_, err := p.BeginEdit("b")
	require.NoError(t, err)

	_, err = p.SubmitEdit(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, editing := p.Draft()
	assert.True(t, editing)
}

func TestPipeline_SubmitEdit_InvalidDraftSkipsStore(t *testing.T) {
	p, store, _, _ := newLoaded(t)

	draft, err := p.BeginEdit("a")
	require.NoError(t, err)
	draft.Input.ReportDate = "yesterday"
	require.NoError(t, p.UpdateDraft(draft.Input))

	_, err = p.SubmitEdit(context.Background())
	require.ErrorIs(t, err, domain.ErrValidationRejected)
	assert.Zero(t, store.callCount("update"))

	kept, editing := p.Draft()
	require.True(t, editing)
	assert.Equal(t, "yesterday", kept.Input.ReportDate)
}

func TestPipeline_DraftLifecycle(t *testing.T) {
	p, _, _, _ := newLoaded(t)

	_, err := p.SubmitEdit(context.Background())
	require.ErrorIs(t, err, pipeline.ErrNotEditing)
	require.ErrorIs(t, p.UpdateDraft(validInput()), pipeline.ErrNotEditing)

	_, err = p.BeginEdit("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = p.BeginEdit("a")
	require.NoError(t, err)
	_, err = p.BeginEdit("b")
	require.NoError(t, err)

	draft, editing := p.Draft()
	require.True(t, editing)
	assert.Equal(t, "b", draft.ID)

	p.CancelEdit()
	_, editing = p.Draft()
	assert.False(t, editing)
}

func TestPipeline_Edit(t *testing.T) {
	p, _, _, _ := newLoaded(t)

	_, err := p.Edit(context.Background(), "missing", validInput())
	require.ErrorIs(t, err, domain.ErrNotFound)

	rec, err := p.Edit(context.Background(), "b", validInput())
	require.NoError(t, err)
	assert.Equal(t, "b", rec.ID)
	assert.Equal(t, "Davao", p.Records()[1].Location)
}

func TestPipeline_Edit_KeepsInteractiveDraft(t *testing.T) {
	p, _, _, _ := newLoaded(t)

	before, err := p.BeginEdit("a")
	require.NoError(t, err)

	_, err = p.Edit(context.Background(), "a", validInput())
	require.NoError(t, err)

	draft, editing := p.Draft()
	require.True(t, editing)
	assert.Equal(t, before, draft)
}

// --- delete ---

func TestPipeline_Delete(t *testing.T) {
	p, _, pub, _ := newLoaded(t)

	_, err := p.BeginEdit("a")
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), "a"))

	records := p.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)

	_, editing := p.Draft()
	assert.False(t, editing)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.OpDeleted, pub.events[0].Op)
	assert.Nil(t, pub.events[0].Record)
}

func TestPipeline_Delete_FailureLeavesSequence(t *testing.T) {
	p, store, _, _ := newLoaded(t)
	store.deleteErr = fmt.Errorf("delete: %w", domain.ErrNotFound)

	err := p.Delete(context.Background(), "a")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, scenarioRecords(), p.Records())
}

// --- concurrency and change feed ---

func TestPipeline_BusyRejectsConcurrentCall(t *testing.T) {
	p, store, _, metrics := newLoaded(t)
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- p.Delete(context.Background(), "a")
	}()

	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("store call never started")
	}
	assert.True(t, p.Busy())

	require.ErrorIs(t, p.Refresh(context.Background()), pipeline.ErrBusy)
	_, err := p.Create(context.Background(), validInput())
	require.ErrorIs(t, err, pipeline.ErrBusy)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.BusyRejections), 0)

	// Reads never wait on the store.
	assert.Len(t, p.Records(), 2)

	close(store.block)
	require.NoError(t, <-done)
	assert.False(t, p.Busy())
	assert.Len(t, p.Records(), 1)
}

func TestPipeline_PublishFailureDoesNotFailMutation(t *testing.T) {
	store := &mockStore{records: scenarioRecords()}
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(store, pub, discardLogger(), metrics)
	require.NoError(t, p.Refresh(context.Background()))

	_, err := p.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Len(t, p.Records(), 3)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChangeEvents.WithLabelValues("created", "failed")), 0)
}
