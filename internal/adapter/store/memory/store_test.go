package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

func manila() domain.CaseRecord {
	return domain.CaseRecord{Location: "Manila", Region: "NCR", Cases: 120, Deaths: 2, ReportDate: "2024-07-01"}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, manila())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	cebu := domain.CaseRecord{Location: "Cebu City", Region: "Region VII", Cases: 30, ReportDate: "2024-07-01"}
	id2, err := s.Create(ctx, cebu)
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, id2, all[1].ID)

	updated := manila()
	updated.Cases = 150
	require.NoError(t, s.Update(ctx, id, updated))

	all, err = s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, all[0].Cases)
	assert.Equal(t, id, all[0].ID)

	require.NoError(t, s.Delete(ctx, id))
	all, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id2, all[0].ID)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.ErrorIs(t, s.Update(ctx, "missing", manila()), domain.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "missing"), domain.ErrNotFound)
}

func TestStore_RejectsInvalidRecord(t *testing.T) {
	s := New()
	bad := manila()
	bad.Cases = -1

	_, err := s.Create(context.Background(), bad)
	require.ErrorIs(t, err, domain.ErrValidationRejected)
}

func TestStore_Seed(t *testing.T) {
	seeded := manila()
	seeded.ID = "fixed"
	s := New(seeded, manila())

	all, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fixed", all[0].ID)
	assert.NotEmpty(t, all[1].ID)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().FetchAll(ctx)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
