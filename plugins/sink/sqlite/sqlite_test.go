package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paste2excel/pkg/contract"
)

func newStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "db", "contracts.db")
	}
	s, err := New(&opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendInsertsRows(t *testing.T) {
	s := newStore(t, Options{})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	r1, err := s.Append(ctx, "a.txt", contract.TargetRecord{
		contract.JobNameSlot:     contract.String("Riverside"),
		contract.StateSlot:       contract.String("TX"),
		contract.DateAwardedSlot: contract.Date(2024, time.January, 5),
	})
	require.NoError(t, err)
	r2, err := s.Append(ctx, "b.txt", contract.TargetRecord{
		contract.DateAwardedSlot: contract.Raw("sometime in May"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r1.Row)
	assert.Equal(t, 2, r2.Row)

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "a.txt", rows[0].ContractID)
	assert.Equal(t, "Riverside", rows[0].JobName.String)
	assert.Equal(t, "TX", rows[0].State.String)
	assert.False(t, rows[0].GcName.Valid)
	assert.Equal(t, "2024-01-05", rows[0].DateAwarded.String)
	assert.Equal(t, "date", rows[0].DateAwardedKind.String)
	assert.Equal(t, "2024-05-01T00:00:00Z", rows[0].CreatedAt)

	assert.Equal(t, "sometime in May", rows[1].DateAwarded.String)
	assert.Equal(t, "raw", rows[1].DateAwardedKind.String)
	assert.False(t, rows[1].JobName.Valid)
}

func TestAppendEmptyRecord(t *testing.T) {
	s := newStore(t, Options{Table: "bids"})
	res, err := s.Append(context.Background(), "x", contract.TargetRecord{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Row)
	assert.Empty(t, res.Columns)
	rows, err := s.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].DateAwardedKind.Valid)
}

func TestReopenKeepsRows(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.db")
	s := newStore(t, Options{Path: p})
	_, err := s.Append(context.Background(), "a", contract.TargetRecord{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2 := newStore(t, Options{Path: p})
	res, err := s2.Append(context.Background(), "b", contract.TargetRecord{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Row)
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
	_, err = New(&Options{Path: "x.db", Table: "contracts; DROP TABLE x"})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

func TestCloseWithoutOpen(t *testing.T) {
	s, err := New(&Options{Path: "never.db"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestInsertSQL(t *testing.T) {
	s, err := New(&Options{Path: "x.db"})
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO contracts (contract_id, job_name, gc_name, state, address, architect, contract_price, retainage, date_awarded, date_awarded_kind, created_at) "+
			"VALUES (:contract_id, :job_name, :gc_name, :state, :address, :architect, :contract_price, :retainage, :date_awarded, :date_awarded_kind, :created_at)",
		s.insertSQL())
}
