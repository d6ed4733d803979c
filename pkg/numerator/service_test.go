package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRow implements pgx.Row returning a fixed value.
type mockRow struct {
	value int64
	err   error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.value
	}
	return nil
}

// mockQuerier records the last query and returns canned rows.
type mockQuerier struct {
	lastSQL  string
	lastArgs []any
	row      *mockRow
}

func (q *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func TestNext(t *testing.T) {
	q := &mockQuerier{row: &mockRow{value: 42}}
	s := New(q)

	value, err := s.Next(context.Background(), "QT_2025-08")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
	assert.Contains(t, q.lastSQL, "ON CONFLICT (key) DO UPDATE")
	assert.Equal(t, []any{"QT_2025-08"}, q.lastArgs)
}

func TestNextMonthly(t *testing.T) {
	period := time.Date(2025, time.August, 15, 10, 0, 0, 0, time.UTC)

	t.Run("formats period and padded counter", func(t *testing.T) {
		q := &mockQuerier{row: &mockRow{value: 1}}
		s := New(q)

		number, err := s.NextMonthly(context.Background(), "QT", period)
		require.NoError(t, err)
		assert.Equal(t, "2025-08-0001", number)
		assert.Equal(t, []any{"QT_2025-08"}, q.lastArgs)
	})

	t.Run("counter above 9999 widens", func(t *testing.T) {
		q := &mockQuerier{row: &mockRow{value: 10001}}
		s := New(q)

		number, err := s.NextMonthly(context.Background(), "QT", period)
		require.NoError(t, err)
		assert.Equal(t, "2025-08-10001", number)
	})

	t.Run("different months use different keys", func(t *testing.T) {
		q := &mockQuerier{row: &mockRow{value: 7}}
		s := New(q)

		number, err := s.NextMonthly(context.Background(), "QT",
			time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "2025-09-0007", number)
		assert.Equal(t, []any{"QT_2025-09"}, q.lastArgs)
	})
}
