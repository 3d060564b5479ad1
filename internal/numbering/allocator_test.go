package numbering

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstbook-dev/gstbook/internal/id"
)

type failingStore struct{ err error }

func (s failingStore) Next(context.Context, string) (int64, error) { return 0, s.err }

type captureRecorder struct {
	mu     sync.Mutex
	allocs []Allocation
}

func (r *captureRecorder) RecordProvisional(a Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocs = append(r.allocs, a)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAllocate_Sequential(t *testing.T) {
	a := NewAllocator(NewMemoryStore(), nil, zerolog.Nop())
	a.now = fixedClock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))

	first := a.Allocate(context.Background())
	second := a.Allocate(context.Background())

	assert.Equal(t, "01-2025/2026", first.Number)
	assert.Equal(t, "02-2025/2026", second.Number)
	assert.False(t, first.Provisional)
	assert.NoError(t, first.Err)

	s1, _, err := id.ParseInvoiceNumber(first.Number)
	require.NoError(t, err)
	s2, _, err := id.ParseInvoiceNumber(second.Number)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s2-s1)
}

func TestAllocate_ScopedPerFinancialYear(t *testing.T) {
	store := NewMemoryStore()
	a := NewAllocator(store, nil, zerolog.Nop())

	a.now = fixedClock(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "01-2025/2026", a.Allocate(context.Background()).Number)
	assert.Equal(t, "02-2025/2026", a.Allocate(context.Background()).Number)

	a.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026/2027", a.FinancialYear())
	assert.Equal(t, "01-2026/2027", a.Allocate(context.Background()).Number)
}

func TestAllocate_ConcurrentDistinct(t *testing.T) {
	const n = 200
	a := NewAllocator(NewMemoryStore(), nil, zerolog.Nop())

	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			numbers <- a.Allocate(context.Background()).Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestAllocate_StoreDownIsProvisional(t *testing.T) {
	rec := &captureRecorder{}
	a := NewAllocator(failingStore{err: errors.New("dial tcp: connection refused")}, rec, zerolog.Nop())
	a.now = fixedClock(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))

	alloc := a.Allocate(context.Background())
	assert.True(t, alloc.Provisional)
	assert.Equal(t, "01-2025/2026", alloc.Number)

	var unavailable *CounterUnavailableError
	require.True(t, errors.As(alloc.Err, &unavailable))
	assert.Equal(t, "2025/2026", unavailable.FinancialYear)
	assert.Contains(t, unavailable.Error(), "connection refused")

	require.Len(t, rec.allocs, 1)
	assert.Equal(t, alloc.Number, rec.allocs[0].Number)
}

func TestAllocate_NonPositiveCounterIsProvisional(t *testing.T) {
	a := NewAllocator(zeroStore{}, nil, zerolog.Nop())
	alloc := a.Allocate(context.Background())
	assert.True(t, alloc.Provisional)
}

type zeroStore struct{}

func (zeroStore) Next(context.Context, string) (int64, error) { return 0, nil }

func TestRedisStore_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	dir := t.TempDir()
	log := NewProvisionalLog(dir)
	a := NewAllocator(NewRedisStore(rdb, ""), log, zerolog.Nop())
	a.now = fixedClock(time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC))

	alloc := a.Allocate(context.Background())
	assert.True(t, alloc.Provisional)
	assert.Equal(t, "01-2025/2026", alloc.Number)

	logged, err := log.Read()
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "01-2025/2026", logged[0].Number)
	assert.Contains(t, logged[0].Err.Error(), DefaultRedisPrefix+"2025/2026")
}

func TestSQLStore_Sequential(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "gstbook.db"))
	require.NoError(t, err)
	store, err := NewSQLStore(db)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for want := int64(1); want <= 5; want++ {
		got, err := store.Next(ctx, "2025/2026")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := store.Next(ctx, "2026/2027")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "each financial year has its own counter")
}

func TestSQLStore_Concurrent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "gstbook.db"))
	require.NoError(t, err)
	store, err := NewSQLStore(db)
	require.NoError(t, err)
	defer store.Close()

	const n = 40
	a := NewAllocator(store, nil, zerolog.Nop())
	results := make([]Allocation, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Allocate(context.Background())
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, r := range results {
		require.False(t, r.Provisional, "unexpected provisional: %v", r.Err)
		assert.False(t, seen[r.Number], "duplicate %s", r.Number)
		seen[r.Number] = true
	}
	assert.Len(t, seen, n)
}

func TestSQLStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gstbook.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	store, err := NewSQLStore(db)
	require.NoError(t, err)
	_, err = store.Next(ctx, "2025/2026")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	store, err = NewSQLStore(db)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Next(ctx, "2025/2026")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}
