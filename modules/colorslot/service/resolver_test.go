package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/modules/colorslot/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory TabularStore with the same never-overwrite
// guard the real backends enforce.
type fakeStore struct {
	mu       sync.Mutex
	rows     []entity.ColorSlot
	reads    int
	writes   int
	readErr  *errors.AppError
	writeErr *errors.AppError
}

func newFakeStore(rows []entity.ColorSlot) *fakeStore {
	out := make([]entity.ColorSlot, len(rows))
	copy(out, rows)
	return &fakeStore{rows: out}
}

func (s *fakeStore) ReadAll(ctx context.Context) ([]entity.ColorSlot, *errors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]entity.ColorSlot, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *fakeStore) WriteLabel(ctx context.Context, slotID int, label string) *errors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	for i := range s.rows {
		if s.rows[i].SlotID == slotID {
			if s.rows[i].Label != "" {
				return errors.NewAppError(errors.ErrStoreUnavailable, "slot is no longer empty", nil)
			}
			s.rows[i].Label = label
			return nil
		}
	}
	return errors.NewAppError(errors.ErrStoreUnavailable, "no such slot", nil)
}

func (s *fakeStore) snapshot() []entity.ColorSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ColorSlot, len(s.rows))
	copy(out, s.rows)
	return out
}

// fakeRowCache mirrors the redis cache's serialized-snapshot semantics.
type fakeRowCache struct {
	mu       sync.Mutex
	snapshot []byte
}

func (c *fakeRowCache) Get(ctx context.Context) ([]entity.ColorSlot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil, false
	}
	var rows []entity.ColorSlot
	if err := json.Unmarshal(c.snapshot, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *fakeRowCache) Put(ctx context.Context, rows []entity.ColorSlot, ttl time.Duration) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = raw
}

func (c *fakeRowCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}

func (c *fakeRowCache) seed(t *testing.T, rows []entity.ColorSlot) {
	t.Helper()
	raw, err := json.Marshal(rows)
	require.NoError(t, err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = raw
}

// fakeLock provides real in-process mutual exclusion with a wait timeout.
type fakeLock struct {
	ch chan struct{}
}

func newFakeLock() *fakeLock {
	return &fakeLock{ch: make(chan struct{}, 1)}
}

func (l *fakeLock) TryAcquire(ctx context.Context, wait time.Duration) (func(context.Context), *errors.AppError) {
	select {
	case l.ch <- struct{}{}:
		return func(context.Context) { <-l.ch }, nil
	case <-time.After(wait):
		return nil, errors.NewAppError(errors.ErrLockTimeout, "could not acquire allocation lock within timeout", nil)
	case <-ctx.Done():
		return nil, errors.NewAppError(errors.ErrLockTimeout, "context cancelled while waiting for allocation lock", ctx.Err())
	}
}

func newTestResolver(st *fakeStore) (*labelResolver, *fakeRowCache, *fakeLock) {
	rc := &fakeRowCache{}
	lk := newFakeLock()
	return &labelResolver{
		store:    st,
		cache:    rc,
		lock:     lk,
		cacheTTL: constants.RowCacheTTL,
		lockWait: 2 * time.Second,
	}, rc, lk
}

func slots(pairs ...any) []entity.ColorSlot {
	var out []entity.ColorSlot
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, entity.ColorSlot{
			SlotID:     pairs[i].(int),
			Label:      pairs[i+1].(string),
			Background: "#a4bdfc",
			Foreground: "#1d1d1d",
		})
	}
	return out
}

func TestResolveEmptyLabelMeansNoColor(t *testing.T) {
	st := newFakeStore(slots(1, ""))
	r, _, _ := newTestResolver(st)

	for _, raw := range []string{"", "   ", "#", " # "} {
		slotID, appErr := r.Resolve(context.Background(), raw)
		require.Nil(t, appErr, "raw=%q", raw)
		assert.Equal(t, 0, slotID, "raw=%q", raw)
	}
	assert.Equal(t, 0, st.reads, "no-label resolution must not touch the store")
}

func TestResolveIdempotentAcrossSpellings(t *testing.T) {
	st := newFakeStore(slots(1, "Acme", 2, ""))
	r, rc, _ := newTestResolver(st)

	spellings := []string{"Acme", "#Acme", "  Acme  ", " #Acme "}

	// Cache-miss path.
	for _, raw := range spellings {
		slotID, appErr := r.Resolve(context.Background(), raw)
		require.Nil(t, appErr)
		assert.Equal(t, 1, slotID, "raw=%q", raw)
	}

	// Cache-hit path.
	_, hit := rc.Get(context.Background())
	require.True(t, hit, "first resolve should have populated the cache")
	reads := st.reads
	for _, raw := range spellings {
		slotID, appErr := r.Resolve(context.Background(), raw)
		require.Nil(t, appErr)
		assert.Equal(t, 1, slotID, "raw=%q", raw)
	}
	assert.Equal(t, reads, st.reads, "cache hits must not re-read the store")
	assert.Equal(t, 0, st.writes)
}

func TestResolveMatchesLabelStoredWithMarker(t *testing.T) {
	// An operator may have typed the marker into the sheet by hand.
	st := newFakeStore(slots(1, "#Acme", 2, ""))
	r, _, _ := newTestResolver(st)

	slotID, appErr := r.Resolve(context.Background(), "Acme")
	require.Nil(t, appErr)
	assert.Equal(t, 1, slotID)
	assert.Equal(t, 0, st.writes)
}

func TestResolveAllocatesLowestEmptySlot(t *testing.T) {
	// Natural table order deliberately shuffled; allocation order is by id.
	st := newFakeStore(slots(5, "", 3, "", 2, "Taken", 7, ""))
	r, rc, _ := newTestResolver(st)

	slotID, appErr := r.Resolve(context.Background(), "NewClient")
	require.Nil(t, appErr)
	assert.Equal(t, 3, slotID)

	// Independent of cache state: a stale cache routes into the slow path,
	// which re-reads before allocating.
	rc.seed(t, slots(5, "", 3, "", 2, "Taken", 7, ""))
	slotID, appErr = r.Resolve(context.Background(), "OtherClient")
	require.Nil(t, appErr)
	assert.Equal(t, 5, slotID)
}

func TestResolveNoDuplicateBindings(t *testing.T) {
	st := newFakeStore(slots(1, "", 2, "", 3, ""))
	r, _, _ := newTestResolver(st)

	seen := map[int]string{}
	for _, label := range []string{"Alpha", "Beta", "Gamma"} {
		slotID, appErr := r.Resolve(context.Background(), label)
		require.Nil(t, appErr)
		prev, dup := seen[slotID]
		require.False(t, dup, "slot %d bound to both %q and %q", slotID, prev, label)
		seen[slotID] = label
	}
}

func TestResolveNeverRewritesABinding(t *testing.T) {
	st := newFakeStore(slots(1, "", 2, ""))
	r, rc, _ := newTestResolver(st)

	slotID, appErr := r.Resolve(context.Background(), "Acme")
	require.Nil(t, appErr)
	require.Equal(t, 1, slotID)
	require.Equal(t, 1, st.writes)

	// Repeated resolution, with and without a cache, never writes again.
	for i := 0; i < 3; i++ {
		rc.Invalidate(context.Background())
		got, appErr := r.Resolve(context.Background(), "#Acme")
		require.Nil(t, appErr)
		assert.Equal(t, 1, got)
	}
	assert.Equal(t, 1, st.writes)
	assert.Equal(t, "Acme", st.snapshot()[0].Label)
}

func TestResolveCapacityExhausted(t *testing.T) {
	st := newFakeStore(slots(1, "A", 2, "B"))
	r, _, _ := newTestResolver(st)
	before := st.snapshot()

	slotID, appErr := r.Resolve(context.Background(), "Newcomer")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNoCapacity, appErr.Code)
	assert.False(t, errors.IsRetryable(appErr))
	assert.Equal(t, 0, slotID)
	assert.Equal(t, 0, st.writes)
	assert.Equal(t, before, st.snapshot(), "exhaustion must leave the table unmodified")
}

func TestResolveConcurrentSameLabel(t *testing.T) {
	st := newFakeStore(slots(1, ""))
	r, _, _ := newTestResolver(st)

	const callers = 8
	results := make([]int, callers)
	errs := make([]*errors.AppError, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), "NewClient")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.Nil(t, errs[i])
		assert.Equal(t, 1, results[i])
	}
	assert.Equal(t, 1, st.writes, "exactly one caller may write the binding")
	assert.Equal(t, "NewClient", st.snapshot()[0].Label)
}

func TestResolveConcurrentDistinctLabels(t *testing.T) {
	st := newFakeStore(slots(1, "", 2, "", 3, "", 4, ""))
	r, _, _ := newTestResolver(st)

	labels := []string{"One", "Two", "Three", "Four"}
	results := make([]int, len(labels))
	errs := make([]*errors.AppError, len(labels))
	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), label)
		}(i, label)
	}
	wg.Wait()

	seen := map[int]bool{}
	for i, slotID := range results {
		require.Nil(t, errs[i])
		require.False(t, seen[slotID], "two labels collided on slot %d", slotID)
		seen[slotID] = true
	}
	assert.Equal(t, len(labels), st.writes)
}

func TestResolveStaleCacheStillConsistent(t *testing.T) {
	// The store already has Acme bound to slot 2, but this instance holds a
	// pre-allocation snapshot. The fast-path miss must route into the
	// lock-protected re-read and must not attempt a second write.
	st := newFakeStore(slots(1, "", 2, "Acme"))
	r, rc, _ := newTestResolver(st)
	rc.seed(t, slots(1, "", 2, ""))

	slotID, appErr := r.Resolve(context.Background(), "Acme")
	require.Nil(t, appErr)
	assert.Equal(t, 2, slotID)
	assert.Equal(t, 0, st.writes)
}

func TestResolveLockTimeout(t *testing.T) {
	st := newFakeStore(slots(1, ""))
	r, _, lk := newTestResolver(st)
	r.lockWait = 50 * time.Millisecond

	// Another holder wedges the lock.
	release, appErr := lk.TryAcquire(context.Background(), time.Second)
	require.Nil(t, appErr)
	defer release(context.Background())

	slotID, appErr := r.Resolve(context.Background(), "Blocked")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrLockTimeout, appErr.Code)
	assert.True(t, errors.IsRetryable(appErr))
	assert.Equal(t, 0, slotID)
	assert.Equal(t, 0, st.writes)
}

func TestResolveStoreFailureReleasesLock(t *testing.T) {
	st := newFakeStore(slots(1, "Bound", 2, ""))
	r, rc, lk := newTestResolver(st)

	// Fast path hits the warm cache and misses the label; the re-read under
	// the lock then fails.
	rc.seed(t, slots(1, "Bound", 2, ""))
	st.readErr = errors.NewAppError(errors.ErrStoreUnavailable, "boom", nil)

	_, appErr := r.Resolve(context.Background(), "Another")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrStoreUnavailable, appErr.Code)
	assert.Equal(t, 0, st.writes)

	// The lock must have been released despite the failure.
	release, lockErr := lk.TryAcquire(context.Background(), 100*time.Millisecond)
	require.Nil(t, lockErr, "lock was not released after a store failure")
	release(context.Background())
}

func TestResolveConfigurationErrorPropagates(t *testing.T) {
	st := newFakeStore(nil)
	st.readErr = errors.NewAppError(errors.ErrConfiguration, "missing columns", nil)
	r, _, _ := newTestResolver(st)

	_, appErr := r.Resolve(context.Background(), "Anything")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConfiguration, appErr.Code)
	assert.False(t, errors.IsRetryable(appErr))
}
