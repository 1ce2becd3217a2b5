package service

import (
	"context"
	"sort"
	"time"

	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	rowcache "chatcal-api/modules/colorslot/cache"
	"chatcal-api/modules/colorslot/entity"
	"chatcal-api/modules/colorslot/lock"
	"chatcal-api/modules/colorslot/store"
)

// LabelResolver maps a user-supplied text label to its color slot,
// allocating the lowest-numbered empty slot on first sight of a label.
// Guarantees, under arbitrary interleaving of concurrent callers across
// processes: a label always resolves to the same slot, two labels never
// share a slot, and a non-empty label cell is never overwritten.
type LabelResolver interface {
	// Resolve returns the slot id bound to rawLabel, allocating one if
	// needed. A slot id of 0 means "no color": the label was absent or
	// normalized to empty, which is not an error.
	Resolve(ctx context.Context, rawLabel string) (int, *errors.AppError)
}

type labelResolver struct {
	store    store.TabularStore
	cache    rowcache.RowCache
	lock     lock.DistributedLock
	cacheTTL time.Duration
	lockWait time.Duration
}

func NewLabelResolver(st store.TabularStore, rc rowcache.RowCache, lk lock.DistributedLock) LabelResolver {
	return &labelResolver{
		store:    st,
		cache:    rc,
		lock:     lk,
		cacheTTL: constants.RowCacheTTL,
		lockWait: constants.LockWait,
	}
}

func (r *labelResolver) Resolve(ctx context.Context, rawLabel string) (int, *errors.AppError) {
	label := entity.NormalizeLabel(rawLabel)
	if label == "" {
		return 0, nil
	}

	// Fast path: lock-free read through the cache. A stale snapshot is fine
	// here; a hit is a previously-valid binding (labels are never unbound)
	// and a miss just routes into the re-validating slow path.
	rows, hit := r.cache.Get(ctx)
	if !hit {
		var appErr *errors.AppError
		rows, appErr = r.store.ReadAll(ctx)
		if appErr != nil {
			return 0, appErr
		}
		r.cache.Put(ctx, rows, r.cacheTTL)
	}
	if slot, ok := findByLabel(rows, label); ok {
		return slot.SlotID, nil
	}

	// Slow path: allocate under the deployment-wide lock.
	release, appErr := r.lock.TryAcquire(ctx, r.lockWait)
	if appErr != nil {
		logger.Warn("LabelResolver:Resolve:LockFailed", "label", label, "code", appErr.Code)
		return 0, appErr
	}
	defer release(ctx)

	// Re-read directly from the store: between the fast-path scan and lock
	// acquisition another holder may have bound this label or consumed the
	// slot we were about to take.
	r.cache.Invalidate(ctx)
	rows, appErr = r.store.ReadAll(ctx)
	if appErr != nil {
		return 0, appErr
	}

	if slot, ok := findByLabel(rows, label); ok {
		// A concurrent caller won the race for the same label.
		logger.Info("LabelResolver:Resolve:RaceResolved", "label", label, "slot_id", slot.SlotID)
		return slot.SlotID, nil
	}

	empty, ok := firstEmptySlot(rows)
	if !ok {
		logger.Error("LabelResolver:Resolve:NoCapacity", "label", label, "slots", len(rows))
		return 0, errors.NewAppError(errors.ErrNoCapacity,
			"no empty color slot remains; provision more slots", nil)
	}

	if appErr := r.store.WriteLabel(ctx, empty.SlotID, label); appErr != nil {
		return 0, appErr
	}
	r.cache.Invalidate(ctx)

	logger.Info("LabelResolver:Resolve:Allocated", "label", label, "slot_id", empty.SlotID)
	return empty.SlotID, nil
}

// findByLabel scans rows in the table's natural order for an exact
// normalized match.
func findByLabel(rows []entity.ColorSlot, label string) (entity.ColorSlot, bool) {
	for _, row := range rows {
		if entity.NormalizeLabel(row.Label) == label {
			return row, true
		}
	}
	return entity.ColorSlot{}, false
}

// firstEmptySlot returns the unassigned slot with the lowest id, making
// allocation deterministic for a given table snapshot regardless of the
// table's physical row order.
func firstEmptySlot(rows []entity.ColorSlot) (entity.ColorSlot, bool) {
	ordered := make([]entity.ColorSlot, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SlotID < ordered[j].SlotID
	})

	for _, row := range ordered {
		if !row.Assigned() {
			return row, true
		}
	}
	return entity.ColorSlot{}, false
}
