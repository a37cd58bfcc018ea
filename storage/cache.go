package storage

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
)

// Saves is implemented by SaveStore and CachedStore.
type Saves interface {
	LoadSnapshot(ctx context.Context, slot string) (progress.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, slot string, snap progress.Snapshot) error
	DeleteSlot(ctx context.Context, slot string) error
	AppendSummary(ctx context.Context, slot string, day int, sum shop.Summary) (DayRecord, error)
	Summaries(ctx context.Context, slot string, limit uint) ([]DayRecord, error)
}

const (
	snapshotCacheTime = 30 * time.Minute
	cleanupInterval   = 60 * time.Minute
)

// CachedStore serves snapshot loads from memory. Writes go through to the
// underlying store first and only update the cache on success.
type CachedStore struct {
	Saves
	logger *log.Logger
	cache  *cache.Cache
}

func NewCachedStore(logger *log.Logger, saves Saves) *CachedStore {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(saves)
	return &CachedStore{
		Saves:  saves,
		logger: logger,
		cache:  cache.New(snapshotCacheTime, cleanupInterval),
	}
}

func snapshotKey(slot string) string {
	return "snapshot:" + slot
}

func (c *CachedStore) LoadSnapshot(ctx context.Context, slot string) (progress.Snapshot, bool, error) {
	if v, ok := c.cache.Get(snapshotKey(slot)); ok {
		snap, ok := v.(progress.Snapshot)
		assert.Assert(ok, "expected progress.Snapshot in snapshot cache")
		c.logger.Debug("cache hit on snapshot", "slot", slot)
		return snap, true, nil
	}

	snap, found, err := c.Saves.LoadSnapshot(ctx, slot)
	if err != nil || !found {
		return snap, found, err
	}
	c.cache.Set(snapshotKey(slot), snap, cache.DefaultExpiration)
	return snap, true, nil
}

func (c *CachedStore) SaveSnapshot(ctx context.Context, slot string, snap progress.Snapshot) error {
	if err := c.Saves.SaveSnapshot(ctx, slot, snap); err != nil {
		c.cache.Delete(snapshotKey(slot))
		return err
	}
	c.cache.Set(snapshotKey(slot), snap, cache.DefaultExpiration)
	return nil
}

func (c *CachedStore) DeleteSlot(ctx context.Context, slot string) error {
	c.cache.Delete(snapshotKey(slot))
	return c.Saves.DeleteSlot(ctx, slot)
}
