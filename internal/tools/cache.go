package tools

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const (
	fossilCacheSize = 32
	fossilCacheTTL  = 30 * time.Second
)

// fossilCache keeps recently served snapshots so repeated context pulls do
// not hit the database. Entries expire after thirty seconds and are dropped
// eagerly when a reindex lands a newer version.
type fossilCache struct {
	lru *expirable.LRU[string, *store.Fossil]
}

func newFossilCache() *fossilCache {
	return &fossilCache{
		lru: expirable.NewLRU[string, *store.Fossil](fossilCacheSize, nil, fossilCacheTTL),
	}
}

func (c *fossilCache) get(project string) (*store.Fossil, bool) {
	return c.lru.Get(project)
}

func (c *fossilCache) add(project string, fossil *store.Fossil) {
	c.lru.Add(project, fossil)
}

func (c *fossilCache) invalidate(project string) {
	c.lru.Remove(project)
}

// latestFossil returns the project's newest snapshot, consulting the cache
// first. store.ErrNotFound passes through untouched.
func (d *Deps) latestFossil(ctx context.Context, project *store.Project) (*store.Fossil, error) {
	cache := d.cache()
	if fossil, ok := cache.get(project.Name); ok {
		telemetry.RecordSnapshotLookup(true)
		return fossil, nil
	}
	fossil, err := d.Store.LatestFossil(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	telemetry.RecordSnapshotLookup(false)
	cache.add(project.Name, fossil)
	return fossil, nil
}
