package query

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/storage"
)

// maxCachedResults bounds each result memo. Once full, new results are
// served but not kept until the next invalidation.
const maxCachedResults = 1024

// Cache memoizes read results for one catalog build. Sync drops everything
// when the store reports a different build id.
type Cache struct {
	engine *Engine
	store  *storage.Store
	log    *logger.Logger
	group  singleflight.Group

	mu         sync.RWMutex
	buildID    string
	generation uint64
	entities   map[string]*storage.Entity
	lists      map[string]*Page
	searches   map[string][]storage.Entity
	stats      *storage.Stats
	categories []storage.CategoryCount
}

func NewCache(engine *Engine, store *storage.Store, log *logger.Logger) *Cache {
	c := &Cache{
		engine: engine,
		store:  store,
		log:    log.With("component", "cache"),
	}
	c.reset()
	return c
}

// reset must be called with mu held for writing.
func (c *Cache) reset() {
	c.generation++
	c.entities = make(map[string]*storage.Entity)
	c.lists = make(map[string]*Page)
	c.searches = make(map[string][]storage.Entity)
	c.stats = nil
	c.categories = nil
}

// Sync compares the store's build id with the cached one and invalidates
// every memo when they differ. A store without a build id counts as a build
// of its own.
func (c *Cache) Sync(ctx context.Context) error {
	buildID, err := c.store.Metadata(ctx, storage.MetaBuildID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if buildID == c.buildID {
		return nil
	}
	c.log.Info("catalog build changed, invalidating cache", "previous", c.buildID, "current", buildID)
	c.buildID = buildID
	c.reset()
	return nil
}

// Invalidate drops every memo regardless of build id.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Cache) BuildID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildID
}

func (c *Cache) Get(ctx context.Context, id string) (*storage.Entity, error) {
	c.mu.RLock()
	entity, ok := c.entities[id]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return entity, nil
	}

	v, err := c.fill(ctx, "entity:"+id, func(ctx context.Context) (any, error) {
		return c.engine.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	entity = v.(*storage.Entity)

	c.remember(gen, func() {
		if len(c.entities) < maxCachedResults {
			c.entities[id] = entity
		}
	})
	return entity, nil
}

func (c *Cache) List(ctx context.Context, f Filter) (*Page, error) {
	f = c.engine.limits.Clamp(f)
	key := f.Signature()

	c.mu.RLock()
	page, ok := c.lists[key]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return page, nil
	}

	v, err := c.fill(ctx, "list:"+key, func(ctx context.Context) (any, error) {
		return c.engine.List(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	page = v.(*Page)

	c.remember(gen, func() {
		if len(c.lists) < maxCachedResults {
			c.lists[key] = page
		}
	})
	return page, nil
}

func (c *Cache) Search(ctx context.Context, text string) ([]storage.Entity, error) {
	c.mu.RLock()
	entities, ok := c.searches[text]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return entities, nil
	}

	v, err := c.fill(ctx, "search:"+text, func(ctx context.Context) (any, error) {
		return c.engine.Search(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	entities = v.([]storage.Entity)

	c.remember(gen, func() {
		if len(c.searches) < maxCachedResults {
			c.searches[text] = entities
		}
	})
	return entities, nil
}

func (c *Cache) Stats(ctx context.Context) (*storage.Stats, error) {
	c.mu.RLock()
	stats := c.stats
	gen := c.generation
	c.mu.RUnlock()
	if stats != nil {
		return stats, nil
	}

	v, err := c.fill(ctx, "stats", func(ctx context.Context) (any, error) {
		return c.store.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	stats = v.(*storage.Stats)

	c.remember(gen, func() { c.stats = stats })
	return stats, nil
}

func (c *Cache) Categories(ctx context.Context) ([]storage.CategoryCount, error) {
	c.mu.RLock()
	categories := c.categories
	gen := c.generation
	c.mu.RUnlock()
	if categories != nil {
		return categories, nil
	}

	v, err := c.fill(ctx, "categories", func(ctx context.Context) (any, error) {
		return c.store.Categories(ctx)
	})
	if err != nil {
		return nil, err
	}
	categories = v.([]storage.CategoryCount)

	c.remember(gen, func() { c.categories = categories })
	return categories, nil
}

// fill runs load once per key for all concurrent callers. The shared load
// does not inherit any one caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (c *Cache) fill(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// remember applies a memo write unless the cache was invalidated after the
// value was read.
func (c *Cache) remember(gen uint64, write func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		write()
	}
}
