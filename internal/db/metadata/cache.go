// Package metadata caches introspected catalog snapshots per connection.
//
// Every entry is immutable. Writers build a new snapshot and publish it with an
// atomic pointer swap, so readers never lock and never observe a half-built
// SchemaObject.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// Runner runs fn with exclusive use of a connection's client
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context, client driver.Client) error) error
}

type catalog struct {
	databases []models.Database
	tables    map[string]*models.SchemaObject
}

type snapshot map[string]*catalog

// Cache holds catalog snapshots keyed by connection id
type Cache struct {
	state       atomic.Pointer[snapshot]
	mu          sync.Mutex // serializes writers
	generations map[string]uint64
	group       singleflight.Group
}

// NewCache creates an empty cache
func NewCache() *Cache {
	c := &Cache{generations: make(map[string]uint64)}
	empty := snapshot{}
	c.state.Store(&empty)
	return c
}

func (c *Cache) load(conn string) *catalog {
	return (*c.state.Load())[conn]
}

// Databases returns the cached database and table list of a connection
func (c *Cache) Databases(conn string) ([]models.Database, bool) {
	cat := c.load(conn)
	if cat == nil || cat.databases == nil {
		return nil, false
	}
	return cat.databases, true
}

// Schema returns the cached snapshot of one table
func (c *Cache) Schema(conn string, table models.TableRef) (*models.SchemaObject, bool) {
	cat := c.load(conn)
	if cat == nil {
		return nil, false
	}
	obj, ok := cat.tables[table.Key()]
	return obj, ok
}

// Evict drops everything cached for a connection. Loads that started before
// the eviction do not repopulate it.
func (c *Cache) Evict(conn string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[conn]++
	next := c.copyState()
	delete(next, conn)
	c.state.Store(&next)
}

func (c *Cache) generation(conn string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[conn]
}

// copyState returns a shallow copy of the published snapshot; callers hold mu
func (c *Cache) copyState() snapshot {
	current := *c.state.Load()
	next := make(snapshot, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	return next
}

// update publishes a modified copy of a connection's catalog unless it was
// evicted after gen was read. It reports whether the write was published.
func (c *Cache) update(conn string, gen uint64, mutate func(cat *catalog)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[conn] != gen {
		return false
	}
	next := c.copyState()
	cat := &catalog{tables: map[string]*models.SchemaObject{}}
	if old := next[conn]; old != nil {
		cat.databases = old.databases
		for k, v := range old.tables {
			cat.tables[k] = v
		}
	}
	mutate(cat)
	next[conn] = cat
	c.state.Store(&next)
	return true
}

// LoadCatalog lists databases and their tables, caching the result
func (c *Cache) LoadCatalog(ctx context.Context, conn string, r Runner) ([]models.Database, error) {
	if dbs, ok := c.Databases(conn); ok {
		return dbs, nil
	}
	gen := c.generation(conn)

	v, err := c.do(ctx, fmt.Sprintf("%s|%d|catalog", conn, gen), func() (any, error) {
		var databases []models.Database
		err := r.Do(ctx, func(ctx context.Context, client driver.Client) error {
			dbs, err := client.ListDatabases(ctx)
			if err != nil {
				return err
			}
			for _, db := range dbs {
				tables, err := client.ListTables(ctx, db.Name)
				if err != nil {
					return err
				}
				databases = append(databases, models.Database{Name: db.Name, Tables: tables})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if databases == nil {
			databases = []models.Database{}
		}
		c.update(conn, gen, func(cat *catalog) { cat.databases = databases })
		return databases, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Database), nil
}

// LoadSection introspects the section of table shown by tab unless it is cached.
// Failures are returned as *driver.SchemaIntrospectionError.
func (c *Cache) LoadSection(ctx context.Context, conn string, r Runner, table models.TableRef, tab models.Tab) (*models.SchemaObject, error) {
	if obj, ok := c.Schema(conn, table); ok && obj.Has(tab) {
		return obj, nil
	}
	gen := c.generation(conn)

	key := fmt.Sprintf("%s|%d|%s|%s", conn, gen, table.Key(), tab.Slug())
	v, err := c.do(ctx, key, func() (any, error) {
		var fetched models.SchemaObject
		err := r.Do(ctx, func(ctx context.Context, client driver.Client) error {
			return fetchSection(ctx, client, table, tab, &fetched)
		})
		if err != nil {
			return nil, introspectionError(table, tab, err)
		}

		var result *models.SchemaObject
		published := c.update(conn, gen, func(cat *catalog) {
			obj := &models.SchemaObject{Table: table}
			if old := cat.tables[table.Key()]; old != nil {
				*obj = *old
			}
			mergeSection(obj, &fetched, tab)
			cat.tables[table.Key()] = obj
			result = obj
		})
		if !published {
			obj := &models.SchemaObject{Table: table}
			mergeSection(obj, &fetched, tab)
			result = obj
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SchemaObject), nil
}

// do runs fn through the singleflight group. A caller that joined a load
// whose leader was canceled runs the load again under its own context.
func (c *Cache) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	for attempt := 0; ; attempt++ {
		v, err, shared := c.group.Do(key, fn)
		if err != nil && shared && attempt < maxJoinRetries && ctx.Err() == nil && errors.Is(err, context.Canceled) {
			continue
		}
		return v, err
	}
}

const maxJoinRetries = 2

func fetchSection(ctx context.Context, client driver.Client, table models.TableRef, tab models.Tab, into *models.SchemaObject) error {
	var err error
	switch tab {
	case models.TabColumns:
		into.Columns, err = client.ListColumns(ctx, table)
	case models.TabConstraints:
		into.Constraints, err = client.ListConstraints(ctx, table)
	case models.TabForeignKeys:
		into.ForeignKeys, err = client.ListForeignKeys(ctx, table)
	case models.TabIndexes:
		into.Indexes, err = client.ListIndexes(ctx, table)
	default:
		return fmt.Errorf("tab %s has no catalog section", tab)
	}
	return err
}

// mergeSection copies one section into dst; a nil result from the driver is
// stored as empty so the section counts as loaded
func mergeSection(dst, src *models.SchemaObject, tab models.Tab) {
	switch tab {
	case models.TabColumns:
		dst.Columns = nonNil(src.Columns)
	case models.TabConstraints:
		dst.Constraints = nonNil(src.Constraints)
	case models.TabForeignKeys:
		dst.ForeignKeys = nonNil(src.ForeignKeys)
	case models.TabIndexes:
		dst.Indexes = nonNil(src.Indexes)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func introspectionError(table models.TableRef, tab models.Tab, err error) error {
	var qe *driver.QueryError
	if !errors.As(err, &qe) {
		kind := driver.QueryOther
		switch {
		case errors.Is(err, context.Canceled):
			kind = driver.QueryCanceled
		case errors.Is(err, context.DeadlineExceeded):
			kind = driver.QueryTimeout
		}
		qe = &driver.QueryError{Kind: kind, Op: "introspect " + tab.Slug(), Err: err}
	}
	return &driver.SchemaIntrospectionError{Tab: tab, Table: table, Err: qe}
}
