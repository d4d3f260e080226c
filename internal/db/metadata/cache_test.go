package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/db/driver/drivertest"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// direct runs statements without a connection slot
type direct struct {
	client driver.Client
	mu     sync.Mutex
}

func (d *direct) Do(ctx context.Context, fn func(ctx context.Context, client driver.Client) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(ctx, d.client)
}

var users = models.TableRef{Database: "main", Name: "users"}

func TestLoadCatalogCachesDatabasesAndTables(t *testing.T) {
	client := &drivertest.Client{
		ListTablesFunc: func(ctx context.Context, database string) ([]models.TableRef, error) {
			return []models.TableRef{users}, nil
		},
	}
	cache := NewCache()

	dbs, err := cache.LoadCatalog(context.Background(), "c1", &direct{client: client})
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, []models.TableRef{users}, dbs[0].Tables)

	_, err = cache.LoadCatalog(context.Background(), "c1", &direct{client: client})
	require.NoError(t, err)
	assert.Equal(t, []string{"databases", "tables:main"}, client.Calls())
}

func TestLoadSectionOnlyFetchesOnce(t *testing.T) {
	client := &drivertest.Client{
		ListColumnsFunc: func(ctx context.Context, table models.TableRef) ([]models.Column, error) {
			return []models.Column{{Name: "id", PrimaryKey: true}}, nil
		},
	}
	cache := NewCache()
	r := &direct{client: client}

	obj, err := cache.LoadSection(context.Background(), "c1", r, users, models.TabColumns)
	require.NoError(t, err)
	assert.Len(t, obj.Columns, 1)
	assert.False(t, obj.Has(models.TabIndexes))

	again, err := cache.LoadSection(context.Background(), "c1", r, users, models.TabColumns)
	require.NoError(t, err)
	assert.Same(t, obj, again)
	assert.Equal(t, []string{"columns:users"}, client.Calls())
}

func TestLoadSectionPublishesNewSnapshot(t *testing.T) {
	cache := NewCache()
	r := &direct{client: &drivertest.Client{}}

	columns, err := cache.LoadSection(context.Background(), "c1", r, users, models.TabColumns)
	require.NoError(t, err)
	indexes, err := cache.LoadSection(context.Background(), "c1", r, users, models.TabIndexes)
	require.NoError(t, err)

	assert.NotSame(t, columns, indexes)
	assert.False(t, columns.Has(models.TabIndexes), "published snapshots must not change")
	assert.True(t, indexes.Has(models.TabColumns))
	assert.True(t, indexes.Has(models.TabIndexes))
	assert.NotNil(t, indexes.Indexes)
}

func TestEvictDropsConnectionOnly(t *testing.T) {
	cache := NewCache()
	r := &direct{client: &drivertest.Client{}}

	_, err := cache.LoadSection(context.Background(), "c1", r, users, models.TabColumns)
	require.NoError(t, err)
	_, err = cache.LoadSection(context.Background(), "c2", r, users, models.TabColumns)
	require.NoError(t, err)

	cache.Evict("c1")

	_, ok := cache.Schema("c1", users)
	assert.False(t, ok)
	_, ok = cache.Schema("c2", users)
	assert.True(t, ok)
}

func TestLoadStartedBeforeEvictIsNotCached(t *testing.T) {
	cache := NewCache()
	release := make(chan struct{})
	started := make(chan struct{})
	client := &drivertest.Client{
		ListColumnsFunc: func(ctx context.Context, table models.TableRef) ([]models.Column, error) {
			close(started)
			<-release
			return []models.Column{{Name: "id"}}, nil
		},
	}

	done := make(chan error, 1)
	go func() {
		_, err := cache.LoadSection(context.Background(), "c1", &direct{client: client}, users, models.TabColumns)
		done <- err
	}()
	<-started
	cache.Evict("c1")
	close(release)

	require.NoError(t, <-done)
	_, ok := cache.Schema("c1", users)
	assert.False(t, ok)
}

func TestLoadSectionErrorIsScopedToTab(t *testing.T) {
	denied := &driver.QueryError{Kind: driver.QueryPermission, Op: "list columns", Err: errors.New("denied")}
	client := &drivertest.Client{
		ListColumnsFunc: func(ctx context.Context, table models.TableRef) ([]models.Column, error) {
			return nil, denied
		},
	}
	cache := NewCache()

	_, err := cache.LoadSection(context.Background(), "c1", &direct{client: client}, users, models.TabColumns)

	var sie *driver.SchemaIntrospectionError
	require.True(t, errors.As(err, &sie))
	assert.Equal(t, models.TabColumns, sie.Tab)
	assert.Equal(t, driver.QueryPermission, sie.Err.Kind)

	obj, err := cache.LoadSection(context.Background(), "c1", &direct{client: client}, users, models.TabIndexes)
	require.NoError(t, err)
	assert.True(t, obj.Has(models.TabIndexes))
}

func TestJoinedLoadSurvivesCanceledLeader(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	client := &drivertest.Client{
		ListColumnsFunc: func(ctx context.Context, table models.TableRef) ([]models.Column, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				time.Sleep(100 * time.Millisecond)
				return nil, ctx.Err()
			}
			return []models.Column{{Name: "id"}}, nil
		},
	}
	cache := NewCache()
	r := &direct{client: client}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := cache.LoadSection(leaderCtx, "c1", r, users, models.TabColumns)
		leader <- err
	}()
	<-started

	joined := make(chan error, 1)
	var obj *models.SchemaObject
	go func() {
		var err error
		obj, err = cache.LoadSection(context.Background(), "c1", r, users, models.TabColumns)
		joined <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leader, context.Canceled)
	require.NoError(t, <-joined)
	require.NotNil(t, obj)
	assert.Len(t, obj.Columns, 1)
}
