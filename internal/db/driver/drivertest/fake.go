// Package drivertest provides an in-memory driver.Client for tests.
package drivertest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// Client is a scriptable driver.Client. Unset hooks return empty results.
type Client struct {
	EngineKind models.Engine

	ExecuteFunc     func(ctx context.Context, req models.PageRequest, offset, limit int) (*models.ResultPage, error)
	ListTablesFunc  func(ctx context.Context, database string) ([]models.TableRef, error)
	ListColumnsFunc func(ctx context.Context, table models.TableRef) ([]models.Column, error)

	Databases []models.Database

	mu      sync.Mutex
	closed  bool
	calls   []string
	running int
	maxSeen int
}

// Open returns an OpenFunc-compatible function that always hands out c
func (c *Client) Open() func(context.Context, models.ConnectionDescriptor, *slog.Logger) (driver.Client, error) {
	return func(context.Context, models.ConnectionDescriptor, *slog.Logger) (driver.Client, error) {
		return c, nil
	}
}

func (c *Client) record(call string) func() {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.running++
	if c.running > c.maxSeen {
		c.maxSeen = c.running
	}
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.running--
		c.mu.Unlock()
	}
}

// Calls returns the operations issued so far
func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// MaxConcurrent is the highest number of operations that ran at the same time
func (c *Client) MaxConcurrent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSeen
}

// Closed reports whether Close was called
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) Engine() models.Engine {
	if c.EngineKind == "" {
		return models.EngineSQLite
	}
	return c.EngineKind
}

func (c *Client) Ping(ctx context.Context) error {
	defer c.record("ping")()
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) ListDatabases(ctx context.Context) ([]models.Database, error) {
	defer c.record("databases")()
	if c.Databases == nil {
		return []models.Database{{Name: "main"}}, nil
	}
	return c.Databases, nil
}

func (c *Client) ListTables(ctx context.Context, database string) ([]models.TableRef, error) {
	defer c.record("tables:" + database)()
	if c.ListTablesFunc != nil {
		return c.ListTablesFunc(ctx, database)
	}
	return []models.TableRef{}, nil
}

func (c *Client) ListColumns(ctx context.Context, table models.TableRef) ([]models.Column, error) {
	defer c.record("columns:" + table.Name)()
	if c.ListColumnsFunc != nil {
		return c.ListColumnsFunc(ctx, table)
	}
	return []models.Column{}, nil
}

func (c *Client) ListConstraints(ctx context.Context, table models.TableRef) ([]models.Constraint, error) {
	defer c.record("constraints:" + table.Name)()
	return []models.Constraint{}, nil
}

func (c *Client) ListForeignKeys(ctx context.Context, table models.TableRef) ([]models.ForeignKey, error) {
	defer c.record("foreign_keys:" + table.Name)()
	return []models.ForeignKey{}, nil
}

func (c *Client) ListIndexes(ctx context.Context, table models.TableRef) ([]models.Index, error) {
	defer c.record("indexes:" + table.Name)()
	return []models.Index{}, nil
}

func (c *Client) ExecutePaginated(ctx context.Context, req models.PageRequest, offset, limit int) (*models.ResultPage, error) {
	defer c.record("records:" + req.Table.Name)()
	if c.ExecuteFunc != nil {
		return c.ExecuteFunc(ctx, req, offset, limit)
	}
	return &models.ResultPage{Columns: []string{}, Rows: []models.Row{}, Offset: offset}, nil
}

// Page builds a single column integer page holding values from..to-1
func Page(offset, from, to int, hasMore bool) *models.ResultPage {
	page := &models.ResultPage{Columns: []string{"id"}, Offset: offset, HasMore: hasMore, Rows: []models.Row{}}
	for i := from; i < to; i++ {
		page.Rows = append(page.Rows, models.Row{models.IntCell(int64(i))})
	}
	return page
}

var _ driver.Client = (*Client)(nil)
