// Package query runs database work in the background and reports results
// tagged with per-view sequence numbers.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rebeliceyang/lazydb/internal/db/connection"
	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/db/metadata"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// Kind selects the work a Request performs
type Kind int

const (
	KindConnect Kind = iota
	KindCatalog
	KindRecords
	KindColumns
	KindConstraints
	KindForeignKeys
	KindIndexes
	KindDisconnect
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindCatalog:
		return "catalog"
	case KindRecords:
		return "records"
	case KindColumns:
		return "columns"
	case KindConstraints:
		return "constraints"
	case KindForeignKeys:
		return "foreign_keys"
	case KindIndexes:
		return "indexes"
	case KindDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// KindForTab returns the request kind that loads tab
func KindForTab(tab models.Tab) Kind {
	switch tab {
	case models.TabColumns:
		return KindColumns
	case models.TabConstraints:
		return KindConstraints
	case models.TabForeignKeys:
		return KindForeignKeys
	case models.TabIndexes:
		return KindIndexes
	default:
		return KindRecords
	}
}

func (k Kind) tab() models.Tab {
	switch k {
	case KindColumns:
		return models.TabColumns
	case KindConstraints:
		return models.TabConstraints
	case KindForeignKeys:
		return models.TabForeignKeys
	case KindIndexes:
		return models.TabIndexes
	default:
		return models.TabRecords
	}
}

// PageMode tells the receiver how a records page combines with loaded rows
type PageMode int

const (
	PageReplace PageMode = iota
	PageAppend
)

// Outcome classifies a finished request
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeError
	OutcomeCanceled
)

// ConnView is the view id for connect and catalog work of a connection
func ConnView(conn string) string {
	return conn
}

// TableView is the view id for one tab of a table
func TableView(conn string, table models.TableRef, tab models.Tab) string {
	return fmt.Sprintf("%s/%s#%s", conn, table.Key(), tab.Slug())
}

// Request describes one unit of background work
type Request struct {
	View string
	Kind Kind
	Conn string

	// Descriptor is required for KindConnect
	Descriptor models.ConnectionDescriptor

	Table   models.TableRef
	Page    models.PageRequest
	Offset  int
	Mode    PageMode
	Refresh bool // drop cached catalog data first
}

// Result is delivered once per submitted request unless it was superseded
type Result struct {
	View    string
	Seq     uint64
	Kind    Kind
	Conn    string
	Mode    PageMode
	Outcome Outcome
	Err     error

	Page      *models.ResultPage
	Databases []models.Database
	Schema    *models.SchemaObject
	Duration  time.Duration
}

// Recorder receives every records statement issued
type Recorder interface {
	Record(connectionID, statement string, duration time.Duration, rows int, err error) error
}

// Options configures an Executor
type Options struct {
	PageSize int
	Timeout  time.Duration
	Logger   *slog.Logger
	Recorder Recorder
}

const (
	DefaultPageSize = 200
	DefaultTimeout  = 5 * time.Second
)

// Executor runs requests off the UI loop. At most one request per view is
// current; results of superseded or canceled requests are discarded.
type Executor struct {
	manager *connection.Manager
	cache   *metadata.Cache
	opts    Options
	logger  *slog.Logger

	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	next    uint64
	current map[string]uint64
	cancels map[string]context.CancelFunc
	closed  bool
}

// NewExecutor creates an executor over the given slots and catalog cache
func NewExecutor(manager *connection.Manager, cache *metadata.Cache, opts Options) *Executor {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		manager: manager,
		cache:   cache,
		opts:    opts,
		logger:  logger,
		results: make(chan Result, 64),
		done:    make(chan struct{}),
		current: make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Results is drained by the UI loop
func (e *Executor) Results() <-chan Result {
	return e.results
}

// Submit starts req in the background and returns its sequence number. Any
// request still running for the same view is canceled.
func (e *Executor) Submit(req Request) uint64 {
	e.mu.Lock()
	e.next++
	seq := e.next
	if e.closed {
		e.mu.Unlock()
		return seq
	}
	if cancel := e.cancels[req.View]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.timeoutFor(req))
	e.current[req.View] = seq
	e.cancels[req.View] = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Debug("submit", "view", req.View, "kind", req.Kind.String(), "seq", seq)
	go e.run(ctx, cancel, req, seq)
	return seq
}

// Current reports whether seq is the latest request for view
func (e *Executor) Current(view string, seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current[view] == seq
}

// Cancel aborts the work of view. Its pending result will not be delivered.
func (e *Executor) Cancel(view string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel := e.cancels[view]; cancel != nil {
		cancel()
		delete(e.cancels, view)
	}
	if _, ok := e.current[view]; ok {
		e.next++
		e.current[view] = e.next
	}
}

// Close cancels all work and waits for the workers to exit
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
}

func (e *Executor) timeoutFor(req Request) time.Duration {
	if req.Kind == KindConnect && req.Descriptor.Timeout > 0 {
		return req.Descriptor.Timeout
	}
	if conn, ok := e.manager.Get(req.Conn); ok && conn.Descriptor.Timeout > 0 {
		return conn.Descriptor.Timeout
	}
	return e.opts.Timeout
}

func (e *Executor) pageSizeFor(conn *connection.Connection) int {
	if conn.Descriptor.PageSize > 0 {
		return conn.Descriptor.PageSize
	}
	return e.opts.PageSize
}

func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, req Request, seq uint64) {
	defer e.wg.Done()
	defer cancel()

	start := time.Now()
	res := e.execute(ctx, req)
	res.View = req.View
	res.Seq = seq
	res.Kind = req.Kind
	res.Conn = req.Conn
	res.Mode = req.Mode
	res.Duration = time.Since(start)
	res.Outcome = outcomeOf(res.Err)

	e.mu.Lock()
	current := e.current[req.View] == seq
	if current {
		delete(e.cancels, req.View)
	}
	e.mu.Unlock()

	if !current {
		e.logger.Debug("discarded stale result", "view", req.View, "seq", seq)
		return
	}
	if res.Err != nil {
		e.logger.Warn("request failed", "view", req.View, "kind", req.Kind.String(), "error", res.Err)
	}

	select {
	case e.results <- res:
	case <-e.done:
	}
}

func (e *Executor) execute(ctx context.Context, req Request) Result {
	switch req.Kind {
	case KindConnect:
		e.cache.Evict(req.Descriptor.ID)
		_, err := e.manager.Connect(ctx, req.Descriptor)
		return Result{Err: err}

	case KindDisconnect:
		e.cache.Evict(req.Conn)
		if _, ok := e.manager.Get(req.Conn); !ok {
			return Result{}
		}
		return Result{Err: e.manager.Disconnect(req.Conn)}
	}

	conn, ok := e.manager.Get(req.Conn)
	if !ok {
		return Result{Err: &driver.QueryError{
			Kind: driver.QueryConnectionLost,
			Op:   req.Kind.String(),
			Err:  connection.ErrClosed,
		}}
	}

	switch req.Kind {
	case KindCatalog:
		if req.Refresh {
			e.cache.Evict(req.Conn)
		}
		dbs, err := e.cache.LoadCatalog(ctx, req.Conn, conn)
		return Result{Databases: dbs, Err: err}

	case KindRecords:
		return e.records(ctx, conn, req)

	default:
		schema, err := e.cache.LoadSection(ctx, req.Conn, conn, req.Table, req.Kind.tab())
		return Result{Schema: schema, Err: err}
	}
}

func (e *Executor) records(ctx context.Context, conn *connection.Connection, req Request) Result {
	var page *models.ResultPage
	start := time.Now()
	err := conn.Do(ctx, func(ctx context.Context, client driver.Client) error {
		var err error
		page, err = client.ExecutePaginated(ctx, req.Page, req.Offset, e.pageSizeFor(conn))
		return err
	})

	if e.opts.Recorder != nil {
		statement, rows := "", 0
		if page != nil {
			statement, rows = page.Statement, len(page.Rows)
		}
		if statement == "" {
			statement = fmt.Sprintf("-- page of %s at offset %d", req.Page.Table, req.Offset)
		}
		if recErr := e.opts.Recorder.Record(req.Conn, statement, time.Since(start), rows, err); recErr != nil {
			e.logger.Warn("failed to record history", "error", recErr)
		}
	}
	if err != nil {
		return Result{Err: err}
	}
	return Result{Page: page}
}

func outcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, context.Canceled) {
		return OutcomeCanceled
	}
	var qe *driver.QueryError
	if errors.As(err, &qe) && qe.Kind == driver.QueryCanceled {
		return OutcomeCanceled
	}
	return OutcomeError
}
