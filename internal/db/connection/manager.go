package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/models"
)

var (
	// ErrReconnectRequired is returned once a slot lost its link to the server
	ErrReconnectRequired = errors.New("connection lost, reconnect required")
	// ErrClosed is returned for statements issued against a torn down slot
	ErrClosed = errors.New("connection closed")
)

// OpenFunc establishes a client for a descriptor
type OpenFunc func(ctx context.Context, d models.ConnectionDescriptor, logger *slog.Logger) (driver.Client, error)

// Connection is one connection slot. Statements run one at a time; callers
// queue on the slot's semaphore in arrival order.
type Connection struct {
	ID          string
	Descriptor  models.ConnectionDescriptor
	ConnectedAt time.Time

	client driver.Client
	sem    *semaphore.Weighted

	mu       sync.Mutex
	state    models.ConnectionState
	inflight context.CancelFunc
}

func newConnection(d models.ConnectionDescriptor, client driver.Client) *Connection {
	return &Connection{
		ID:          d.ID,
		Descriptor:  d,
		ConnectedAt: time.Now(),
		client:      client,
		sem:         semaphore.NewWeighted(1),
		state:       models.Connected,
	}
}

// State returns the slot's lifecycle state
func (c *Connection) State() models.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Engine returns the engine of the slot's client
func (c *Connection) Engine() models.Engine {
	return c.Descriptor.Engine
}

// Do runs fn with exclusive use of the client. A connection-lost failure flags
// the slot so that later statements fail fast until it is reconnected.
func (c *Connection) Do(ctx context.Context, fn func(ctx context.Context, client driver.Client) error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	switch c.state {
	case models.Disconnected:
		c.mu.Unlock()
		return &driver.QueryError{Kind: driver.QueryConnectionLost, Op: "run statement", Err: ErrClosed}
	case models.ReconnectRequired:
		c.mu.Unlock()
		return &driver.QueryError{Kind: driver.QueryConnectionLost, Op: "run statement", Err: ErrReconnectRequired}
	}
	ctx, cancel := context.WithCancel(ctx)
	c.inflight = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
	}()

	err := fn(ctx, c.client)
	if driver.IsConnectionLost(err) {
		c.mu.Lock()
		if c.state == models.Connected {
			c.state = models.ReconnectRequired
		}
		c.mu.Unlock()
	}
	return err
}

// close cancels the running statement, waits for it to release the client and
// closes it. No statement can start afterwards.
func (c *Connection) close() error {
	c.mu.Lock()
	if c.state == models.Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = models.Disconnected
	cancel := c.inflight
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := c.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	return c.client.Close()
}

// Manager owns the connection slots, at most one live client per descriptor
type Manager struct {
	connections map[string]*Connection
	open        OpenFunc
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewManager creates a new connection manager. A nil open uses driver.Open.
func NewManager(open OpenFunc, logger *slog.Logger) *Manager {
	if open == nil {
		open = driver.Open
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		connections: make(map[string]*Connection),
		open:        open,
		logger:      logger,
	}
}

// Connect establishes a client for d. An existing client for the same
// descriptor is torn down before the new one is opened.
func (m *Manager) Connect(ctx context.Context, d models.ConnectionDescriptor) (*Connection, error) {
	m.mu.Lock()
	previous := m.connections[d.ID]
	delete(m.connections, d.ID)
	m.mu.Unlock()

	if previous != nil {
		if err := previous.close(); err != nil {
			m.logger.Warn("failed to close previous client", "connection", d.ID, "error", err)
		}
	}

	start := time.Now()
	client, err := m.open(ctx, d, m.logger)
	if err != nil {
		m.logger.Warn("connect failed", "connection", d.ID, "error", err)
		return nil, err
	}
	conn := newConnection(d, client)

	m.mu.Lock()
	raced := m.connections[d.ID]
	m.connections[d.ID] = conn
	m.mu.Unlock()

	if raced != nil {
		_ = raced.close()
	}
	m.logger.Info("connected", "connection", d.ID, "engine", string(d.Engine), "elapsed", time.Since(start))

	return conn, nil
}

// Disconnect tears down the slot for id
func (m *Manager) Disconnect(id string) error {
	m.mu.Lock()
	conn, ok := m.connections[id]
	delete(m.connections, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("connection %s not found", id)
	}
	m.logger.Info("disconnected", "connection", id)
	return conn.close()
}

// Get returns the live slot for id
func (m *Manager) Get(id string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	return conn, ok
}

// State reports the state of the slot for id, Disconnected when there is none
func (m *Manager) State(id string) models.ConnectionState {
	conn, ok := m.Get(id)
	if !ok {
		return models.Disconnected
	}
	return conn.State()
}

// GetAll returns all slots ordered by id
func (m *Manager) GetAll() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns
}

// Ping checks the slot for id
func (m *Manager) Ping(ctx context.Context, id string) error {
	conn, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("connection %s not found", id)
	}
	return conn.Do(ctx, func(ctx context.Context, client driver.Client) error {
		return client.Ping(ctx)
	})
}

// CloseAll tears down every slot
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := m.connections
	m.connections = make(map[string]*Connection)
	m.mu.Unlock()

	for id, conn := range conns {
		if err := conn.close(); err != nil {
			m.logger.Warn("failed to close connection", "connection", id, "error", err)
		}
	}
}
