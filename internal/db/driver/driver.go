// Package driver unifies the catalog and paging semantics of the supported
// SQL engines behind one Client contract. The set of implementations is closed:
// Open switches over models.Engine and nothing else registers a client.
package driver

import (
	"context"
	"log/slog"

	"github.com/rebeliceyang/lazydb/internal/models"
)

// Client is a live connection to one database target. Callers serialize access;
// cancelling the context passed to an operation cancels it on the server where
// the engine supports it.
type Client interface {
	Engine() models.Engine
	Ping(ctx context.Context) error
	Close() error

	ListDatabases(ctx context.Context) ([]models.Database, error)
	ListTables(ctx context.Context, database string) ([]models.TableRef, error)
	ListColumns(ctx context.Context, table models.TableRef) ([]models.Column, error)
	ListConstraints(ctx context.Context, table models.TableRef) ([]models.Constraint, error)
	ListForeignKeys(ctx context.Context, table models.TableRef) ([]models.ForeignKey, error)
	ListIndexes(ctx context.Context, table models.TableRef) ([]models.Index, error)

	ExecutePaginated(ctx context.Context, req models.PageRequest, offset, limit int) (*models.ResultPage, error)
}

// Open connects to the target described by d
func Open(ctx context.Context, d models.ConnectionDescriptor, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("connection", d.ID, "engine", string(d.Engine))

	switch d.Engine {
	case models.EngineMySQL:
		return openMySQL(ctx, d, logger)
	case models.EnginePostgres:
		return openPostgres(ctx, d, logger)
	case models.EngineSQLite:
		return openSQLite(ctx, d, logger)
	default:
		return nil, &ConnectionError{Kind: ConnConfig, Target: d.DisplayName(), Err: errUnknownEngine(d.Engine)}
	}
}

type errUnknownEngine models.Engine

func (e errUnknownEngine) Error() string {
	return "unsupported engine " + string(e)
}
