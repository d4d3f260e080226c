package driver

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/rebeliceyang/lazydb/internal/models"
)

var errNotConnected = errors.New("database connection not established")

// sqlClient implements the parts of Client shared by the database/sql based engines
type sqlClient struct {
	db       *sql.DB
	dialect  dialect
	logger   *slog.Logger
	classify classifier
	estimate func(ctx context.Context, table models.TableRef) (int64, error)
}

func (c *sqlClient) Engine() models.Engine {
	return c.dialect.engine
}

func (c *sqlClient) Ping(ctx context.Context) error {
	if c.db == nil {
		return wrapQuery("ping", errNotConnected, nil)
	}
	return wrapQuery("ping", c.db.PingContext(ctx), c.classify)
}

func (c *sqlClient) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// query runs a catalog query and hands every row to scan
func (c *sqlClient) query(ctx context.Context, op, q string, scan func(*sql.Rows) error, args ...any) error {
	if c.db == nil {
		return wrapQuery(op, errNotConnected, nil)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return wrapQuery(op, err, c.classify)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrapQuery(op, err, c.classify)
		}
	}
	return wrapQuery(op, rows.Err(), c.classify)
}

func (c *sqlClient) ExecutePaginated(ctx context.Context, req models.PageRequest, offset, limit int) (*models.ResultPage, error) {
	if c.db == nil {
		return nil, wrapQuery("select records", errNotConnected, nil)
	}
	stmt := c.dialect.selectPage(req, offset, limit)
	start := time.Now()

	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, wrapQuery("select records", err, c.classify)
	}
	defer func() { _ = rows.Close() }()

	columns, data, err := scanGrid(rows)
	if err != nil {
		return nil, wrapQuery("select records", err, c.classify)
	}

	page := &models.ResultPage{
		Columns:   columns,
		Offset:    offset,
		Statement: stmt,
	}
	page.Rows, page.HasMore = trimPage(data, limit)

	if offset == 0 && req.Filter == "" && c.estimate != nil {
		if total, err := c.estimate(ctx, req.Table); err == nil {
			page.TotalEstimate = &total
		} else {
			c.logger.Warn("failed to estimate row count", "table", req.Table.String(), "error", err)
		}
	}
	page.Duration = time.Since(start)

	return page, nil
}

// scanGrid reads every row of a result set into canonical cells
func scanGrid(rows *sql.Rows) ([]string, []models.Row, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}
	columns := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
	}

	var data []models.Row
	values := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(models.Row, len(types))
		for i, ct := range types {
			row[i] = convertValue(values[i], ct.DatabaseTypeName())
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if data == nil {
		data = []models.Row{}
	}
	return columns, data, nil
}
