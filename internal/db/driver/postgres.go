package driver

import (
	"context"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// postgresClient implements Client on a pgx pool
type postgresClient struct {
	pool     *pgxpool.Pool
	database string
	logger   *slog.Logger
}

// postgresConnString renders a keyword/value connection string
func postgresConnString(d models.ConnectionDescriptor) string {
	host := d.Host
	if d.UnixSocket != "" {
		host = d.UnixSocket
	}
	parts := []string{
		"host=" + pgQuote(host),
		fmt.Sprintf("port=%d", d.Port),
	}
	if d.User != "" {
		parts = append(parts, "user="+pgQuote(d.User))
	}
	if d.Password != "" {
		parts = append(parts, "password="+pgQuote(d.Password))
	}
	if d.Database != "" {
		parts = append(parts, "dbname="+pgQuote(d.Database))
	}
	if d.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(d.Timeout.Seconds())))
	}
	parts = append(parts, "application_name=lazydb")
	return strings.Join(parts, " ")
}

func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func openPostgres(ctx context.Context, d models.ConnectionDescriptor, logger *slog.Logger) (Client, error) {
	cfg, err := pgxpool.ParseConfig(postgresConnString(d))
	if err != nil {
		return nil, &ConnectionError{Kind: ConnConfig, Target: d.DisplayName(), Err: err}
	}

	// Statements are serialized per connection, one spare link serves cancel requests.
	cfg.MaxConns = 2
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Kind: classifyPostgresConnect(err), Target: d.DisplayName(), Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Kind: classifyPostgresConnect(err), Target: d.DisplayName(), Err: err}
	}

	database := d.Database
	if database == "" {
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&database); err != nil {
			pool.Close()
			return nil, &ConnectionError{Kind: ConnProtocol, Target: d.DisplayName(), Err: err}
		}
	}

	return &postgresClient{pool: pool, database: database, logger: logger}, nil
}

func (c *postgresClient) Engine() models.Engine {
	return models.EnginePostgres
}

func (c *postgresClient) Ping(ctx context.Context) error {
	return wrapQuery("ping", c.pool.Ping(ctx), classifyPostgres)
}

func (c *postgresClient) Close() error {
	c.pool.Close()
	return nil
}

// collect runs a catalog query and hands every row to scan
func (c *postgresClient) collect(ctx context.Context, op, q string, scan func(pgx.Rows) error, args ...any) error {
	rows, err := c.pool.Query(ctx, q, args...)
	if err != nil {
		return wrapQuery(op, err, classifyPostgres)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrapQuery(op, err, classifyPostgres)
		}
	}
	return wrapQuery(op, rows.Err(), classifyPostgres)
}

// ListDatabases returns the connected database; PostgreSQL cannot query across databases
func (c *postgresClient) ListDatabases(ctx context.Context) ([]models.Database, error) {
	return []models.Database{{Name: c.database}}, nil
}

func (c *postgresClient) ListTables(ctx context.Context, database string) ([]models.TableRef, error) {
	q := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type IN ('BASE TABLE', 'VIEW')
			AND table_schema NOT IN ('pg_catalog', 'information_schema')
			AND table_schema NOT LIKE 'pg_toast%'
		ORDER BY table_schema, table_name
	`

	tables := []models.TableRef{}
	err := c.collect(ctx, "list tables", q, func(rows pgx.Rows) error {
		t := models.TableRef{Database: database}
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return err
		}
		tables = append(tables, t)
		return nil
	})
	return tables, err
}

func (c *postgresClient) ListColumns(ctx context.Context, table models.TableRef) ([]models.Column, error) {
	q := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			COALESCE(c.column_default, ''),
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
					ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND k.column_name = c.column_name
			),
			COALESCE(col_description((quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass, c.ordinal_position::int), '')
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	columns := []models.Column{}
	err := c.collect(ctx, "list columns", q, func(rows pgx.Rows) error {
		var col models.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.DefaultValue, &col.PrimaryKey, &col.Comment); err != nil {
			return err
		}
		columns = append(columns, col)
		return nil
	}, table.Schema, table.Name)
	return columns, err
}

func (c *postgresClient) ListConstraints(ctx context.Context, table models.TableRef) ([]models.Constraint, error) {
	q := `
		SELECT
			con.conname,
			CASE con.contype
				WHEN 'p' THEN 'PRIMARY KEY'
				WHEN 'u' THEN 'UNIQUE'
				WHEN 'f' THEN 'FOREIGN KEY'
				WHEN 'c' THEN 'CHECK'
				WHEN 'x' THEN 'EXCLUDE'
				ELSE con.contype::text
			END,
			pg_get_constraintdef(con.oid),
			COALESCE(ARRAY(
				SELECT att.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY AS u(attnum, attposition)
				JOIN pg_catalog.pg_attribute att ON att.attrelid = con.conrelid
					AND att.attnum = u.attnum
				ORDER BY u.attposition
			), '{}')
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON con.conrelid = cl.oid
		JOIN pg_catalog.pg_namespace ns ON cl.relnamespace = ns.oid
		WHERE ns.nspname = $1 AND cl.relname = $2
		ORDER BY
			CASE con.contype
				WHEN 'p' THEN 1
				WHEN 'u' THEN 2
				WHEN 'f' THEN 3
				WHEN 'c' THEN 4
				ELSE 5
			END,
			con.conname
	`

	constraints := []models.Constraint{}
	err := c.collect(ctx, "list constraints", q, func(rows pgx.Rows) error {
		var con models.Constraint
		if err := rows.Scan(&con.Name, &con.Type, &con.Definition, &con.Columns); err != nil {
			return err
		}
		constraints = append(constraints, con)
		return nil
	}, table.Schema, table.Name)
	return constraints, err
}

func (c *postgresClient) ListForeignKeys(ctx context.Context, table models.TableRef) ([]models.ForeignKey, error) {
	q := `
		SELECT
			con.conname,
			ARRAY(
				SELECT att.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY AS u(attnum, attposition)
				JOIN pg_catalog.pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = u.attnum
				ORDER BY u.attposition
			),
			nf.nspname || '.' || clf.relname,
			ARRAY(
				SELECT att.attname::text
				FROM unnest(con.confkey) WITH ORDINALITY AS u(attnum, attposition)
				JOIN pg_catalog.pg_attribute att ON att.attrelid = con.confrelid AND att.attnum = u.attnum
				ORDER BY u.attposition
			),
			CASE con.confupdtype
				WHEN 'a' THEN 'NO ACTION' WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE'
				WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT' ELSE ''
			END,
			CASE con.confdeltype
				WHEN 'a' THEN 'NO ACTION' WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE'
				WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT' ELSE ''
			END
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON con.conrelid = cl.oid
		JOIN pg_catalog.pg_namespace ns ON cl.relnamespace = ns.oid
		JOIN pg_catalog.pg_class clf ON con.confrelid = clf.oid
		JOIN pg_catalog.pg_namespace nf ON clf.relnamespace = nf.oid
		WHERE con.contype = 'f' AND ns.nspname = $1 AND cl.relname = $2
		ORDER BY con.conname
	`

	fks := []models.ForeignKey{}
	err := c.collect(ctx, "list foreign keys", q, func(rows pgx.Rows) error {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Columns, &fk.RefTable, &fk.RefColumns, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return err
		}
		fks = append(fks, fk)
		return nil
	}, table.Schema, table.Name)
	return fks, err
}

func (c *postgresClient) ListIndexes(ctx context.Context, table models.TableRef) ([]models.Index, error) {
	q := `
		SELECT
			ic.relname,
			am.amname,
			ARRAY(
				SELECT pg_get_indexdef(ix.indexrelid, k + 1, true)
				FROM generate_subscripts(ix.indkey, 1) AS k
				ORDER BY k
			),
			ix.indisunique,
			ix.indisprimary
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_catalog.pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_catalog.pg_namespace ns ON ns.oid = tc.relnamespace
		JOIN pg_catalog.pg_am am ON am.oid = ic.relam
		WHERE ns.nspname = $1 AND tc.relname = $2
		ORDER BY ic.relname
	`

	indexes := []models.Index{}
	err := c.collect(ctx, "list indexes", q, func(rows pgx.Rows) error {
		var idx models.Index
		if err := rows.Scan(&idx.Name, &idx.Type, &idx.Columns, &idx.Unique, &idx.Primary); err != nil {
			return err
		}
		indexes = append(indexes, idx)
		return nil
	}, table.Schema, table.Name)
	return indexes, err
}

func (c *postgresClient) ExecutePaginated(ctx context.Context, req models.PageRequest, offset, limit int) (*models.ResultPage, error) {
	stmt := postgresDialect.selectPage(req, offset, limit)
	start := time.Now()

	rows, err := c.pool.Query(ctx, stmt)
	if err != nil {
		return nil, wrapQuery("select records", err, classifyPostgres)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	typeNames := make([]string, len(fields))
	typeMap := rows.Conn().TypeMap()
	for i, f := range fields {
		columns[i] = f.Name
		if t, ok := typeMap.TypeForOID(f.DataTypeOID); ok {
			typeNames[i] = t.Name
		}
	}

	data := []models.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, wrapQuery("select records", err, classifyPostgres)
		}
		row := make(models.Row, len(values))
		for i, v := range values {
			row[i] = convertValue(normalizePostgresValue(v), typeNames[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQuery("select records", err, classifyPostgres)
	}

	page := &models.ResultPage{Columns: columns, Offset: offset, Statement: stmt}
	page.Rows, page.HasMore = trimPage(data, limit)

	if offset == 0 && req.Filter == "" {
		var estimate int64
		err := c.pool.QueryRow(ctx,
			"SELECT reltuples::bigint FROM pg_class WHERE oid = (quote_ident($1) || '.' || quote_ident($2))::regclass",
			req.Table.Schema, req.Table.Name,
		).Scan(&estimate)
		switch {
		case err != nil:
			c.logger.Warn("failed to estimate row count", "table", req.Table.String(), "error", err)
		case estimate >= 0:
			page.TotalEstimate = &estimate
		}
	}
	page.Duration = time.Since(start)

	return page, nil
}

// normalizePostgresValue maps pgx specific value types onto plain Go values
func normalizePostgresValue(v any) any {
	switch x := v.(type) {
	case nil, string, []byte, bool, time.Time, map[string]any, []any,
		int16, int32, int64, float32, float64:
		return v
	case [16]byte:
		return uuid.UUID(x).String()
	case sqldriver.Valuer:
		value, err := x.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return value
	default:
		return v
	}
}

func classifyPostgres(err error) QueryErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42601":
			return QuerySyntax
		case pgErr.Code == "42501":
			return QueryPermission
		case pgErr.Code == "57014":
			return QueryCanceled
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01":
			return QueryConnectionLost
		}
		return QueryOther
	}
	if pgconn.Timeout(err) {
		return QueryTimeout
	}
	return QueryOther
}

func classifyPostgresConnect(err error) ConnectionErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28000", "28P01":
			return ConnAuth
		case "3D000":
			return ConnConfig
		}
		return ConnProtocol
	}
	return ConnUnreachable
}
