package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// sqliteClient implements Client for SQLite database files
type sqliteClient struct {
	sqlClient
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?mode=rw&_busy_timeout=5000&_foreign_keys=on", path)
}

func openSQLite(ctx context.Context, d models.ConnectionDescriptor, logger *slog.Logger) (Client, error) {
	if _, err := os.Stat(d.Path); err != nil {
		return nil, &ConnectionError{Kind: ConnUnreachable, Target: d.DisplayName(), Err: err}
	}

	db, err := sql.Open("sqlite3", sqliteDSN(d.Path))
	if err != nil {
		return nil, &ConnectionError{Kind: ConnConfig, Target: d.DisplayName(), Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Kind: classifySQLiteConnect(err), Target: d.DisplayName(), Err: err}
	}

	return newSQLiteClient(db, logger), nil
}

func newSQLiteClient(db *sql.DB, logger *slog.Logger) *sqliteClient {
	c := &sqliteClient{sqlClient{
		db:       db,
		dialect:  sqliteDialect,
		logger:   logger,
		classify: classifySQLite,
	}}
	c.estimate = c.countRows
	return c
}

func (c *sqliteClient) pragma(name string, table models.TableRef) string {
	schema := table.Database
	if schema == "" {
		schema = "main"
	}
	return fmt.Sprintf("PRAGMA %s.%s(%s)", sqliteDialect.quote(schema), name, sqliteDialect.quote(table.Name))
}

func (c *sqliteClient) ListDatabases(ctx context.Context) ([]models.Database, error) {
	var databases []models.Database
	err := c.query(ctx, "list databases", "PRAGMA database_list", func(rows *sql.Rows) error {
		var seq int
		var name string
		var file sql.NullString
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return err
		}
		if name != "temp" {
			databases = append(databases, models.Database{Name: name})
		}
		return nil
	})
	return databases, err
}

func (c *sqliteClient) ListTables(ctx context.Context, database string) ([]models.TableRef, error) {
	q := fmt.Sprintf(`SELECT name FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, sqliteDialect.quote(database))

	tables := []models.TableRef{}
	err := c.query(ctx, "list tables", q, func(rows *sql.Rows) error {
		t := models.TableRef{Database: database}
		if err := rows.Scan(&t.Name); err != nil {
			return err
		}
		tables = append(tables, t)
		return nil
	})
	return tables, err
}

func (c *sqliteClient) ListColumns(ctx context.Context, table models.TableRef) ([]models.Column, error) {
	columns := []models.Column{}
	err := c.query(ctx, "list columns", c.pragma("table_info", table), func(rows *sql.Rows) error {
		var cid, notNull, pk int
		var col models.Column
		var def sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &def, &pk); err != nil {
			return err
		}
		col.Nullable = notNull == 0
		col.DefaultValue = def.String
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
		return nil
	})
	return columns, err
}

// ListConstraints derives constraints from pragmas; SQLite keeps no constraint catalog
func (c *sqliteClient) ListConstraints(ctx context.Context, table models.TableRef) ([]models.Constraint, error) {
	columns, err := c.ListColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	constraints := []models.Constraint{}
	var pk []string
	for _, col := range columns {
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	if len(pk) > 0 {
		constraints = append(constraints, models.Constraint{
			Name:       table.Name + "_pkey",
			Type:       "PRIMARY KEY",
			Columns:    pk,
			Definition: fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")),
		})
	}

	indexes, err := c.ListIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		if idx.Unique && !idx.Primary && strings.HasPrefix(idx.Name, "sqlite_autoindex_") {
			constraints = append(constraints, models.Constraint{
				Name:       idx.Name,
				Type:       "UNIQUE",
				Columns:    idx.Columns,
				Definition: fmt.Sprintf("UNIQUE (%s)", strings.Join(idx.Columns, ", ")),
			})
		}
	}

	fks, err := c.ListForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		constraints = append(constraints, models.Constraint{
			Name:    fk.Name,
			Type:    "FOREIGN KEY",
			Columns: fk.Columns,
			Definition: fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", ")),
		})
	}

	return constraints, nil
}

func (c *sqliteClient) ListForeignKeys(ctx context.Context, table models.TableRef) ([]models.ForeignKey, error) {
	byID := map[int]*models.ForeignKey{}
	var order []int
	err := c.query(ctx, "list foreign keys", c.pragma("foreign_key_list", table), func(rows *sql.Rows) error {
		var id, seq int
		var refTable, from, onUpdate, onDelete, match string
		var to sql.NullString
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &models.ForeignKey{
				Name:     fmt.Sprintf("%s_fk_%d", table.Name, id),
				RefTable: refTable,
				OnUpdate: onUpdate,
				OnDelete: onDelete,
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.RefColumns = append(fk.RefColumns, to.String)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fks := make([]models.ForeignKey, 0, len(order))
	for _, id := range order {
		fks = append(fks, *byID[id])
	}
	return fks, nil
}

func (c *sqliteClient) ListIndexes(ctx context.Context, table models.TableRef) ([]models.Index, error) {
	indexes := []models.Index{}
	err := c.query(ctx, "list indexes", c.pragma("index_list", table), func(rows *sql.Rows) error {
		var seq, unique, partial int
		var idx models.Index
		var origin string
		if err := rows.Scan(&seq, &idx.Name, &unique, &origin, &partial); err != nil {
			return err
		}
		idx.Type = "btree"
		idx.Unique = unique == 1
		idx.Primary = origin == "pk"
		indexes = append(indexes, idx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range indexes {
		ref := models.TableRef{Database: table.Database, Name: indexes[i].Name}
		cols := []string{}
		err := c.query(ctx, "list index columns", c.pragma("index_info", ref), func(rows *sql.Rows) error {
			var seqno, cid int
			var name sql.NullString
			if err := rows.Scan(&seqno, &cid, &name); err != nil {
				return err
			}
			cols = append(cols, name.String)
			return nil
		})
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = cols
	}
	return indexes, nil
}

func (c *sqliteClient) countRows(ctx context.Context, table models.TableRef) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqliteDialect.qualified(table)).Scan(&total)
	return total, err
}

func classifySQLite(err error) QueryErrorKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return QueryPermission
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return QueryTimeout
		case sqlite3.ErrInterrupt:
			return QueryCanceled
		case sqlite3.ErrIoErr, sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrCantOpen:
			return QueryConnectionLost
		case sqlite3.ErrError:
			if strings.Contains(sqliteErr.Error(), "syntax error") {
				return QuerySyntax
			}
		}
		return QueryOther
	}
	if errors.Is(err, sql.ErrConnDone) {
		return QueryConnectionLost
	}
	return QueryOther
}

func classifySQLiteConnect(err error) ConnectionErrorKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrAuth, sqlite3.ErrPerm:
			return ConnAuth
		case sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			return ConnProtocol
		}
	}
	return ConnUnreachable
}
