package driver

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rebeliceyang/lazydb/internal/models"
)

var mysqlSystemSchemas = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// mysqlClient implements Client for MySQL and MariaDB
type mysqlClient struct {
	sqlClient
}

// mysqlConfig builds the driver configuration for a descriptor
func mysqlConfig(d models.ConnectionDescriptor) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.DBName = d.Database
	if d.UnixSocket != "" {
		cfg.Net = "unix"
		cfg.Addr = d.UnixSocket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	if d.Timeout > 0 {
		cfg.Timeout = d.Timeout
	}
	return cfg
}

func openMySQL(ctx context.Context, d models.ConnectionDescriptor, logger *slog.Logger) (Client, error) {
	connector, err := mysql.NewConnector(mysqlConfig(d))
	if err != nil {
		return nil, &ConnectionError{Kind: ConnConfig, Target: d.DisplayName(), Err: err}
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Kind: classifyMySQLConnect(err), Target: d.DisplayName(), Err: err}
	}

	return newMySQLClient(db, logger), nil
}

func newMySQLClient(db *sql.DB, logger *slog.Logger) *mysqlClient {
	c := &mysqlClient{sqlClient{
		db:       db,
		dialect:  mysqlDialect,
		logger:   logger,
		classify: classifyMySQL,
	}}
	c.estimate = c.estimateRows
	return c
}

func (c *mysqlClient) ListDatabases(ctx context.Context) ([]models.Database, error) {
	var databases []models.Database
	err := c.query(ctx, "list databases", "SHOW DATABASES", func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if !mysqlSystemSchemas[strings.ToLower(name)] {
			databases = append(databases, models.Database{Name: name})
		}
		return nil
	})
	return databases, err
}

func (c *mysqlClient) ListTables(ctx context.Context, database string) ([]models.TableRef, error) {
	q := `SELECT TABLE_NAME, IFNULL(ENGINE, '')
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`

	tables := []models.TableRef{}
	err := c.query(ctx, "list tables", q, func(rows *sql.Rows) error {
		t := models.TableRef{Database: database}
		if err := rows.Scan(&t.Name, &t.Engine); err != nil {
			return err
		}
		tables = append(tables, t)
		return nil
	}, database)
	return tables, err
}

func (c *mysqlClient) ListColumns(ctx context.Context, table models.TableRef) ([]models.Column, error) {
	q := `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, COLUMN_COMMENT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	columns := []models.Column{}
	err := c.query(ctx, "list columns", q, func(rows *sql.Rows) error {
		var col models.Column
		var nullable, key string
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &def, &key, &col.Comment); err != nil {
			return err
		}
		col.Nullable = nullable == "YES"
		col.DefaultValue = def.String
		col.PrimaryKey = key == "PRI"
		columns = append(columns, col)
		return nil
	}, table.Database, table.Name)
	return columns, err
}

func (c *mysqlClient) ListConstraints(ctx context.Context, table models.TableRef) ([]models.Constraint, error) {
	q := `SELECT tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE,
			GROUP_CONCAT(k.COLUMN_NAME ORDER BY k.ORDINAL_POSITION SEPARATOR ',')
		FROM information_schema.TABLE_CONSTRAINTS tc
		LEFT JOIN information_schema.KEY_COLUMN_USAGE k
			ON k.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND k.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
		GROUP BY tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE
		ORDER BY tc.CONSTRAINT_NAME`

	constraints := []models.Constraint{}
	err := c.query(ctx, "list constraints", q, func(rows *sql.Rows) error {
		var con models.Constraint
		var cols sql.NullString
		if err := rows.Scan(&con.Name, &con.Type, &cols); err != nil {
			return err
		}
		con.Columns = splitList(cols.String)
		constraints = append(constraints, con)
		return nil
	}, table.Database, table.Name)
	return constraints, err
}

func (c *mysqlClient) ListForeignKeys(ctx context.Context, table models.TableRef) ([]models.ForeignKey, error) {
	q := `SELECT k.CONSTRAINT_NAME,
			GROUP_CONCAT(k.COLUMN_NAME ORDER BY k.ORDINAL_POSITION SEPARATOR ','),
			k.REFERENCED_TABLE_SCHEMA, k.REFERENCED_TABLE_NAME,
			GROUP_CONCAT(k.REFERENCED_COLUMN_NAME ORDER BY k.ORDINAL_POSITION SEPARATOR ','),
			r.UPDATE_RULE, r.DELETE_RULE
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.REFERENTIAL_CONSTRAINTS r
			ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA
			AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
		GROUP BY k.CONSTRAINT_NAME, k.REFERENCED_TABLE_SCHEMA, k.REFERENCED_TABLE_NAME, r.UPDATE_RULE, r.DELETE_RULE
		ORDER BY k.CONSTRAINT_NAME`

	fks := []models.ForeignKey{}
	err := c.query(ctx, "list foreign keys", q, func(rows *sql.Rows) error {
		var fk models.ForeignKey
		var cols, refSchema, refTable, refCols string
		if err := rows.Scan(&fk.Name, &cols, &refSchema, &refTable, &refCols, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return err
		}
		fk.Columns = splitList(cols)
		fk.RefColumns = splitList(refCols)
		fk.RefTable = refTable
		if refSchema != table.Database {
			fk.RefTable = refSchema + "." + refTable
		}
		fks = append(fks, fk)
		return nil
	}, table.Database, table.Name)
	return fks, err
}

func (c *mysqlClient) ListIndexes(ctx context.Context, table models.TableRef) ([]models.Index, error) {
	q := `SELECT INDEX_NAME, INDEX_TYPE, NON_UNIQUE,
			GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX SEPARATOR ',')
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		GROUP BY INDEX_NAME, INDEX_TYPE, NON_UNIQUE
		ORDER BY INDEX_NAME`

	indexes := []models.Index{}
	err := c.query(ctx, "list indexes", q, func(rows *sql.Rows) error {
		var idx models.Index
		var nonUnique int
		var cols sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Type, &nonUnique, &cols); err != nil {
			return err
		}
		idx.Type = strings.ToLower(idx.Type)
		idx.Unique = nonUnique == 0
		idx.Primary = idx.Name == "PRIMARY"
		idx.Columns = splitList(cols.String)
		indexes = append(indexes, idx)
		return nil
	}, table.Database, table.Name)
	return indexes, err
}

// estimateRows reads the storage engine statistics instead of counting
func (c *mysqlClient) estimateRows(ctx context.Context, table models.TableRef) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx,
		"SELECT IFNULL(TABLE_ROWS, 0) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
		table.Database, table.Name,
	).Scan(&total)
	return total, err
}

func classifyMySQL(err error) QueryErrorKind {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1064, 1149:
			return QuerySyntax
		case 1044, 1045, 1142, 1143, 1227, 1370:
			return QueryPermission
		case 1205, 3024:
			return QueryTimeout
		case 1317:
			return QueryCanceled
		case 1053, 1152, 1184:
			return QueryConnectionLost
		}
		return QueryOther
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sqldriver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return QueryConnectionLost
	}
	return QueryOther
}

func classifyMySQLConnect(err error) ConnectionErrorKind {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1698:
			return ConnAuth
		case 1049:
			return ConnConfig
		}
		return ConnProtocol
	}
	if errors.Is(err, mysql.ErrMalformPkt) || errors.Is(err, mysql.ErrOldProtocol) {
		return ConnProtocol
	}
	return ConnUnreachable
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
