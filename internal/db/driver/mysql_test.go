package driver

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazydb/internal/models"
)

func newMockMySQL(t *testing.T) (*mysqlClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newMySQLClient(db, slog.Default()), mock
}

func TestMySQLConfig(t *testing.T) {
	d := models.ConnectionDescriptor{
		Engine:   models.EngineMySQL,
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "secret",
		Database: "world",
		Timeout:  3 * time.Second,
	}

	cfg := mysqlConfig(d)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.Equal(t, "world", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	d.UnixSocket = "/tmp/mysql.sock"
	cfg = mysqlConfig(d)
	assert.Equal(t, "unix", cfg.Net)
	assert.Equal(t, "/tmp/mysql.sock", cfg.Addr)
}

func TestMySQLListDatabasesSkipsSystemSchemas(t *testing.T) {
	client, mock := newMockMySQL(t)
	mock.ExpectQuery("SHOW DATABASES").WillReturnRows(
		sqlmock.NewRows([]string{"Database"}).
			AddRow("information_schema").
			AddRow("world").
			AddRow("mysql").
			AddRow("shop"),
	)

	databases, err := client.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Database{{Name: "world"}, {Name: "shop"}}, databases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLListTables(t *testing.T) {
	client, mock := newMockMySQL(t)
	mock.ExpectQuery("FROM information_schema.TABLES").
		WithArgs("world").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "ENGINE"}).
			AddRow("city", "InnoDB").
			AddRow("country", "InnoDB"))

	tables, err := client.ListTables(context.Background(), "world")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, models.TableRef{Database: "world", Name: "city", Engine: "InnoDB"}, tables[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLListColumns(t *testing.T) {
	client, mock := newMockMySQL(t)
	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("world", "city").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_DEFAULT", "COLUMN_KEY", "COLUMN_COMMENT"}).
			AddRow("ID", "int", "NO", nil, "PRI", "").
			AddRow("Name", "char(35)", "YES", "", "", "city name"))

	columns, err := client.ListColumns(context.Background(), models.TableRef{Database: "world", Name: "city"})
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.True(t, columns[0].PrimaryKey)
	assert.False(t, columns[0].Nullable)
	assert.True(t, columns[1].Nullable)
	assert.Equal(t, "city name", columns[1].Comment)
}

func TestMySQLListForeignKeys(t *testing.T) {
	client, mock := newMockMySQL(t)
	mock.ExpectQuery("FROM information_schema.KEY_COLUMN_USAGE").
		WithArgs("world", "city").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLS", "REF_SCHEMA", "REF_TABLE", "REF_COLS", "UPDATE_RULE", "DELETE_RULE"}).
			AddRow("city_ibfk_1", "CountryCode", "world", "country", "Code", "NO ACTION", "CASCADE"))

	fks, err := client.ListForeignKeys(context.Background(), models.TableRef{Database: "world", Name: "city"})
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "country", fks[0].RefTable)
	assert.Equal(t, []string{"CountryCode"}, fks[0].Columns)
	assert.Equal(t, "CASCADE", fks[0].OnDelete)
}

func TestMySQLListIndexes(t *testing.T) {
	client, mock := newMockMySQL(t)
	mock.ExpectQuery("FROM information_schema.STATISTICS").
		WithArgs("world", "city").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "INDEX_TYPE", "NON_UNIQUE", "COLS"}).
			AddRow("PRIMARY", "BTREE", 0, "ID").
			AddRow("idx_name", "BTREE", 1, "Name,District"))

	indexes, err := client.ListIndexes(context.Background(), models.TableRef{Database: "world", Name: "city"})
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.True(t, indexes[0].Primary)
	assert.True(t, indexes[0].Unique)
	assert.Equal(t, "btree", indexes[1].Type)
	assert.Equal(t, []string{"Name", "District"}, indexes[1].Columns)
}

func TestMySQLExecutePaginated(t *testing.T) {
	client, mock := newMockMySQL(t)
	table := models.TableRef{Database: "world", Name: "city"}

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("ID").OfType("INT", int64(0)),
		sqlmock.NewColumn("Name").OfType("VARCHAR", ""),
	).
		AddRow([]byte("1"), []byte("Kabul")).
		AddRow([]byte("2"), []byte("Qandahar")).
		AddRow([]byte("3"), []byte("Herat"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `world`.`city` LIMIT 0, 3")).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT IFNULL(TABLE_ROWS, 0)")).
		WithArgs("world", "city").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_ROWS"}).AddRow(4079))

	page, err := client.ExecutePaginated(context.Background(), models.PageRequest{Table: table}, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Name"}, page.Columns)
	require.Len(t, page.Rows, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, models.KindInteger, page.Rows[0][0].Raw.Kind)
	assert.Equal(t, int64(1), page.Rows[0][0].Raw.Int)
	assert.Equal(t, "Qandahar", page.Rows[1][1].Display)
	require.NotNil(t, page.TotalEstimate)
	assert.Equal(t, int64(4079), *page.TotalEstimate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLExecutePaginatedWithFilterSkipsEstimate(t *testing.T) {
	client, mock := newMockMySQL(t)
	table := models.TableRef{Database: "world", Name: "city"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `world`.`city` WHERE Population > 1e9 LIMIT 0, 201")).
		WillReturnRows(sqlmock.NewRows([]string{"ID"}))

	page, err := client.ExecutePaginated(context.Background(), models.PageRequest{Table: table, Filter: "Population > 1e9"}, 0, 200)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.TotalEstimate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind QueryErrorKind
	}{
		{"syntax", &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, QuerySyntax},
		{"permission", &mysql.MySQLError{Number: 1142, Message: "SELECT command denied"}, QueryPermission},
		{"connection lost", mysql.ErrInvalidConn, QueryConnectionLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := newMockMySQL(t)
			mock.ExpectQuery("SELECT").WillReturnError(tt.err)

			_, err := client.ExecutePaginated(context.Background(),
				models.PageRequest{Table: models.TableRef{Database: "world", Name: "city"}, Filter: "x"}, 0, 10)

			var qe *QueryError
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, tt.kind, qe.Kind)
		})
	}
}

func TestSQLClientWithoutConnection(t *testing.T) {
	client := &mysqlClient{sqlClient{dialect: mysqlDialect, logger: slog.Default()}}

	_, err := client.ListDatabases(context.Background())
	assert.ErrorContains(t, err, "database connection not established")
	assert.NoError(t, client.Close())
}
