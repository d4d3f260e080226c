package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapQueryClassifiesContextErrors(t *testing.T) {
	err := wrapQuery("select records", fmt.Errorf("read: %w", context.DeadlineExceeded), classifyMySQL)

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, QueryTimeout, qe.Kind)
	assert.Equal(t, "select records", qe.Op)

	err = wrapQuery("select records", context.Canceled, nil)
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, QueryCanceled, qe.Kind)
}

func TestWrapQueryKeepsExistingQueryError(t *testing.T) {
	inner := &QueryError{Kind: QuerySyntax, Op: "list tables", Err: errors.New("boom")}
	assert.Same(t, inner, wrapQuery("outer", inner, nil))
	assert.NoError(t, wrapQuery("noop", nil, nil))
}

func TestClassifyMySQL(t *testing.T) {
	assert.Equal(t, QuerySyntax, classifyMySQL(&mysql.MySQLError{Number: 1064}))
	assert.Equal(t, QueryPermission, classifyMySQL(&mysql.MySQLError{Number: 1142}))
	assert.Equal(t, QueryConnectionLost, classifyMySQL(mysql.ErrInvalidConn))
	assert.Equal(t, QueryOther, classifyMySQL(&mysql.MySQLError{Number: 1146}))

	assert.Equal(t, ConnAuth, classifyMySQLConnect(&mysql.MySQLError{Number: 1045}))
	assert.Equal(t, ConnConfig, classifyMySQLConnect(&mysql.MySQLError{Number: 1049}))
	assert.Equal(t, ConnUnreachable, classifyMySQLConnect(errors.New("dial tcp: connection refused")))
}

func TestClassifyPostgres(t *testing.T) {
	assert.Equal(t, QuerySyntax, classifyPostgres(&pgconn.PgError{Code: "42601"}))
	assert.Equal(t, QueryPermission, classifyPostgres(&pgconn.PgError{Code: "42501"}))
	assert.Equal(t, QueryCanceled, classifyPostgres(&pgconn.PgError{Code: "57014"}))
	assert.Equal(t, QueryConnectionLost, classifyPostgres(&pgconn.PgError{Code: "08006"}))

	assert.Equal(t, ConnAuth, classifyPostgresConnect(&pgconn.PgError{Code: "28P01"}))
	assert.Equal(t, ConnConfig, classifyPostgresConnect(&pgconn.PgError{Code: "3D000"}))
}

func TestIsConnectionLost(t *testing.T) {
	lost := &QueryError{Kind: QueryConnectionLost, Op: "select records", Err: errors.New("EOF")}
	assert.True(t, IsConnectionLost(fmt.Errorf("wrapped: %w", lost)))
	assert.False(t, IsConnectionLost(&QueryError{Kind: QuerySyntax}))
	assert.False(t, IsConnectionLost(errors.New("plain")))
}
