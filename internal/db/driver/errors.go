package driver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rebeliceyang/lazydb/internal/models"
)

// ConnectionErrorKind classifies a failed connection attempt
type ConnectionErrorKind int

const (
	ConnUnreachable ConnectionErrorKind = iota
	ConnAuth
	ConnProtocol
	ConnConfig
)

func (k ConnectionErrorKind) String() string {
	switch k {
	case ConnAuth:
		return "authentication failed"
	case ConnProtocol:
		return "protocol mismatch"
	case ConnConfig:
		return "invalid configuration"
	default:
		return "unreachable"
	}
}

// ConnectionError is returned by Open when a client cannot be established
type ConnectionError struct {
	Kind   ConnectionErrorKind
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s (%s): %v", e.Target, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryErrorKind classifies a failed statement
type QueryErrorKind int

const (
	QueryOther QueryErrorKind = iota
	QuerySyntax
	QueryPermission
	QueryTimeout
	QueryConnectionLost
	QueryCanceled
)

func (k QueryErrorKind) String() string {
	switch k {
	case QuerySyntax:
		return "syntax error"
	case QueryPermission:
		return "permission denied"
	case QueryTimeout:
		return "timeout"
	case QueryConnectionLost:
		return "connection lost"
	case QueryCanceled:
		return "canceled"
	default:
		return "query failed"
	}
}

// QueryError is returned by every Client operation other than Open
type QueryError struct {
	Kind QueryErrorKind
	Op   string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// SchemaIntrospectionError scopes a QueryError to the metadata tab that triggered it
type SchemaIntrospectionError struct {
	Tab   models.Tab
	Table models.TableRef
	Err   *QueryError
}

func (e *SchemaIntrospectionError) Error() string {
	return fmt.Sprintf("failed to load %s of %s: %v", e.Tab.Slug(), e.Table, e.Err)
}

func (e *SchemaIntrospectionError) Unwrap() error {
	return e.Err
}

// IsConnectionLost reports whether err means the link to the server is gone
func IsConnectionLost(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == QueryConnectionLost
}

// classifier maps an engine specific error to a QueryErrorKind
type classifier func(error) QueryErrorKind

// wrapQuery turns a driver error into a *QueryError. Context errors win over the
// engine classification because drivers report them in engine specific ways.
func wrapQuery(op string, err error, classify classifier) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}

	kind := QueryOther
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = QueryTimeout
	case errors.Is(err, context.Canceled):
		kind = QueryCanceled
	case classify != nil:
		kind = classify(err)
	}
	if kind == QueryOther && isNetworkError(err) {
		kind = QueryConnectionLost
	}
	return &QueryError{Kind: kind, Op: op, Err: err}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
