package driver

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazydb/internal/models"
)

// dialect captures the SQL spelling differences between engines
type dialect struct {
	engine    models.Engine
	quoteChar byte
}

var (
	mysqlDialect    = dialect{engine: models.EngineMySQL, quoteChar: '`'}
	postgresDialect = dialect{engine: models.EnginePostgres, quoteChar: '"'}
	sqliteDialect   = dialect{engine: models.EngineSQLite, quoteChar: '"'}
)

// quote quotes an identifier, doubling any embedded quote character
func (d dialect) quote(ident string) string {
	q := string(d.quoteChar)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// qualified returns the fully qualified table name for the dialect
func (d dialect) qualified(t models.TableRef) string {
	switch d.engine {
	case models.EnginePostgres:
		if t.Schema != "" {
			return d.quote(t.Schema) + "." + d.quote(t.Name)
		}
		return d.quote(t.Name)
	default:
		if t.Database != "" {
			return d.quote(t.Database) + "." + d.quote(t.Name)
		}
		return d.quote(t.Name)
	}
}

// limitClause asks for one row more than limit so that has-more can be detected
func (d dialect) limitClause(offset, limit int) string {
	if d.engine == models.EngineMySQL {
		return fmt.Sprintf("LIMIT %d, %d", offset, limit+1)
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit+1, offset)
}

// selectPage builds the paginated SELECT for a structured page request
func (d dialect) selectPage(req models.PageRequest, offset, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(d.qualified(req.Table))

	if filter := strings.TrimSpace(req.Filter); filter != "" {
		b.WriteString(" WHERE ")
		b.WriteString(filter)
	}
	if req.Sort != nil && req.Sort.Column != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(d.quote(req.Sort.Column))
		b.WriteString(" ")
		b.WriteString(req.Sort.Direction.String())
	}
	b.WriteString(" ")
	b.WriteString(d.limitClause(offset, limit))
	return b.String()
}

// trimPage cuts the probe row fetched by limitClause and reports whether it existed
func trimPage(rows []models.Row, limit int) ([]models.Row, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}
