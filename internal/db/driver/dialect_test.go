package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rebeliceyang/lazydb/internal/models"
)

func TestDialectSelectPage(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect
		req     models.PageRequest
		offset  int
		limit   int
		want    string
	}{
		{
			name:    "mysql uses offset, count",
			dialect: mysqlDialect,
			req:     models.PageRequest{Table: models.TableRef{Database: "app", Name: "users"}},
			offset:  200,
			limit:   200,
			want:    "SELECT * FROM `app`.`users` LIMIT 200, 201",
		},
		{
			name:    "postgres qualifies with schema",
			dialect: postgresDialect,
			req: models.PageRequest{
				Table:  models.TableRef{Database: "app", Schema: "public", Name: "users"},
				Filter: "age > 20",
				Sort:   &models.SortSpec{Column: "name", Direction: models.Descending},
			},
			limit: 50,
			want:  `SELECT * FROM "public"."users" WHERE age > 20 ORDER BY "name" DESC LIMIT 51 OFFSET 0`,
		},
		{
			name:    "sqlite qualifies with attached database",
			dialect: sqliteDialect,
			req: models.PageRequest{
				Table: models.TableRef{Database: "main", Name: "users"},
				Sort:  &models.SortSpec{Column: "id"},
			},
			offset: 10,
			limit:  10,
			want:   `SELECT * FROM "main"."users" ORDER BY "id" ASC LIMIT 11 OFFSET 10`,
		},
		{
			name:    "blank filter is ignored",
			dialect: sqliteDialect,
			req:     models.PageRequest{Table: models.TableRef{Name: "t"}, Filter: "   "},
			limit:   1,
			want:    `SELECT * FROM "t" LIMIT 2 OFFSET 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.selectPage(tt.req, tt.offset, tt.limit))
		})
	}
}

func TestDialectQuoteEscapesEmbeddedQuotes(t *testing.T) {
	assert.Equal(t, "`we``ird`", mysqlDialect.quote("we`ird"))
	assert.Equal(t, `"we""ird"`, postgresDialect.quote(`we"ird`))
}

func TestTrimPage(t *testing.T) {
	rows := []models.Row{{models.IntCell(1)}, {models.IntCell(2)}, {models.IntCell(3)}}

	page, more := trimPage(rows, 2)
	assert.Len(t, page, 2)
	assert.True(t, more)

	page, more = trimPage(rows, 3)
	assert.Len(t, page, 3)
	assert.False(t, more)
}
