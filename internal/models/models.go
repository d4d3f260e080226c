package models

import "strings"

// Tab identifies one of the table view tabs
type Tab int

const (
	TabRecords Tab = iota
	TabColumns
	TabConstraints
	TabForeignKeys
	TabIndexes
)

// Tabs lists every tab in display order
var Tabs = []Tab{TabRecords, TabColumns, TabConstraints, TabForeignKeys, TabIndexes}

func (t Tab) String() string {
	switch t {
	case TabRecords:
		return "Records"
	case TabColumns:
		return "Columns"
	case TabConstraints:
		return "Constraints"
	case TabForeignKeys:
		return "Foreign Keys"
	case TabIndexes:
		return "Indexes"
	default:
		return "Unknown"
	}
}

// Slug is the short lowercase name used in view ids and logs
func (t Tab) Slug() string {
	switch t {
	case TabRecords:
		return "records"
	case TabColumns:
		return "columns"
	case TabConstraints:
		return "constraints"
	case TabForeignKeys:
		return "foreign_keys"
	case TabIndexes:
		return "indexes"
	default:
		return "unknown"
	}
}

// Database is a namespace listed by the engine (a MySQL schema, the connected
// PostgreSQL database, or an attached SQLite database)
type Database struct {
	Name   string
	Tables []TableRef
}

// TableRef names one table. Schema is only set for PostgreSQL.
type TableRef struct {
	Database string
	Schema   string
	Name     string
	Engine   string // storage engine reported by MySQL, empty elsewhere
}

// String is the dotted display form, e.g. "public.users"
func (t TableRef) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Database, t.Schema, t.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Key is a stable identifier for the table, independent of Engine
func (t TableRef) Key() string {
	return t.Database + "." + t.Schema + "." + t.Name
}

// Column describes one column definition
type Column struct {
	Name         string
	DataType     string
	Nullable     bool
	DefaultValue string
	PrimaryKey   bool
	Comment      string
}

// Constraint represents a table constraint
type Constraint struct {
	Name       string
	Type       string // PRIMARY KEY, UNIQUE, FOREIGN KEY, CHECK
	Columns    []string
	Definition string
}

// ForeignKey represents one foreign key relationship
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnUpdate   string
	OnDelete   string
}

// Index represents an index
type Index struct {
	Name    string
	Type    string // btree, hash, ...
	Columns []string
	Unique  bool
	Primary bool
}

// SchemaObject is the catalog snapshot of one table. Sections that have not been
// introspected yet are nil; a loaded but empty section is a non-nil empty slice.
type SchemaObject struct {
	Table       TableRef
	Columns     []Column
	Constraints []Constraint
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Has reports whether the section backing tab has been loaded
func (s *SchemaObject) Has(tab Tab) bool {
	if s == nil {
		return false
	}
	switch tab {
	case TabColumns:
		return s.Columns != nil
	case TabConstraints:
		return s.Constraints != nil
	case TabForeignKeys:
		return s.ForeignKeys != nil
	case TabIndexes:
		return s.Indexes != nil
	default:
		return false
	}
}

// Grid renders the section backing tab as headers and string rows
func (s *SchemaObject) Grid(tab Tab) ([]string, [][]string) {
	if s == nil {
		return nil, nil
	}
	switch tab {
	case TabColumns:
		rows := make([][]string, 0, len(s.Columns))
		for _, c := range s.Columns {
			rows = append(rows, []string{c.Name, c.DataType, yesNo(c.Nullable), c.DefaultValue, yesNo(c.PrimaryKey), c.Comment})
		}
		return []string{"name", "type", "null", "default", "primary", "comment"}, rows
	case TabConstraints:
		rows := make([][]string, 0, len(s.Constraints))
		for _, c := range s.Constraints {
			rows = append(rows, []string{c.Name, c.Type, strings.Join(c.Columns, ", "), c.Definition})
		}
		return []string{"name", "type", "columns", "definition"}, rows
	case TabForeignKeys:
		rows := make([][]string, 0, len(s.ForeignKeys))
		for _, fk := range s.ForeignKeys {
			rows = append(rows, []string{
				fk.Name,
				strings.Join(fk.Columns, ", "),
				fk.RefTable,
				strings.Join(fk.RefColumns, ", "),
				fk.OnUpdate,
				fk.OnDelete,
			})
		}
		return []string{"name", "columns", "ref_table", "ref_columns", "on_update", "on_delete"}, rows
	case TabIndexes:
		rows := make([][]string, 0, len(s.Indexes))
		for _, idx := range s.Indexes {
			rows = append(rows, []string{idx.Name, idx.Type, strings.Join(idx.Columns, ", "), yesNo(idx.Unique), yesNo(idx.Primary)})
		}
		return []string{"name", "type", "columns", "unique", "primary"}, rows
	default:
		return nil, nil
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
