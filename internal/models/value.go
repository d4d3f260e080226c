package models

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValueKind tags the raw representation of a cell
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindText
	KindBoolean
	KindDateTime
	KindBlob
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindDateTime:
		return "datetime"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Value is the engine independent raw value of a cell.
// Only the field matching Kind is meaningful, except Text which keeps
// the textual form for decimals and for date/time values that did not parse.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Bool  bool
	Time  time.Time
	Bytes []byte
}

// Cell is one grid value: a display string plus the raw value it was rendered from
type Cell struct {
	Display string
	Raw     Value
}

// IsNull reports whether the cell holds SQL NULL
func (c Cell) IsNull() bool {
	return c.Raw.Kind == KindNull
}

// Row is an ordered sequence of cells
type Row []Cell

const NullDisplay = "NULL"

func NullCell() Cell {
	return Cell{Display: NullDisplay, Raw: Value{Kind: KindNull}}
}

func IntCell(v int64) Cell {
	return Cell{Display: strconv.FormatInt(v, 10), Raw: Value{Kind: KindInteger, Int: v}}
}

func FloatCell(v float64) Cell {
	return Cell{Display: strconv.FormatFloat(v, 'g', -1, 64), Raw: Value{Kind: KindFloat, Float: v}}
}

func DecimalCell(s string) Cell {
	return Cell{Display: s, Raw: Value{Kind: KindDecimal, Text: s}}
}

func TextCell(s string) Cell {
	return Cell{Display: s, Raw: Value{Kind: KindText, Text: s}}
}

func BoolCell(v bool) Cell {
	return Cell{Display: strconv.FormatBool(v), Raw: Value{Kind: KindBoolean, Bool: v}}
}

// TimeCell renders t using layout; an empty layout picks one from the time's precision.
func TimeCell(t time.Time, layout string) Cell {
	if layout == "" {
		layout = "2006-01-02 15:04:05.999999"
	}
	return Cell{Display: t.Format(layout), Raw: Value{Kind: KindDateTime, Time: t}}
}

// DateTimeTextCell is used when an engine hands back date/time values as text
func DateTimeTextCell(s string) Cell {
	return Cell{Display: s, Raw: Value{Kind: KindDateTime, Text: s}}
}

// BlobCell displays valid UTF-8 as-is and anything else as hex
func BlobCell(b []byte) Cell {
	display := string(b)
	if !utf8.Valid(b) {
		display = "0x" + strings.ToUpper(hex.EncodeToString(b))
	}
	return Cell{Display: display, Raw: Value{Kind: KindBlob, Bytes: b}}
}
