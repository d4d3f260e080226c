package driver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazydb/internal/models"
)

var typeKinds = map[string]models.ValueKind{
	"int": models.KindInteger, "integer": models.KindInteger, "tinyint": models.KindInteger,
	"smallint": models.KindInteger, "mediumint": models.KindInteger, "bigint": models.KindInteger,
	"int2": models.KindInteger, "int4": models.KindInteger, "int8": models.KindInteger,
	"serial": models.KindInteger, "bigserial": models.KindInteger, "smallserial": models.KindInteger,
	"oid": models.KindInteger, "year": models.KindInteger,

	"float": models.KindFloat, "double": models.KindFloat, "double precision": models.KindFloat,
	"real": models.KindFloat, "float4": models.KindFloat, "float8": models.KindFloat,

	"decimal": models.KindDecimal, "numeric": models.KindDecimal, "money": models.KindDecimal,

	"bool": models.KindBoolean, "boolean": models.KindBoolean,

	"date": models.KindDateTime, "time": models.KindDateTime, "timetz": models.KindDateTime,
	"datetime": models.KindDateTime, "timestamp": models.KindDateTime, "timestamptz": models.KindDateTime,
	"timestamp with time zone": models.KindDateTime, "timestamp without time zone": models.KindDateTime,
	"time with time zone": models.KindDateTime, "time without time zone": models.KindDateTime,

	"blob": models.KindBlob, "tinyblob": models.KindBlob, "mediumblob": models.KindBlob,
	"longblob": models.KindBlob, "binary": models.KindBlob, "varbinary": models.KindBlob,
	"bytea": models.KindBlob, "bit": models.KindBlob, "geometry": models.KindBlob,
}

// classifyType maps a column type name reported by any engine to a value kind.
// Unknown names fall back to SQLite's affinity rules and finally to text.
func classifyType(typeName string) models.ValueKind {
	name := strings.ToLower(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(name, "unsigned "), " unsigned"))
	if kind, ok := typeKinds[name]; ok {
		return kind
	}

	switch {
	case strings.Contains(name, "int") && !strings.Contains(name, "interval") && !strings.Contains(name, "point"):
		return models.KindInteger
	case strings.Contains(name, "char"), strings.Contains(name, "clob"), strings.Contains(name, "text"):
		return models.KindText
	case strings.Contains(name, "blob"):
		return models.KindBlob
	case strings.Contains(name, "real"), strings.Contains(name, "floa"), strings.Contains(name, "doub"):
		return models.KindFloat
	default:
		return models.KindText
	}
}

func timeLayout(typeName string) string {
	name := strings.ToLower(typeName)
	switch {
	case name == "date":
		return "2006-01-02"
	case strings.HasPrefix(name, "time") && !strings.HasPrefix(name, "timestamp"):
		return "15:04:05.999999"
	case strings.Contains(name, "tz") || strings.Contains(name, "with time zone"):
		return "2006-01-02 15:04:05.999999-07:00"
	default:
		return "2006-01-02 15:04:05.999999"
	}
}

// convertValue produces the canonical cell for a value scanned from any engine
func convertValue(v any, typeName string) models.Cell {
	kind := classifyType(typeName)

	switch x := v.(type) {
	case nil:
		return models.NullCell()
	case int64:
		return intOrBool(x, kind)
	case int32:
		return intOrBool(int64(x), kind)
	case int16:
		return intOrBool(int64(x), kind)
	case int8:
		return intOrBool(int64(x), kind)
	case int:
		return intOrBool(int64(x), kind)
	case uint64:
		if x > 1<<63-1 {
			return models.DecimalCell(strconv.FormatUint(x, 10))
		}
		return models.IntCell(int64(x))
	case uint32:
		return models.IntCell(int64(x))
	case float64:
		if kind == models.KindDecimal {
			return models.DecimalCell(strconv.FormatFloat(x, 'f', -1, 64))
		}
		return models.FloatCell(x)
	case float32:
		return models.FloatCell(float64(x))
	case bool:
		return models.BoolCell(x)
	case time.Time:
		return models.TimeCell(x, timeLayout(typeName))
	case string:
		return fromText(x, kind)
	case []byte:
		if kind == models.KindBlob {
			return models.BlobCell(append([]byte(nil), x...))
		}
		return fromText(string(x), kind)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return models.TextCell(fmt.Sprintf("%v", x))
		}
		return models.TextCell(string(data))
	case fmt.Stringer:
		return models.TextCell(x.String())
	default:
		return models.TextCell(fmt.Sprintf("%v", x))
	}
}

func intOrBool(v int64, kind models.ValueKind) models.Cell {
	if kind == models.KindBoolean {
		return models.BoolCell(v != 0)
	}
	return models.IntCell(v)
}

// fromText parses values that arrive in text form, e.g. from the MySQL text protocol
func fromText(s string, kind models.ValueKind) models.Cell {
	switch kind {
	case models.KindInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return models.IntCell(n)
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			return models.DecimalCell(s)
		}
	case models.KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return models.FloatCell(f)
		}
	case models.KindDecimal:
		return models.DecimalCell(s)
	case models.KindBoolean:
		switch strings.ToLower(s) {
		case "1", "t", "true", "yes", "on":
			return models.BoolCell(true)
		case "0", "f", "false", "no", "off":
			return models.BoolCell(false)
		}
	case models.KindDateTime:
		return models.DateTimeTextCell(s)
	case models.KindBlob:
		return models.BlobCell([]byte(s))
	}
	return models.TextCell(s)
}
