package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects how a grid selection is rendered for the clipboard
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a configured copy format, empty selects TSV
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatTSV:
		return FormatTSV, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown copy format %q", s)
	}
}

// Grid renders rows in the given format. Header is only used by CSV (as the
// first record) and JSON (as object keys); it may be nil.
func Grid(format Format, header []string, rows [][]string) (string, error) {
	switch format {
	case FormatCSV:
		return toDelimited(',', header, rows)
	case FormatJSON:
		return toJSON(header, rows)
	default:
		return toDelimited('\t', nil, rows)
	}
}

func toDelimited(comma rune, header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = comma

	if header != nil {
		if err := writer.Write(header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush rows: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func toJSON(header []string, rows [][]string) (string, error) {
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(row))
		for i, v := range row {
			key := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				key = header[i]
			}
			record[key] = v
		}
		records = append(records, record)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	return string(data), nil
}
