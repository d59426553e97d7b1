package domain

import "strings"

// FormatKind classifies how a column is displayed.
type FormatKind int

const (
	FormatText FormatKind = iota
	FormatNumber
	FormatDateTime
)

// ColumnFormat is the display format of one tab column.
type ColumnFormat struct {
	Kind    FormatKind
	Pattern string // spreadsheet number pattern; empty for text
}

// DateTimePattern renders timestamps as UTC.
const DateTimePattern = `yyyy-mm-dd hh:mm:ss"Z"`

// FormatForColumn picks a display format from the column name suffix:
// *time* columns are date-times, _ft and _s one decimal, _deg and _kt whole
// numbers. Everything else, including station ids, stays text.
func FormatForColumn(name string) ColumnFormat {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(lower, "time"):
		return ColumnFormat{Kind: FormatDateTime, Pattern: DateTimePattern}
	case strings.HasSuffix(lower, "_ft"), strings.HasSuffix(lower, "_s"):
		return ColumnFormat{Kind: FormatNumber, Pattern: "0.0"}
	case strings.HasSuffix(lower, "_deg"), strings.HasSuffix(lower, "_kt"):
		return ColumnFormat{Kind: FormatNumber, Pattern: "0"}
	default:
		return ColumnFormat{Kind: FormatText}
	}
}

// ColumnWidth returns the display width in pixels: the first column holds a
// timestamp and is wider.
func ColumnWidth(index int) int {
	if index == 0 {
		return 210
	}
	return 110
}
