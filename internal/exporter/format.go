package exporter

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the date format of every dated column.
const DateLayout = "2006-01-02"

// formatFloat prints the shortest representation, so 1000 stays "1000" and
// 12.5 stays "12.5".
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBool matches the True/False spelling of the original exports.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatValue renders a table cell for CSV. nil is an empty field.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val)
	case *float64:
		if val == nil {
			return ""
		}
		return formatFloat(*val)
	case int:
		return strconv.Itoa(val)
	case bool:
		return formatBool(val)
	case time.Time:
		return val.Format(DateLayout)
	default:
		return fmt.Sprint(val)
	}
}

// cellValue converts a table cell for a workbook: pointers are
// dereferenced, dates become text, booleans keep their CSV spelling.
func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *float64:
		if val == nil {
			return nil
		}
		return *val
	case bool:
		return formatBool(val)
	case time.Time:
		return val.Format(DateLayout)
	default:
		return val
	}
}
