package parser

import (
	"strconv"
	"strings"
	"time"
)

// dateFormats are the calendar-date spellings accepted across formats:
// dotted day-first (bank exports), ISO date, and ISO datetime with or
// without a zone offset.
var dateFormats = []string{
	"02.01.2006",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

func parseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &InvalidFieldValueError{Field: "date", Value: s}
}

// parseAmount normalizes comma and dot decimal separators. Empty cells are
// zero (placeholder cells in bank exports), a trailing separator means whole
// units ("100," is 100.00), and any non-numeric remainder is rejected.
func parseAmount(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}

	normalized := strings.ReplaceAll(trimmed, ",", ".")
	normalized = strings.ReplaceAll(normalized, " ", "")
	if strings.HasSuffix(normalized, ".") {
		normalized += "00"
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, &InvalidFieldValueError{Field: "amount", Value: s}
	}
	return value, nil
}

// formatAmount renders two decimal places with a dot separator.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// formatAmountComma renders two decimal places with a comma separator, as
// used by the heuristic CSV layout and MT940.
func formatAmountComma(amount float64) string {
	return strings.ReplaceAll(formatAmount(amount), ".", ",")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
