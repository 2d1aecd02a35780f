// Package dateutils provides common date operations used throughout the application.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
)

// dayMonthYearFormats lists the layouts seen in club ledger exports:
// day-first with dot, slash or dash separators and two- or four-digit years.
var dayMonthYearFormats = []string{
	DateLayoutEuropean,
	"2.1.2006",
	"02.01.06",
	"2.1.06",
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
	"02-01-06",
}

// ParseDayMonthYear parses a day-month-year date string deterministically
// into a timestamp anchored at UTC midnight of that calendar day, so the
// result does not drift with the local timezone.
func ParseDayMonthYear(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, format := range dayMonthYearFormats {
		if t, err := time.ParseInLocation(format, cleaned, time.UTC); err == nil {
			return atUTCMidnight(t), nil
		}
	}

	// ISO dates appear in some spreadsheet re-exports.
	if t, err := time.ParseInLocation(DateLayoutISO, cleaned, time.UTC); err == nil {
		return atUTCMidnight(t), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// IsDate reports whether the string parses as a supported date. Used for
// paid-status fields that carry the payment date instead of a flag.
func IsDate(s string) bool {
	_, err := ParseDayMonthYear(s)
	return err == nil
}

// CleanDateString removes unwanted characters and normalizes a date string.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	re := regexp.MustCompile(`\s+`)
	return re.ReplaceAllString(dateStr, " ")
}

func atUTCMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
