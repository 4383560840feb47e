package document

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Day-first wins over month-first for
// ambiguous values such as 05/06/2030.
var dateLayouts = []string{
	"2/1/2006", "2-1-2006", "2.1.2006",
	"2/1/06", "2-1-06", "2.1.06",
	"1/2/2006", "1-2-2006", "1.2.2006",
	"2006/1/2", "2006-1-2", "2006.1.2",
	"2 January 2006", "2 Jan 2006", "2-Jan-2006", "January 2, 2006", "Jan 2, 2006",
}

// ParseDate normalizes a date written with any of the common separators and
// day/month orders. It returns nil when no layout fits.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// mrzCenturyCutoff is the first two digit year read as 19xx.
const mrzCenturyCutoff = 50

// ParseMRZDate decodes a yyMMdd MRZ date. Years below 50 are 20xx and the
// rest 19xx, with no correction for dates lying in the future.
func ParseMRZDate(s string) *time.Time {
	if len(s) != 6 || !isDigits(s) {
		return nil
	}
	yy, _ := strconv.Atoi(s[:2])
	century := "20"
	if yy >= mrzCenturyCutoff {
		century = "19"
	}
	t, err := time.Parse("20060102", century+s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseCompactDate decodes an unseparated DDMMYYYY run. Runs of 9 or 10
// digits are read as DDMMYYYY from the first digit, then from the second
// one, since OCR often prepends a stray digit.
func ParseCompactDate(digits string) *time.Time {
	if !isDigits(digits) {
		return nil
	}
	switch n := len(digits); {
	case n == 8:
		return parseDDMMYYYY(digits)
	case n == 9 || n == 10:
		if t := parseDDMMYYYY(digits[:8]); t != nil {
			return t
		}
		return parseDDMMYYYY(digits[1:9])
	}
	return nil
}

func parseDDMMYYYY(s string) *time.Time {
	t, err := time.Parse("02012006", s)
	if err != nil {
		return nil
	}
	return &t
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

// parseAnyDate accepts either a separated date or a compact digit run.
func parseAnyDate(s string) *time.Time {
	if isDigits(s) {
		return ParseCompactDate(s)
	}
	return ParseDate(s)
}
