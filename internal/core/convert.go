package core

// convert.go recognizes the value shapes found in user-provided tabular text:
//   - Missing-value markers written by spreadsheets and data tools
//   - Plain numbers, as a CSV reader parses them (ParseCSVNumber)
//   - Formatted numbers with currency symbols and accounting negatives (ParseNumber)
//   - Multiple date formats (US, EU, ISO, timestamps)
//   - Boolean literals
//
// The strict parsers back the default type inference. The lenient ones feed
// the column profiles given to the classifier model.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// groupedRegex matches digits grouped in threes by commas, e.g. 1,234,567.89.
var groupedRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// naValues are the cell texts a CSV reader loads as missing.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05",
		"2006-01-02 15:04", "1/2/2006 15:04", "01/02/2006 15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
	}
)

// IsNAValue reports whether a cell's text marks a missing value.
// Matching is case-sensitive: "NA" and "nan" are missing, "Na" is not.
func IsNAValue(s string) bool {
	_, ok := naValues[strings.TrimSpace(s)]
	return ok
}

// ParseCSVNumber parses a cell the way a CSV reader types numeric columns:
// plain integers, decimals and exponents only. Separators, currency symbols
// and quote marks make the cell text.
func ParseCSVNumber(s string) (value float64, integral bool, ok bool) {
	return parsePlainNumber(strings.TrimSpace(s))
}

// ParseNumber parses a numeric cell, tolerating currency symbols, accounting
// negatives and thousands separators at grouping positions. integral reports
// whether the value was written without a decimal point or exponent.
func ParseNumber(s string) (value float64, integral bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "").Replace(s)
	s = strings.TrimSpace(s)
	if isNegative {
		s = "-" + s
	}

	if strings.Contains(s, ",") {
		if !groupedRegex.MatchString(s) {
			return 0, false, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	return parsePlainNumber(s)
}

func parsePlainNumber(s string) (value float64, integral bool, ok bool) {
	if !numericRegex.MatchString(s) {
		return 0, false, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false, false
	}

	integral = !strings.ContainsAny(s, ".eE")
	return v, integral, true
}

// ParseDate parses a date or timestamp cell.
// Supports multiple layouts and handles 2-digit years with a pivot.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseBool recognizes the boolean literals a CSV reader treats as booleans.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
