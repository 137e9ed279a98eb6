// Package convert parses scalar values scraped from document text: dates,
// French-formatted amounts, percentages, periods and number/unit pairs.
//
// All converters fail fast with a descriptive error instead of guessing,
// since scraped cells routinely shift by one column and silent misparses
// are much harder to track down than hard failures.
package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotNumeric reports input that does not parse as a number at all, as
// opposed to input with the wrong shape (missing unit, bad date part
// count). Check for it with errors.Is.
var ErrNotNumeric = errors.New("not a numeric value")

// DMYDate parses a day/month/year date like "09/05/2018". Two-digit years
// are taken in the 2000s: "09/05/18" parses the same as "09/05/2018".
func DMYDate(s string) (time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("parse date %q: expected day/month/year", s)
	}
	if len(parts[2]) == 2 {
		parts[2] = "20" + parts[2]
	}
	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, ErrNotNumeric)
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("parse date %q: no such date", s)
	}
	return t, nil
}

// Float parses a French-formatted number like "25 028,80": spaces are
// thousands separators and the comma is the decimal mark.
func Float(s string) (float64, error) {
	cleaned := strings.ReplaceAll(s, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, ErrNotNumeric)
	}
	return f, nil
}

// Amount parses a monetary amount like "25 028,80 €", "25 028,80 EUR" or
// "4,326 c€" (centimes, scaled by 0.01). The currency marker is optional.
// Results are rounded to 6 decimal places.
func Amount(s string) (float64, error) {
	cleaned := strings.ReplaceAll(s, "€", "")
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.ReplaceAll(cleaned, "eur", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("parse amount %q: %w", s, ErrNotNumeric)
	}
	factor := 1.0
	if cleaned[len(cleaned)-1] == 'c' {
		cleaned = cleaned[:len(cleaned)-1]
		factor = 0.01
	}
	f, err := Float(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return round6(f * factor), nil
}

// AmountUnit parses an amount with a per-unit suffix like "25 028,80 €/mois"
// and returns the amount and the unit.
func AmountUnit(s string) (float64, string, error) {
	amountStr, unit, ok := strings.Cut(s, "/")
	if !ok {
		return 0, "", fmt.Errorf("parse amount with unit %q: expected amount/unit", s)
	}
	amount, err := Amount(amountStr)
	if err != nil {
		return 0, "", err
	}
	return amount, strings.TrimSpace(unit), nil
}

// Percent parses a percentage like "20,00%" and returns its value (20),
// not the ratio.
func Percent(s string) (float64, error) {
	f, err := Float(strings.ReplaceAll(s, "%", ""))
	if err != nil {
		return 0, fmt.Errorf("parse percentage %q: %w", s, ErrNotNumeric)
	}
	return f, nil
}

// Period parses a French period like "du 01/05/2018 au 31/05/2018" and
// returns its start and end dates.
func Period(s string) (time.Time, time.Time, error) {
	fromStr, toStr, ok := strings.Cut(s, " au ")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("parse period %q: expected \"du ... au ...\"", s)
	}
	fromStr = strings.Replace(fromStr, "du ", "", 1)
	from, err := DMYDate(strings.TrimSpace(fromStr))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	to, err := DMYDate(strings.TrimSpace(toStr))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return from, to, nil
}

// FloatUnit parses a number followed by a unit, like "25 028 kWh" or
// "- 25 028.2 € / W", splitting at the first rune that cannot belong to the
// number.
func FloatUnit(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	split := len(s)
	for i, r := range s {
		if !strings.ContainsRune("-0123456789,. ", r) {
			split = i
			break
		}
	}
	if split == len(s) {
		return 0, "", fmt.Errorf("parse number with unit %q: no unit found", s)
	}
	f, err := Float(strings.TrimSpace(s[:split]))
	if err != nil {
		return 0, "", fmt.Errorf("parse number with unit %q: %w", s, err)
	}
	return f, strings.TrimSpace(s[split:]), nil
}

// LastWord returns the last whitespace-separated word of a line, or the
// empty string for a blank line.
func LastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ColonRight returns the trimmed text after the last colon of a line like
// "colon separated : value".
func ColonRight(s string) string {
	parts := strings.Split(s, ":")
	return strings.TrimSpace(parts[len(parts)-1])
}

func round6(f float64) float64 {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}
