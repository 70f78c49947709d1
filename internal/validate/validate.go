package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"stockledger/internal/domain"
)

const (
	maxName   = 100
	maxLot    = 50
	maxActor  = 100
	maxFilter = 100
	// MaxQty caps a single movement to catch typos like 10000000.
	MaxQty = 1_000_000
)

var (
	reDigits = regexp.MustCompile(`^[0-9]{1,12}$`)
	reDate   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
)

// Name validates an item name: required, printable, at most 100 characters.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxName {
		return "", false
	}
	return s, printable(s)
}

// Lot validates an optional lot code.
func Lot(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxLot {
		return "", false
	}
	return s, printable(s)
}

// Actor validates the optional name of whoever removed stock.
func Actor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxActor {
		return "", false
	}
	return s, printable(s)
}

// Qty parses a strictly positive quantity; out-of-range input is rejected, never clamped.
func Qty(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !reDigits.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxQty {
		return 0, false
	}
	return n, true
}

// ID parses a positive item id.
func ID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !reDigits.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil && n > 0
}

// Date parses an optional YYYY-MM-DD date. Blank input is a valid absent date.
func Date(s string) (domain.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{}, true
	}
	if !reDate.MatchString(s) {
		return domain.Date{}, false
	}
	d, err := domain.ParseDate(s)
	return d, err == nil
}

// Filter trims a stock-list search term and caps its length.
func Filter(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxFilter {
		s = string([]rune(s)[:maxFilter])
	}
	return s
}

func printable(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
