// Package clock converts between HHMM time tokens and minutes since midnight.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a day in minutes.
const MinutesPerDay = 24 * 60

// FormatError reports a time token that could not be normalized.
type FormatError struct {
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Token, e.Reason)
}

// Parse converts a token such as "0900", "900", or "9:00" into minutes since
// midnight. "2400" is accepted as the end of the day.
func Parse(token string) (int, error) {
	tok := strings.TrimSpace(token)

	var digits string
	if h, m, ok := strings.Cut(tok, ":"); ok {
		h = strings.TrimSpace(h)
		m = strings.TrimSpace(m)
		if len(m) != 2 || len(h) == 0 || len(h) > 2 {
			return 0, &FormatError{Token: token, Reason: "expected H:MM or HH:MM"}
		}
		if len(h) == 1 {
			h = "0" + h
		}
		digits = h + m
	} else {
		digits = onlyDigits(tok)
		if len(digits) == 3 {
			digits = "0" + digits
		}
	}

	if len(digits) != 4 || onlyDigits(digits) != digits {
		return 0, &FormatError{Token: token, Reason: "expected 4 digits after normalization"}
	}

	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if mm > 59 {
		return 0, &FormatError{Token: token, Reason: "minutes out of range"}
	}

	total := hh*60 + mm
	if total > MinutesPerDay {
		return 0, &FormatError{Token: token, Reason: "past end of day"}
	}

	return total, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(token string) int {
	m, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return m
}

// Format renders minutes since midnight as a zero-padded HHMM token.
func Format(minutes int) string {
	return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
}

// FormatColon renders minutes since midnight as HH:MM.
func FormatColon(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
