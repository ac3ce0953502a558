package tui

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^05\d{8}$`)
)

func validEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

func validPhone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}

// parseAmount parses a positive monetary amount. Returns 0, false for
// anything empty, malformed, or non-positive.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
