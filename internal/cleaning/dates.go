package cleaning

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate tries each layout in order and keeps the first that parses. Values no
// layout accepts go through the generic parser; anything still unparsed is
// reported as missing. The result is a UTC calendar date.
func ParseDate(value string, layouts []string) *time.Time {
	value = strings.TrimSpace(value)
	if isMissingToken(value) {
		return nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t)
		}
	}

	if t, ok := parseFallback(value); ok {
		return dateOnly(t)
	}
	return nil
}

func parseFallback(value string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	parsed, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
