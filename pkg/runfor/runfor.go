// Package runfor renders and parses the "run for" column of the occurrence table:
// how long the application ran before it crashed, as "8d 2h 54m 41s".
package runfor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned when a duration token does not fit in the millisecond range.
var ErrInvalidDuration = errors.New("invalid run-for duration")

const (
	second int64 = 1000
	minute       = 60 * second
	hour         = 60 * minute
	day          = 24 * hour
)

var units = []struct {
	suffix byte
	millis int64
}{
	{'d', day},
	{'h', hour},
	{'m', minute},
	{'s', second},
}

// Format renders millis as days, hours, minutes and seconds. Leading zero units are
// omitted; once a unit has been written every finer unit follows. Zero renders "0s".
// Sub-second remainders are floored away.
func Format(millis int64) string {
	if millis < 0 {
		millis = 0
	}

	var parts []string
	rest := millis
	for _, u := range units {
		n := rest / u.millis
		rest -= n * u.millis
		if len(parts) == 0 && n == 0 {
			continue
		}
		parts = append(parts, strconv.FormatInt(n, 10)+string(u.suffix))
	}

	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// FormatDuration is Format for a time.Duration.
func FormatDuration(d time.Duration) string {
	return Format(d.Milliseconds())
}

// Parse reads a duration written by Format. For each unit the first "<digits><unit>"
// token is used; missing units count as zero and text without any token parses to 0.
func Parse(text string) (int64, error) {
	var total int64
	seen := make(map[byte]bool, len(units))

	for i := 0; i < len(text); {
		if !isDigit(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		if i == len(text) {
			break
		}

		suffix := text[i]
		unit, ok := unitFor(suffix)
		if !ok || seen[suffix] {
			continue
		}
		seen[suffix] = true

		n, err := strconv.ParseInt(text[start:i], 10, 64)
		if err != nil || n > math.MaxInt64/unit {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
		}
		if total > math.MaxInt64-n*unit {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
		}
		total += n * unit
		i++
	}

	return total, nil
}

// ParseDuration is Parse returning a time.Duration.
func ParseDuration(text string) (time.Duration, error) {
	ms, err := Parse(text)
	if err != nil {
		return 0, err
	}
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func unitFor(suffix byte) (int64, bool) {
	for _, u := range units {
		if u.suffix == suffix {
			return u.millis, true
		}
	}
	return 0, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
