package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseFloat parses a locale-formatted reading. A single decimal comma is
// accepted. Empty, unparseable, and non-finite inputs yield nil.
func ParseFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseTimestamp combines a DD/MM/YYYY date and an HH.MM.SS (or HH:MM:SS)
// time into a single instant in loc. Any shape it cannot interpret yields
// an error wrapping ErrMalformedRow.
func ParseTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("%w: missing date or time", ErrMalformedRow)
	}

	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedRow, date)
	}
	day, errD := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedRow, date)
	}

	hour, minute, second, ok := parseClock(strings.ReplaceAll(clock, ".", ":"))
	if !ok {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrMalformedRow, clock)
	}

	if loc == nil {
		loc = time.UTC
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	// time.Date normalizes out-of-range values; a changed component means the
	// input did not name a real calendar instant.
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedRow, date)
	}
	return ts, nil
}

func parseClock(s string) (hour, minute, second int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, false
	}
	vals := [3]int{}
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return 0, 0, 0, false
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, false
	}
	return vals[0], vals[1], vals[2], true
}
