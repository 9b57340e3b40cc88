package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{name: "decimal comma", in: "2,6", want: ptr(2.6)},
		{name: "decimal point", in: "11.9", want: ptr(11.9)},
		{name: "surrounding whitespace", in: "  1360 ", want: ptr(1360)},
		{name: "negative sentinel kept", in: "-200", want: ptr(-200)},
		{name: "empty", in: "", want: nil},
		{name: "blank", in: "   ", want: nil},
		{name: "garbage", in: "n/a", want: nil},
		{name: "NaN", in: "NaN", want: nil},
		{name: "infinity", in: "Inf", want: nil},
		{name: "two commas", in: "1,2,3", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Run("dotted time", func(t *testing.T) {
		ts, err := ParseTimestamp("10/03/2004", "18.00.00", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2004, time.March, 10, 18, 0, 0, 0, time.UTC), ts)
	})

	t.Run("colon time without seconds", func(t *testing.T) {
		ts, err := ParseTimestamp(" 04/04/2005 ", "14:30", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2005, time.April, 4, 14, 30, 0, 0, time.UTC), ts)
	})

	t.Run("nil location defaults to UTC", func(t *testing.T) {
		ts, err := ParseTimestamp("10/03/2004", "00.00.00", nil)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, ts.Location())
	})

	t.Run("configured location", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		ts, err := ParseTimestamp("10/03/2004", "18.00.00", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2004, time.March, 10, 17, 0, 0, 0, time.UTC), ts.UTC())
	})

	malformed := []struct {
		name, date, clock string
	}{
		{name: "missing date", date: "", clock: "18.00.00"},
		{name: "missing time", date: "10/03/2004", clock: ""},
		{name: "ISO date", date: "2004-03-10", clock: "18.00.00"},
		{name: "two date parts", date: "10/03", clock: "18.00.00"},
		{name: "four date parts", date: "10/03/2004/1", clock: "18.00.00"},
		{name: "non-numeric day", date: "xx/03/2004", clock: "18.00.00"},
		{name: "impossible day", date: "31/02/2004", clock: "18.00.00"},
		{name: "month 13", date: "10/13/2004", clock: "18.00.00"},
		{name: "hour 25", date: "10/03/2004", clock: "25.00.00"},
		{name: "minute 60", date: "10/03/2004", clock: "18.60.00"},
		{name: "hour only", date: "10/03/2004", clock: "18"},
		{name: "garbage time", date: "10/03/2004", clock: "noon"},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.date, tt.clock, time.UTC)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRow))
		})
	}
}
