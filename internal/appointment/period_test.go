package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, Month, ParsePeriod(""))
	assert.Equal(t, Month, ParsePeriod("Month"))
	assert.Equal(t, Year, ParsePeriod("year"))
	assert.Equal(t, Week, ParsePeriod("week"))
	assert.Equal(t, Week, ParsePeriod("fortnight"))
}

func TestPeriodRange(t *testing.T) {
	// Thursday
	now := time.Date(2030, time.February, 14, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period    Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			Week,
			time.Date(2030, time.February, 11, 0, 0, 0, 0, time.UTC),
			time.Date(2030, time.February, 17, 23, 59, 59, 999999999, time.UTC),
		},
		{
			Month,
			time.Date(2030, time.February, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2030, time.February, 28, 23, 59, 59, 999999999, time.UTC),
		},
		{
			Year,
			time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2030, time.December, 31, 23, 59, 59, 999999999, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := tt.period.Range(now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestWeekRangeOnSunday(t *testing.T) {
	sunday := time.Date(2030, time.February, 17, 8, 0, 0, 0, time.UTC)
	start, end := Week.Range(sunday)
	assert.Equal(t, time.Date(2030, time.February, 11, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.True(t, end.After(sunday))
}
