package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
		want  string
	}{
		{"date and time", "Thursday, November 29, 2025", "3:00PM", "Thursday, November 29 at 3:00 PM"},
		{"slash date only", "11/29/2025", "", "11/29"},
		{"lowercase time only", "", "8:00am", "8:00 AM"},
		{"space separated year", "November 29 2025", "", "November 29"},
		{"spaced lowercase meridiem", "", "8:00 pm – 9:30 pm", "8:00 PM – 9:30 PM"},
		{"already normalized", "Saturday, November 29", "3:00 PM – 5:30 PM", "Saturday, November 29 at 3:00 PM – 5:30 PM"},
		{"empty", "", "", ""},
		{"whitespace", "   ", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDateTime(tt.date, tt.clock))
		})
	}
}

func TestNormalizeDateOnlyStripsFirstYear(t *testing.T) {
	assert.Equal(t, "Thursday, November 29", NormalizeDate("Thursday, November 29, 2025"))
	assert.Equal(t, "11/29", NormalizeDate("11/29/25"))
	assert.Equal(t, "", NormalizeDate(""))
}

func TestParseTimestamp(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	got, ok := ParseTimestamp("2025-11-29T15:00:00", est)
	assert.True(t, ok)
	assert.True(t, time.Date(2025, 11, 29, 15, 0, 0, 0, est).Equal(got))

	got, ok = ParseTimestamp("2025-11-29T20:00:00Z", est)
	assert.True(t, ok)
	assert.Equal(t, 15, got.Hour())
	assert.Equal(t, est, got.Location())

	got, ok = ParseTimestamp("2025-11-29 09:30", time.UTC)
	assert.True(t, ok)
	assert.Equal(t, 9, got.Hour())

	_, ok = ParseTimestamp("2025-11-29T20:00:00.123+0100", time.UTC)
	assert.True(t, ok)

	_, ok = ParseTimestamp("next Tuesday", time.UTC)
	assert.False(t, ok)
	_, ok = ParseTimestamp("", time.UTC)
	assert.False(t, ok)
}

func TestFormatSchedule(t *testing.T) {
	date, clock := formatSchedule("2025-11-29T15:00:00", "2025-11-29T17:30:00", time.UTC)
	assert.Equal(t, "Saturday, November 29", date)
	assert.Equal(t, "3:00 PM – 5:30 PM", clock)

	date, clock = formatSchedule("2025-11-29T15:00:00", "2025-11-29T15:00:00", time.UTC)
	assert.Equal(t, "Saturday, November 29", date)
	assert.Equal(t, "3:00 PM", clock)

	_, clock = formatSchedule("2025-11-29T15:00:00", "", time.UTC)
	assert.Equal(t, "3:00 PM", clock)

	date, clock = formatSchedule("", "2025-11-29T17:30:00", time.UTC)
	assert.Equal(t, "", date)
	assert.Equal(t, "", clock)

	date, clock = formatSchedule("garbage", "", time.UTC)
	assert.Equal(t, "", date)
	assert.Equal(t, "", clock)
}
