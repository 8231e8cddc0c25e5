package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemaining(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00:00", 0},
		{"00:04:59", 299},
		{"00:05:00", 300},
		{"01:00:00", 3600},
		{"08:00:00", 28800},
		{"00:59:59", 3599},
	}
	for _, tt := range tests {
		got, err := ParseRemaining(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRemainingRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "10:00", "1:2:3:4", "aa:bb:cc", "00:60:00", "00:00:61", "-1:00:00"} {
		_, err := ParseRemaining(in)
		assert.Error(t, err, in)
	}
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatRemaining(0))
	assert.Equal(t, "00:00:00", FormatRemaining(-5*time.Second))
	assert.Equal(t, "00:04:59", FormatRemaining(299*time.Second))
	assert.Equal(t, "01:00:00", FormatRemaining(time.Hour))
	// Sub-second remainders round up so a live timer never shows zero
	// while time is left.
	assert.Equal(t, "00:00:01", FormatRemaining(400*time.Millisecond))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, secs := range []int{0, 1, 59, 60, 299, 300, 3600, 28799} {
		s := FormatRemaining(time.Duration(secs) * time.Second)
		got, err := ParseRemaining(s)
		require.NoError(t, err)
		assert.Equal(t, secs, got)
	}
}
