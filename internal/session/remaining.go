package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseRemaining parses a server remaining-time string in HH:MM:SS
// format into whole seconds.
func ParseRemaining(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid remaining time %q: want HH:MM:SS", s)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid remaining time %q: bad field %q", s, p)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid remaining time %q: minutes and seconds must be < 60", s)
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// FormatRemaining renders a duration as HH:MM:SS, clamping negatives
// to 00:00:00. Sub-second remainders round up so a timer never reads
// 00:00:00 while time is actually left.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
