// Package clock converts between elapsed seconds and the HH:MM:SS / MM:SS
// strings stored on sets.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders seconds as HH:MM:SS when withHours is set, MM:SS otherwise.
// Hours wrap at 24 and minutes at 60 in the short form.
func Format(seconds int, withHours bool) string {
	if seconds < 0 {
		seconds = 0
	}
	h := (seconds / 3600) % 24
	m := (seconds / 60) % 60
	s := seconds % 60
	if withHours {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds parses MM:SS or HH:MM:SS. Malformed input yields 0.
func Seconds(text string) int {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
