package utils

import (
	"fmt"
	"strings"
	"time"
)

func NormalizePattern(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func Plural(n int64, singular, plural string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// HumanDuration renders durations the way admins write them: 90m -> 1h30m,
// whole days collapse to Nd.
func HumanDuration(d time.Duration) string {
	if d <= 0 {
		return "permanent"
	}
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	}
	return d.Round(time.Minute).String()
}

// ParseDuration accepts time.ParseDuration formats plus a "d" suffix for days.
func ParseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
