// Package timeutil parses the compact time windows used by reports.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when no window is given.
const DefaultWindow = "1w"

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
)

type unit struct {
	label   string
	aliases []string
	size    time.Duration
}

// units is ordered largest first; FormatWindow relies on that.
var units = []unit{
	{"mo", []string{"mo", "mon", "month", "months"}, month},
	{"w", []string{"w", "wk", "wks", "week", "weeks"}, week},
	{"d", []string{"d", "day", "days"}, day},
	{"h", []string{"h", "hr", "hrs", "hour", "hours"}, time.Hour},
	{"m", []string{"m", "min", "mins", "minute", "minutes"}, time.Minute},
}

var segment = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)

func lookup(s string) (time.Duration, bool) {
	for _, u := range units {
		for _, a := range u.aliases {
			if a == s {
				return u.size, true
			}
		}
	}
	return 0, false
}

// Window is a span of time ending now.
type Window struct {
	Duration time.Duration
	// Label is the canonical compact form, e.g. "1w2d".
	Label string
}

// Range returns the window's bounds ending at now.
func (w Window) Range(now time.Time) (since, until time.Time) {
	return now.Add(-w.Duration), now
}

// ParseWindow parses strings such as "1w", "3d" or "1mo2w6h". An empty input
// yields DefaultWindow.
func ParseWindow(input string) (Window, error) {
	rest := strings.ToLower(strings.TrimSpace(input))
	if rest == "" {
		rest = DefaultWindow
	}
	var total time.Duration
	for rest != "" {
		m := segment.FindStringSubmatch(rest)
		if m == nil {
			return Window{}, fmt.Errorf("invalid window segment %q", strings.TrimSpace(rest))
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Window{}, fmt.Errorf("invalid window value %q: %w", m[1], err)
		}
		size, ok := lookup(m[2])
		if !ok {
			return Window{}, fmt.Errorf("unsupported window unit %q", m[2])
		}
		total += time.Duration(n) * size
		rest = strings.TrimSpace(rest[len(m[0]):])
	}
	if total <= 0 {
		return Window{}, fmt.Errorf("window must be longer than zero")
	}
	return Window{Duration: total, Label: FormatWindow(total)}, nil
}

// FormatWindow renders d with the largest units first, dropping seconds.
func FormatWindow(d time.Duration) string {
	var b strings.Builder
	for _, u := range units {
		if d < u.size {
			continue
		}
		n := d / u.size
		d -= n * u.size
		fmt.Fprintf(&b, "%d%s", n, u.label)
	}
	if b.Len() == 0 {
		return "0m"
	}
	return b.String()
}
