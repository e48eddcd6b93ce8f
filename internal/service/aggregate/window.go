package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// Window is a trailing time window ending at the run's clock.
type Window struct {
	Name       string
	Lookback   time.Duration
	StartOfDay bool
}

var (
	Last7Days  = Window{Name: "7d", Lookback: 7 * 24 * time.Hour}
	Last30Days = Window{Name: "30d", Lookback: 30 * 24 * time.Hour}
	Today      = Window{Name: "today", StartOfDay: true}
	AllTime    = Window{Name: "all"}
)

// ParseWindow accepts the named windows or any positive Go duration ("48h").
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "7d", "week":
		return Last7Days, nil
	case "30d", "month":
		return Last30Days, nil
	case "today", "1d":
		return Today, nil
	case "all":
		return AllTime, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	return Window{Name: s, Lookback: d}, nil
}

// Start returns the inclusive lower bound, or false for an unbounded window.
func (w Window) Start(now time.Time) (time.Time, bool) {
	switch {
	case w.StartOfDay:
		return Midnight(now), true
	case w.Lookback > 0:
		return now.Add(-w.Lookback), true
	}
	return time.Time{}, false
}

// Midnight is the start of now's calendar day in now's location.
func Midnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
