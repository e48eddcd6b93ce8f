// Package aggregate computes windowed KPI snapshots and top-N rankings over
// classified records in a single pass.
package aggregate

import (
	"time"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

const (
	DefaultTopN       = 5
	UnknownDeviceType = "unknown"
)

// Dimension groups records by a key. Records with an empty key are skipped.
type Dimension[T any] struct {
	Name string
	Key  func(T) (key, label string)
}

// Aggregator is configured with accessors for the record type it summarizes.
// Only Instant is required.
type Aggregator[T any] struct {
	Instant    func(T) *time.Time
	Measure    func(T) *float64
	Secondary  func(T) *float64
	Outcome    func(T) domain.Outcome
	AppLinked  func(T) bool
	DeviceType func(T) string
	Distinct   []Dimension[T]
	Dimensions []Dimension[T]
	TopN       int
}

type groupSet struct {
	order []string
	byKey map[string]*domain.GroupTotal
}

func (g *groupSet) add(key, label string, measure *float64) {
	total, ok := g.byKey[key]
	if !ok {
		total = &domain.GroupTotal{Key: key, Label: label}
		g.byKey[key] = total
		g.order = append(g.order, key)
	}
	total.Count++
	if measure != nil {
		total.MeasureSum += *measure
		total.MeasureCount++
	}
}

func (g *groupSet) totals() []domain.GroupTotal {
	out := make([]domain.GroupTotal, 0, len(g.order))
	for _, key := range g.order {
		total := *g.byKey[key]
		total.AvgMeasure = average(total.MeasureSum, total.MeasureCount)
		out = append(out, total)
	}
	return out
}

func average(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

func groupCount(g domain.GroupTotal) int { return g.Count }

func shareCount(s domain.DeviceShare) int { return s.Count }

// Snapshot summarizes records against the window ending at now. Records
// without an instant count towards Total only.
func (a Aggregator[T]) Snapshot(records []T, w Window, now time.Time) domain.AggregateSnapshot {
	topN := a.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	snap := domain.AggregateSnapshot{
		Window:      w.Name,
		GeneratedAt: now.UTC(),
		Distinct:    make(map[string]int, len(a.Distinct)),
		Groups:      make(map[string][]domain.GroupTotal, len(a.Dimensions)),
		Top:         make(map[string][]domain.GroupTotal, len(a.Dimensions)),
		DeviceMix:   []domain.DeviceShare{},
	}

	start, bounded := w.Start(now)
	if bounded {
		s := start.UTC()
		snap.WindowStart = &s
	}
	midnight := Midnight(now)

	distinct := make([]map[string]struct{}, len(a.Distinct))
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}
	groups := make([]*groupSet, len(a.Dimensions))
	for i := range groups {
		groups[i] = &groupSet{byKey: make(map[string]*domain.GroupTotal)}
	}
	devices := &groupSet{byKey: make(map[string]*domain.GroupTotal)}

	var secondarySum float64

	for _, r := range records {
		snap.Total++

		at := a.Instant(r)
		if at == nil || (bounded && at.Before(start)) {
			continue
		}

		snap.InWindow++
		if !at.Before(midnight) {
			snap.Today++
		}

		var measure *float64
		if a.Measure != nil {
			measure = a.Measure(r)
		}
		if measure != nil {
			snap.MeasureSum += *measure
			snap.MeasureCount++
		}

		if a.Outcome != nil {
			switch a.Outcome(r) {
			case domain.OutcomeSuccess:
				snap.Successes++
			case domain.OutcomeFailure:
				snap.Failures++
			default:
				snap.Indeterminate++
			}
		}

		if a.AppLinked != nil && a.AppLinked(r) {
			snap.AppLinked++
		}
		if a.Secondary != nil {
			if v := a.Secondary(r); v != nil {
				secondarySum += *v
				snap.SecondaryCount++
			}
		}

		for i, d := range a.Distinct {
			if key, _ := d.Key(r); key != "" {
				distinct[i][key] = struct{}{}
			}
		}
		for i, d := range a.Dimensions {
			if key, label := d.Key(r); key != "" {
				groups[i].add(key, label, measure)
			}
		}
		if a.DeviceType != nil {
			dt := a.DeviceType(r)
			if dt == "" {
				dt = UnknownDeviceType
			}
			devices.add(dt, dt, nil)
		}
	}

	snap.AvgMeasure = average(snap.MeasureSum, snap.MeasureCount)
	snap.AvgSecondary = average(secondarySum, snap.SecondaryCount)
	if decided := snap.Successes + snap.Failures; decided > 0 {
		rate := float64(snap.Successes) * 100 / float64(decided)
		snap.SuccessRate = &rate
	}

	for i, d := range a.Distinct {
		snap.Distinct[d.Name] = len(distinct[i])
	}
	for i, d := range a.Dimensions {
		ranked := Rank(groups[i].totals(), groupCount, 0)
		snap.Groups[d.Name] = ranked
		snap.Top[d.Name] = Rank(ranked, groupCount, topN)
	}

	for _, g := range devices.totals() {
		share := 0.0
		if snap.InWindow > 0 {
			share = float64(g.Count) * 100 / float64(snap.InWindow)
		}
		snap.DeviceMix = append(snap.DeviceMix, domain.DeviceShare{DeviceType: g.Key, Count: g.Count, Share: share})
	}
	snap.DeviceMix = Rank(snap.DeviceMix, shareCount, topN)

	return snap
}
