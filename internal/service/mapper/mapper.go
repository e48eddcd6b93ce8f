// Package mapper turns raw documents into typed records. Every field is read
// through an ordered fallback chain and the first present value wins; a field
// that is missing or fails its type check stays absent.
package mapper

import (
	"strings"
	"time"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

// Mapper holds the zone used for date-only and zone-less timestamp strings.
type Mapper struct {
	loc *time.Location
}

// New creates a Mapper. A nil location means time.Local.
func New(loc *time.Location) *Mapper {
	if loc == nil {
		loc = time.Local
	}
	return &Mapper{loc: loc}
}

func mapAll[T any](docs []domain.RawDocument, fn func(domain.RawDocument) T) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fn(doc))
	}
	return out
}

func (m *Mapper) instant(f map[string]interface{}, chain []string) *time.Time {
	return normalize.FirstTime(f, m.loc, chain...)
}

// timeOrDateHour falls back to a separate date + hour pair.
func (m *Mapper) timeOrDateHour(f map[string]interface{}, chain []string) *time.Time {
	if t := m.instant(f, chain); t != nil {
		return t
	}
	if t, ok := normalize.FromDateAndHour(f["date"], f["hour"]); ok {
		return &t
	}
	return nil
}

func stringOr(f map[string]interface{}, fallback string, chain []string) string {
	if s := normalize.FirstString(f, chain...); s != "" {
		return s
	}
	return fallback
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// strictBool accepts only a real boolean, for signals compared with === in the source data.
func strictBool(f map[string]interface{}, path string) *bool {
	if b, ok := normalize.Lookup(f, path).(bool); ok {
		return &b
	}
	return nil
}

func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func signals(f map[string]interface{}) domain.OutcomeSignals {
	return domain.OutcomeSignals{
		Outcome: normalize.FirstString(f, "outcome"),
		Success: strictBool(f, "success"),
		Status:  normalize.FirstString(f, "status"),
	}
}
