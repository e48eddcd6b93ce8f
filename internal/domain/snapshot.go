package domain

import "time"

// GroupTotal is one subtotal of a dimension inside the window.
type GroupTotal struct {
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	Count        int      `json:"count"`
	MeasureSum   float64  `json:"measure_sum"`
	MeasureCount int      `json:"measure_count"`
	AvgMeasure   *float64 `json:"avg_measure,omitempty"`
}

type DeviceShare struct {
	DeviceType string  `json:"device_type"`
	Count      int     `json:"count"`
	Share      float64 `json:"share"` // percentage of InWindow
}

// AggregateSnapshot is derived per run and never persisted.
type AggregateSnapshot struct {
	Window      string     `json:"window"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`

	Total    int `json:"total"`
	InWindow int `json:"in_window"`
	Today    int `json:"today"`

	MeasureSum   float64  `json:"measure_sum"`
	MeasureCount int      `json:"measure_count"`
	AvgMeasure   *float64 `json:"avg_measure,omitempty"`

	Distinct map[string]int `json:"distinct"`

	Successes     int      `json:"successes"`
	Failures      int      `json:"failures"`
	Indeterminate int      `json:"indeterminate"`
	SuccessRate   *float64 `json:"success_rate,omitempty"` // percentage

	AppLinked      int      `json:"app_linked"`
	SecondaryCount int      `json:"secondary_count"`
	AvgSecondary   *float64 `json:"avg_secondary,omitempty"`

	Groups    map[string][]GroupTotal `json:"groups"`
	Top       map[string][]GroupTotal `json:"top"`
	DeviceMix []DeviceShare           `json:"device_mix"`
}
