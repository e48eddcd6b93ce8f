package domain

import "time"

type UnitStatus string

const (
	UnitStatusOnline  UnitStatus = "online"
	UnitStatusOffline UnitStatus = "offline"
	UnitStatusWarning UnitStatus = "warning"
)

type UnitHealth struct {
	Status           string     `json:"status,omitempty"`
	NeedsMaintenance *bool      `json:"needs_maintenance,omitempty"`
	Score            *float64   `json:"score,omitempty"`
	LastCalculated   *time.Time `json:"last_calculated,omitempty"`
}

type UnitMetrics struct {
	SuccessRate        *float64 `json:"success_rate,omitempty"`
	FaultRate          *float64 `json:"fault_rate,omitempty"`
	RetryRate          *float64 `json:"retry_rate,omitempty"`
	PlacementIssueRate *float64 `json:"placement_issue_rate,omitempty"`
	TotalSessions      *float64 `json:"total_sessions,omitempty"`
	TotalInteractions  *float64 `json:"total_interactions,omitempty"`
}

type UnitRecord struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Position         string      `json:"position,omitempty"`
	LocationID       string      `json:"location_id,omitempty"`
	Status           UnitStatus  `json:"status,omitempty"`
	InUse            *bool       `json:"in_use,omitempty"`
	ParticleDeviceID string      `json:"particle_device_id,omitempty"`
	Health           UnitHealth  `json:"health"`
	Metrics          UnitMetrics `json:"metrics"`
}

// EnrichedUnit carries the denormalized location of a unit.
type EnrichedUnit struct {
	UnitRecord
	LocationName     string `json:"location_name"`
	LocationResolved bool   `json:"location_resolved"`
	BrandID          string `json:"brand_id,omitempty"`
}
