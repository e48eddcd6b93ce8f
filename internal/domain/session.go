package domain

import "time"

// AppLinkage is what the companion phone app reported about a charge.
type AppLinkage struct {
	Linked       *bool    `json:"linked,omitempty"`
	DeviceMake   string   `json:"device_make,omitempty"`
	DeviceModel  string   `json:"device_model,omitempty"`
	BatteryStart *float64 `json:"battery_start,omitempty"`
	BatteryEnd   *float64 `json:"battery_end,omitempty"`
	BatteryDelta *float64 `json:"battery_delta,omitempty"`
	LocationID   string   `json:"location_id,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
}

// Present reports whether the app linkage carries any data at all.
func (a AppLinkage) Present() bool {
	if a.Linked != nil && *a.Linked {
		return true
	}
	return a.DeviceMake != "" || a.DeviceModel != "" ||
		a.BatteryStart != nil || a.BatteryEnd != nil || a.BatteryDelta != nil ||
		a.LocationID != "" || a.SessionID != ""
}

type SessionRecord struct {
	ID              string         `json:"id"`
	UnitID          string         `json:"unit_id,omitempty"`
	DeviceKey       string         `json:"device_key,omitempty"`
	Start           *time.Time     `json:"start,omitempty"`
	End             *time.Time     `json:"end,omitempty"`
	DurationMinutes *float64       `json:"duration_minutes,omitempty"`
	DeviceType      string         `json:"device_type,omitempty"`
	Signals         OutcomeSignals `json:"signals"`
	App             AppLinkage     `json:"app"`
	HasAppData      bool           `json:"has_app_data"`
}

// Lifecycle is derived from the end instant only.
func (s SessionRecord) Lifecycle() Lifecycle {
	if s.End == nil {
		return LifecycleInProgress
	}
	return LifecycleCompleted
}

type InteractionRecord struct {
	ID         string         `json:"id"`
	At         *time.Time     `json:"at,omitempty"`
	Type       string         `json:"type,omitempty"`
	Mode       string         `json:"mode,omitempty"`
	DeviceType string         `json:"device_type,omitempty"`
	UnitID     string         `json:"unit_id,omitempty"`
	DeviceKey  string         `json:"device_key,omitempty"`
	Signals    OutcomeSignals `json:"signals"`
	App        AppLinkage     `json:"app"`
	HasAppData bool           `json:"has_app_data"`
}

// AppChargingEventRecord is a child of a session, loaded on demand.
type AppChargingEventRecord struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id,omitempty"`
	At           *time.Time `json:"at,omitempty"`
	BatteryLevel *float64   `json:"battery_level,omitempty"`
	BatteryDelta *float64   `json:"battery_delta,omitempty"`
	Wireless     *bool      `json:"wireless,omitempty"`
	PlugType     string     `json:"plug_type,omitempty"`
	DeviceMake   string     `json:"device_make,omitempty"`
	DeviceModel  string     `json:"device_model,omitempty"`
	Source       string     `json:"source,omitempty"`
	LocationID   string     `json:"location_id,omitempty"`
}

// UnitRef is the denormalized unit and location a record resolved to.
// ResolvedUnitID is the unit id after the device-correlation join; the
// original foreign keys stay untouched on the embedded record.
type UnitRef struct {
	ResolvedUnitID   string       `json:"resolved_unit_id,omitempty"`
	UnitName         string       `json:"unit_name"`
	UnitResolved     bool         `json:"unit_resolved"`
	JoinedVia        JoinStrategy `json:"joined_via"`
	LocationID       string       `json:"location_id,omitempty"`
	LocationName     string       `json:"location_name"`
	LocationResolved bool         `json:"location_resolved"`
	BrandID          string       `json:"brand_id,omitempty"`
}

type EnrichedSession struct {
	SessionRecord
	UnitRef
}

type EnrichedInteraction struct {
	InteractionRecord
	UnitRef
}

type ClassifiedSession struct {
	EnrichedSession
	State   Lifecycle `json:"lifecycle"`
	Outcome Outcome   `json:"outcome"`
}

type ClassifiedInteraction struct {
	EnrichedInteraction
	Outcome Outcome `json:"outcome"`
}

// Ref exposes the join result of any record that embeds a UnitRef.
func (r UnitRef) Ref() UnitRef {
	return r
}
