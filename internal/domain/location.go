package domain

import "time"

// UnknownName is the display placeholder for a reference that is entirely absent.
const UnknownName = "Unknown"

// Coordinates is present only when both latitude and longitude decoded.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LocationRecord struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	BrandID            string       `json:"brand_id,omitempty"`
	BrandName          string       `json:"brand_name,omitempty"`
	StoreLabel         string       `json:"store_label,omitempty"`
	City               string       `json:"city,omitempty"`
	Country            string       `json:"country,omitempty"`
	Category           string       `json:"category,omitempty"`
	Active             *bool        `json:"active,omitempty"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
	QRTarget           string       `json:"qr_target,omitempty"`
	TotalSessions      *float64     `json:"total_sessions,omitempty"`
	UnitsInUse         *float64     `json:"units_in_use,omitempty"`
	UnitsTotal         *float64     `json:"units_total,omitempty"`
	HasActivePromotion *bool        `json:"has_active_promotion,omitempty"`
	PromotionsEnabled  *bool        `json:"promotions_enabled,omitempty"`
	CreatedAt          *time.Time   `json:"created_at,omitempty"`
}

// IsActive treats an absent flag as inactive.
func (l LocationRecord) IsActive() bool {
	return l.Active != nil && *l.Active
}
