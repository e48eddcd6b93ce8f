package domain

import "time"

// ActivityWindow bounds when a promotion or campaign runs. Either side may be open.
type ActivityWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type PromotionRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	LocationIDs []string       `json:"location_ids,omitempty"`
	Window      ActivityWindow `json:"window"`
	Priority    *float64       `json:"priority,omitempty"`
	Engagement  *float64       `json:"engagement,omitempty"`
	Active      *bool          `json:"active,omitempty"`
}

type CampaignRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	LocationIDs []string       `json:"location_ids,omitempty"`
	Window      ActivityWindow `json:"window"`
	Priority    *float64       `json:"priority,omitempty"`
	Engagement  *float64       `json:"engagement,omitempty"`
	Active      *bool          `json:"active,omitempty"`
}

type CampaignStatus string

const (
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusEnded     CampaignStatus = "ended"
	CampaignStatusInactive  CampaignStatus = "inactive"
)

// LocationLabel pairs a targeted location id with its display name.
type LocationLabel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resolved bool   `json:"resolved"`
}

type EnrichedPromotion struct {
	PromotionRecord
	Locations []LocationLabel `json:"locations"`
	Status    CampaignStatus  `json:"status"`
}

type EnrichedCampaign struct {
	CampaignRecord
	Locations []LocationLabel `json:"locations"`
	Status    CampaignStatus  `json:"status"`
}
