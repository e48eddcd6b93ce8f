package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
	"github.com/seu-repo/sigec-insights/internal/ports"
	"github.com/seu-repo/sigec-insights/internal/service/aggregate"
)

// Use case names, also used as metric labels.
const (
	UseCaseSessionsOverview = "sessions_overview"
	UseCaseDashboard        = "dashboard"
	UseCaseLocationDetail   = "location_detail"
	UseCaseUnitDetail       = "unit_detail"
	UseCaseCampaignList     = "campaign_list"
	UseCaseSessionEvents    = "session_events"
)

type Options struct {
	Window   aggregate.Window
	TopN     int
	Location *time.Location
	Clock    func() time.Time
}

// Service exposes the page use cases, each a preset over one pipeline run.
type Service struct {
	pipeline *Pipeline
	window   aggregate.Window
	topN     int
	clock    func() time.Time
	log      *zap.Logger
}

func NewService(source ports.DocumentSource, opts Options, log *zap.Logger) *Service {
	if opts.Window.Name == "" {
		opts.Window = aggregate.Last7Days
	}
	if opts.TopN <= 0 {
		opts.TopN = aggregate.DefaultTopN
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		pipeline: NewPipeline(source, opts.Location, log),
		window:   opts.Window,
		topN:     opts.TopN,
		clock:    opts.Clock,
		log:      log,
	}
}

type SessionsOverview struct {
	Window   string                     `json:"window"`
	Sessions []domain.ClassifiedSession `json:"sessions"`
	Stats    domain.AggregateSnapshot   `json:"stats"`
	RunID    string                     `json:"-"`
}

func (s *Service) SessionsOverview(ctx context.Context, window aggregate.Window) (*SessionsOverview, error) {
	if window.Name == "" {
		window = s.window
	}
	res, err := s.pipeline.Run(ctx, RunConfig{
		UseCase:     UseCaseSessionsOverview,
		Collections: []string{domain.CollectionSessions},
		Scope:       Fleet(),
		Window:      window,
		TopN:        s.topN,
		Now:         s.clock(),
	})
	if err != nil {
		return nil, err
	}
	return &SessionsOverview{
		Window:   window.Name,
		Sessions: res.Sessions,
		Stats:    *res.SessionStats,
		RunID:    res.RunID,
	}, nil
}

// FleetCounters are the installed-base figures shown on the dashboard.
type FleetCounters struct {
	Locations       int `json:"locations"`
	ActiveLocations int `json:"active_locations"`
	Units           int `json:"units"`
	UnitsOnline     int `json:"units_online"`
	UnitsInUse      int `json:"units_in_use"`
}

type Dashboard struct {
	Fleet        FleetCounters            `json:"fleet"`
	Sessions     domain.AggregateSnapshot `json:"sessions"`
	Interactions domain.AggregateSnapshot `json:"interactions"`
	TopLocations []domain.GroupTotal      `json:"top_locations"`
	DeviceMix    []domain.DeviceShare     `json:"device_mix"`
	SuccessRate  *float64                 `json:"success_rate,omitempty"`
	RunID        string                   `json:"-"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	res, err := s.pipeline.Run(ctx, RunConfig{
		UseCase:     UseCaseDashboard,
		Collections: []string{domain.CollectionSessions, domain.CollectionInteractions},
		Scope:       Fleet(),
		Window:      aggregate.Last7Days,
		TopN:        s.topN,
		Now:         s.clock(),
	})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Fleet:        fleetCounters(res.Locations, res.Units),
		Sessions:     *res.SessionStats,
		Interactions: *res.InteractionStats,
		TopLocations: res.SessionStats.Top[aggregate.ByLocation],
		DeviceMix:    res.SessionStats.DeviceMix,
		SuccessRate:  res.InteractionStats.SuccessRate,
		RunID:        res.RunID,
	}, nil
}

func fleetCounters(locations []domain.LocationRecord, units []domain.EnrichedUnit) FleetCounters {
	c := FleetCounters{Locations: len(locations), Units: len(units)}
	for _, l := range locations {
		if l.IsActive() {
			c.ActiveLocations++
		}
	}
	for _, u := range units {
		if u.Status == domain.UnitStatusOnline {
			c.UnitsOnline++
		}
		if u.InUse != nil && *u.InUse {
			c.UnitsInUse++
		}
	}
	return c
}

type LocationDetail struct {
	Location         domain.LocationRecord          `json:"location"`
	Units            []domain.EnrichedUnit          `json:"units"`
	Sessions         []domain.ClassifiedSession     `json:"sessions"`
	Interactions     []domain.ClassifiedInteraction `json:"interactions"`
	SessionStats     domain.AggregateSnapshot       `json:"session_stats"`
	InteractionStats domain.AggregateSnapshot       `json:"interaction_stats"`
	Promotions       []domain.EnrichedPromotion     `json:"promotions"`
	RunID            string                         `json:"-"`
}

func (s *Service) LocationDetail(ctx context.Context, locationID string) (*LocationDetail, error) {
	res, err := s.pipeline.Run(ctx, RunConfig{
		UseCase:     UseCaseLocationDetail,
		Collections: []string{domain.CollectionSessions, domain.CollectionInteractions, domain.CollectionPromotions},
		Scope:       AtLocation(locationID),
		Window:      s.window,
		TopN:        s.topN,
		Now:         s.clock(),
	})
	if err != nil {
		return nil, err
	}
	return &LocationDetail{
		Location:         *res.Location,
		Units:            res.Units,
		Sessions:         res.Sessions,
		Interactions:     res.Interactions,
		SessionStats:     *res.SessionStats,
		InteractionStats: *res.InteractionStats,
		Promotions:       res.Promotions,
		RunID:            res.RunID,
	}, nil
}

type UnitDetail struct {
	Unit             domain.EnrichedUnit            `json:"unit"`
	Sessions         []domain.ClassifiedSession     `json:"sessions"`
	Interactions     []domain.ClassifiedInteraction `json:"interactions"`
	SessionStats     domain.AggregateSnapshot       `json:"session_stats"`
	InteractionStats domain.AggregateSnapshot       `json:"interaction_stats"`
	InteractionTypes []domain.GroupTotal            `json:"interaction_types"`
	RunID            string                         `json:"-"`
}

func (s *Service) UnitDetail(ctx context.Context, unitID string) (*UnitDetail, error) {
	res, err := s.pipeline.Run(ctx, RunConfig{
		UseCase:     UseCaseUnitDetail,
		Collections: []string{domain.CollectionSessions, domain.CollectionInteractions},
		Scope:       AtUnit(unitID),
		Window:      s.window,
		TopN:        s.topN,
		Now:         s.clock(),
	})
	if err != nil {
		return nil, err
	}
	return &UnitDetail{
		Unit:             *res.Unit,
		Sessions:         res.Sessions,
		Interactions:     res.Interactions,
		SessionStats:     *res.SessionStats,
		InteractionStats: *res.InteractionStats,
		InteractionTypes: res.InteractionStats.Groups[aggregate.ByType],
		RunID:            res.RunID,
	}, nil
}

type CampaignList struct {
	Campaigns       []domain.EnrichedCampaign     `json:"campaigns"`
	StatusCounts    map[domain.CampaignStatus]int `json:"status_counts"`
	TopByEngagement []domain.EnrichedCampaign     `json:"top_by_engagement"`
	RunID           string                        `json:"-"`
}

func (s *Service) CampaignList(ctx context.Context) (*CampaignList, error) {
	res, err := s.pipeline.Run(ctx, RunConfig{
		UseCase:     UseCaseCampaignList,
		Collections: []string{domain.CollectionCampaigns},
		Scope:       Fleet(),
		Window:      s.window,
		TopN:        s.topN,
		Now:         s.clock(),
	})
	if err != nil {
		return nil, err
	}

	counts := map[domain.CampaignStatus]int{
		domain.CampaignStatusScheduled: 0,
		domain.CampaignStatusActive:    0,
		domain.CampaignStatusEnded:     0,
	}
	engaged := make([]domain.EnrichedCampaign, 0, len(res.Campaigns))
	for _, c := range res.Campaigns {
		counts[c.Status]++
		if c.Engagement != nil {
			engaged = append(engaged, c)
		}
	}

	top := aggregate.Rank(engaged, func(c domain.EnrichedCampaign) float64 {
		return *c.Engagement
	}, s.topN)

	return &CampaignList{
		Campaigns:       res.Campaigns,
		StatusCounts:    counts,
		TopByEngagement: top,
		RunID:           res.RunID,
	}, nil
}

type SessionEvents struct {
	SessionID string                          `json:"session_id"`
	Events    []domain.AppChargingEventRecord `json:"events"`
	RunID     string                          `json:"-"`
}

// SessionEvents loads the app charging events of one session, oldest first.
// Events without an instant are listed last in source order.
func (s *Service) SessionEvents(ctx context.Context, sessionID string) (*SessionEvents, error) {
	runID := uuid.New().String()
	start := time.Now()

	docs, err := s.pipeline.fetchWhere(ctx, domain.CollectionAppChargingEvents, "sessionId", sessionID)
	telemetry.PipelineDuration.WithLabelValues(UseCaseSessionEvents).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.PipelineRunsTotal.WithLabelValues(UseCaseSessionEvents, "error").Inc()
		s.log.Error("Failed to load session events",
			zap.String("run_id", runID),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}
	telemetry.PipelineRunsTotal.WithLabelValues(UseCaseSessionEvents, "ok").Inc()

	events := s.pipeline.mapper.AppChargingEvents(docs)
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].At, events[j].At
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})

	s.log.Debug("Session events loaded",
		zap.String("run_id", runID),
		zap.String("session_id", sessionID),
		zap.Int("events", len(events)),
	)
	return &SessionEvents{SessionID: sessionID, Events: events, RunID: runID}, nil
}
