package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
	"github.com/seu-repo/sigec-insights/internal/ports"
	"github.com/seu-repo/sigec-insights/internal/service/aggregate"
	"github.com/seu-repo/sigec-insights/internal/service/classify"
	"github.com/seu-repo/sigec-insights/internal/service/join"
	"github.com/seu-repo/sigec-insights/internal/service/mapper"
)

var tracer = otel.Tracer("sigec-insights/analytics")

type ScopeKind string

const (
	ScopeFleet    ScopeKind = "fleet"
	ScopeLocation ScopeKind = "location"
	ScopeUnit     ScopeKind = "unit"
)

// Scope narrows a run to one location or one unit.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func Fleet() Scope { return Scope{Kind: ScopeFleet} }

func AtLocation(id string) Scope { return Scope{Kind: ScopeLocation, ID: id} }

func AtUnit(id string) Scope { return Scope{Kind: ScopeUnit, ID: id} }

func (s Scope) isFleet() bool { return s.Kind == "" || s.Kind == ScopeFleet }

// RunConfig parameterizes one pipeline run.
type RunConfig struct {
	UseCase     string
	Collections []string
	Scope       Scope
	Window      aggregate.Window
	TopN        int
	Now         time.Time
}

// RunResult is the immutable output of a run. Stats are nil when the
// matching collection was not requested.
type RunResult struct {
	RunID       string    `json:"-"`
	Window      string    `json:"window"`
	GeneratedAt time.Time `json:"generated_at"`

	Location *domain.LocationRecord `json:"location,omitempty"`
	Unit     *domain.EnrichedUnit   `json:"unit,omitempty"`

	Locations    []domain.LocationRecord        `json:"locations"`
	Units        []domain.EnrichedUnit          `json:"units"`
	Sessions     []domain.ClassifiedSession     `json:"sessions"`
	Interactions []domain.ClassifiedInteraction `json:"interactions"`
	Campaigns    []domain.EnrichedCampaign      `json:"campaigns"`
	Promotions   []domain.EnrichedPromotion     `json:"promotions"`

	SessionStats     *domain.AggregateSnapshot `json:"session_stats,omitempty"`
	InteractionStats *domain.AggregateSnapshot `json:"interaction_stats,omitempty"`
}

// Pipeline runs fetch, map, join, scope, classify and aggregate in order.
type Pipeline struct {
	source ports.DocumentSource
	mapper *mapper.Mapper
	loc    *time.Location
	log    *zap.Logger
}

func NewPipeline(source ports.DocumentSource, loc *time.Location, log *zap.Logger) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{
		source: source,
		mapper: mapper.New(loc),
		loc:    loc,
		log:    log,
	}
}

func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	runID := uuid.New().String()
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(p.loc)

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("use_case", cfg.UseCase),
		attribute.String("scope", string(cfg.Scope.Kind)),
		attribute.String("scope_id", cfg.Scope.ID),
		attribute.String("window", cfg.Window.Name),
	)

	start := time.Now()
	result, err := p.run(ctx, cfg, now)
	elapsed := time.Since(start)

	telemetry.PipelineDuration.WithLabelValues(cfg.UseCase).Observe(elapsed.Seconds())
	if err != nil {
		telemetry.PipelineRunsTotal.WithLabelValues(cfg.UseCase, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Error("Pipeline run failed",
			zap.String("run_id", runID),
			zap.String("use_case", cfg.UseCase),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}
	telemetry.PipelineRunsTotal.WithLabelValues(cfg.UseCase, "ok").Inc()

	result.RunID = runID
	p.log.Info("Pipeline run completed",
		zap.String("run_id", runID),
		zap.String("use_case", cfg.UseCase),
		zap.String("scope", string(cfg.Scope.Kind)),
		zap.Int("sessions", len(result.Sessions)),
		zap.Int("interactions", len(result.Interactions)),
		zap.Duration("duration", elapsed),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, cfg RunConfig, now time.Time) (*RunResult, error) {
	wanted := collectionsFor(cfg)
	docs, err := p.fetch(ctx, wanted)
	if err != nil {
		return nil, err
	}

	// Map
	locations := p.mapper.Locations(docs[domain.CollectionLocations])
	units := p.mapper.Units(docs[domain.CollectionUnits])
	sessions := p.mapper.Sessions(docs[domain.CollectionSessions])
	interactions := p.mapper.Interactions(docs[domain.CollectionInteractions])
	campaigns := p.mapper.Campaigns(docs[domain.CollectionCampaigns])
	promotions := p.mapper.Promotions(docs[domain.CollectionPromotions])

	// Join
	resolver := join.NewResolver(locations, units)
	result := &RunResult{
		Window:      cfg.Window.Name,
		GeneratedAt: now.UTC(),
		Locations:   locations,
		Units:       resolver.Units(units),
		Campaigns:   resolver.Campaigns(campaigns),
		Promotions:  resolver.Promotions(promotions),
	}
	enrichedSessions := resolver.Sessions(sessions)
	enrichedInteractions := resolver.Interactions(interactions)

	// Scope
	switch cfg.Scope.Kind {
	case ScopeLocation:
		loc, ok := resolver.Location(cfg.Scope.ID)
		if !ok {
			return nil, notFound("location", cfg.Scope.ID)
		}
		set := resolver.UnitsAt(loc.ID)
		result.Location = &loc
		result.Locations = []domain.LocationRecord{loc}
		result.Units = unitsIn(result.Units, set)
		result.Promotions = join.PromotionsFor(result.Promotions, loc.ID)
		result.Campaigns = campaignsFor(result.Campaigns, loc.ID)
		enrichedSessions = join.ScopeToLocation(enrichedSessions, set)
		enrichedInteractions = join.ScopeToLocation(enrichedInteractions, set)
	case ScopeUnit:
		unit, ok := resolver.Unit(cfg.Scope.ID)
		if !ok {
			return nil, notFound("unit", cfg.Scope.ID)
		}
		enriched := resolver.Units([]domain.UnitRecord{unit})[0]
		result.Unit = &enriched
		result.Units = []domain.EnrichedUnit{enriched}
		result.Locations = []domain.LocationRecord{}
		if loc, ok := resolver.Location(unit.LocationID); ok {
			result.Location = &loc
			result.Locations = []domain.LocationRecord{loc}
			result.Promotions = join.PromotionsFor(result.Promotions, loc.ID)
			result.Campaigns = campaignsFor(result.Campaigns, loc.ID)
		} else {
			result.Promotions = []domain.EnrichedPromotion{}
			result.Campaigns = []domain.EnrichedCampaign{}
		}
		enrichedSessions = join.ScopeToUnit(enrichedSessions, unit.ID)
		enrichedInteractions = join.ScopeToUnit(enrichedInteractions, unit.ID)
	}

	// Classify
	result.Sessions = classify.Sessions(enrichedSessions)
	result.Interactions = classify.Interactions(enrichedInteractions)
	result.Campaigns = classify.Campaigns(result.Campaigns, now)
	result.Promotions = classify.Promotions(result.Promotions, now)

	sortNewestFirst(result.Sessions, func(s domain.ClassifiedSession) *time.Time { return s.Start })
	sortNewestFirst(result.Interactions, func(i domain.ClassifiedInteraction) *time.Time { return i.At })

	// Aggregate
	if wanted.has(domain.CollectionSessions) {
		snap := aggregate.Sessions(cfg.TopN).Snapshot(result.Sessions, cfg.Window, now)
		result.SessionStats = &snap
	}
	if wanted.has(domain.CollectionInteractions) {
		snap := aggregate.Interactions(cfg.TopN).Snapshot(result.Interactions, cfg.Window, now)
		result.InteractionStats = &snap
	}

	return result, nil
}

type collectionSet []string

func (c collectionSet) has(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// collectionsFor adds the reference collections every join and scope needs.
func collectionsFor(cfg RunConfig) collectionSet {
	seen := make(map[string]bool)
	out := make(collectionSet, 0, len(cfg.Collections)+2)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	needsRefs := !cfg.Scope.isFleet()
	for _, c := range cfg.Collections {
		switch c {
		case domain.CollectionSessions, domain.CollectionInteractions,
			domain.CollectionCampaigns, domain.CollectionPromotions, domain.CollectionUnits:
			needsRefs = true
		}
	}
	if needsRefs {
		add(domain.CollectionLocations)
		add(domain.CollectionUnits)
	}
	for _, c := range cfg.Collections {
		add(c)
	}
	sort.Strings(out)
	return out
}

// fetch loads every collection concurrently. The first failure cancels the
// others and no partial result is returned.
func (p *Pipeline) fetch(ctx context.Context, collections []string) (map[string][]domain.RawDocument, error) {
	var mu sync.Mutex
	docs := make(map[string][]domain.RawDocument, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collections {
		collection := c
		g.Go(func() error {
			batch, err := p.fetchAll(gctx, collection)
			if err != nil {
				return err
			}
			mu.Lock()
			docs[collection] = batch
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (p *Pipeline) fetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	ctx, span := tracer.Start(ctx, "source.FetchAll")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	batch, err := p.source.FetchAll(ctx, collection)
	return p.observe(collection, batch, err, span.RecordError)
}

func (p *Pipeline) fetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	ctx, span := tracer.Start(ctx, "source.FetchWhere")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.String("field", field))

	batch, err := p.source.FetchWhere(ctx, collection, field, value)
	return p.observe(collection, batch, err, span.RecordError)
}

func (p *Pipeline) observe(collection string, batch []domain.RawDocument, err error, record func(error, ...trace.EventOption)) ([]domain.RawDocument, error) {
	if err != nil {
		telemetry.FetchErrorsTotal.WithLabelValues(collection).Inc()
		record(err)
		p.log.Warn("Failed to fetch collection", zap.String("collection", collection), zap.Error(err))
		return nil, &PipelineError{Collection: collection, Err: err}
	}
	telemetry.DocumentsFetchedTotal.WithLabelValues(collection).Add(float64(len(batch)))
	return batch, nil
}

func unitsIn(units []domain.EnrichedUnit, set join.UnitSet) []domain.EnrichedUnit {
	out := make([]domain.EnrichedUnit, 0, len(set))
	for _, u := range units {
		if _, ok := set[u.ID]; ok {
			out = append(out, u)
		}
	}
	return out
}

func campaignsFor(campaigns []domain.EnrichedCampaign, locationID string) []domain.EnrichedCampaign {
	out := make([]domain.EnrichedCampaign, 0)
	for _, c := range campaigns {
		for _, id := range c.LocationIDs {
			if id == locationID {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// sortNewestFirst orders by instant descending; records without one go last
// in their original order.
func sortNewestFirst[T any](items []T, at func(T) *time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := at(items[i]), at(items[j])
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}
