package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/service/aggregate"
	"github.com/seu-repo/sigec-insights/internal/service/analytics"
)

// HeaderRunID carries the pipeline run id, kept out of the JSON body so
// identical inputs render identical bodies.
const HeaderRunID = "X-Run-ID"

type AnalyticsService interface {
	SessionsOverview(ctx context.Context, window aggregate.Window) (*analytics.SessionsOverview, error)
	Dashboard(ctx context.Context) (*analytics.Dashboard, error)
	LocationDetail(ctx context.Context, locationID string) (*analytics.LocationDetail, error)
	UnitDetail(ctx context.Context, unitID string) (*analytics.UnitDetail, error)
	CampaignList(ctx context.Context) (*analytics.CampaignList, error)
	SessionEvents(ctx context.Context, sessionID string) (*analytics.SessionEvents, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
	log     *zap.Logger
}

func NewAnalyticsHandler(service AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts the read-only page endpoints.
func (h *AnalyticsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sessions/overview", h.SessionsOverview)
	router.Get("/sessions/:id/events", h.SessionEvents)
	router.Get("/dashboard", h.Dashboard)
	router.Get("/locations/:id", h.LocationDetail)
	router.Get("/units/:id", h.UnitDetail)
	router.Get("/campaigns", h.CampaignList)
}

func (h *AnalyticsHandler) SessionsOverview(c *fiber.Ctx) error {
	var window aggregate.Window
	if raw := c.Query("window"); raw != "" {
		w, err := aggregate.ParseWindow(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		window = w
	}

	page, err := h.service.SessionsOverview(c.UserContext(), window)
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	page, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func (h *AnalyticsHandler) LocationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	page, err := h.service.LocationDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func (h *AnalyticsHandler) UnitDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	page, err := h.service.UnitDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func (h *AnalyticsHandler) CampaignList(c *fiber.Ctx) error {
	page, err := h.service.CampaignList(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func (h *AnalyticsHandler) SessionEvents(c *fiber.Ctx) error {
	id := c.Params("id")
	page, err := h.service.SessionEvents(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, page.RunID, page)
}

func respond(c *fiber.Ctx, runID string, body interface{}) error {
	c.Set(HeaderRunID, runID)
	return c.JSON(body)
}
