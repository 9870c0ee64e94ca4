package timeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"feedsync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MaxWait bounds a long-poll request.
const MaxWait = 30 * time.Second

// Handler handles HTTP requests for feeds.
type Handler struct {
	registry *Registry
	logger   *zap.Logger
	maxWait  time.Duration
}

// NewHandler creates a new HTTP handler.
func NewHandler(registry *Registry, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, logger: logger, maxWait: MaxWait}
}

// FeedView is the response of the feed detail endpoint.
type FeedView struct {
	State        Snapshot   `json:"state"`
	StateVersion uint64     `json:"state_version"`
	Items        Projection `json:"items"`
	ItemsVersion uint64     `json:"items_version"`
}

// RegisterRoutes registers the feed routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/feeds")
	group.Get("/", h.HandleListFeeds)
	group.Get("/:id", h.HandleGetFeed)
	group.Post("/:id/load", h.HandleLoad)
	group.Post("/:id/reset", h.HandleReset)
	group.Post("/:id/gaps/:anchor", h.HandleFillGap)
	group.Delete("/:id", h.HandleDeleteFeed)
}

// HandleListFeeds lists the state of every feed.
// @Summary List Feeds
// @Description Returns the pagination state of every registered feed.
// @Tags feeds
// @Produce json
// @Success 200 {array} timeline.Snapshot "Feed states"
// @Router /feeds [get]
func (h *Handler) HandleListFeeds(c *fiber.Ctx) error {
	return c.JSON(h.registry.Snapshots())
}

// HandleGetFeed returns the state and projection of one feed.
// With wait_state or wait_items the request blocks until that version is exceeded.
// @Summary Get Feed
// @Description Returns the feed state and its projected items. Supports long polling.
// @Tags feeds
// @Produce json
// @Param id path string true "Feed ID"
// @Param wait_state query int false "Block until the state version exceeds this value"
// @Param wait_items query int false "Block until the items version exceeds this value"
// @Success 200 {object} timeline.FeedView "Feed view"
// @Failure 404 {object} map[string]string "Feed not found"
// @Router /feeds/{id} [get]
func (h *Handler) HandleGetFeed(c *fiber.Ctx) error {
	f, err := h.registry.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	if raw := c.Query("wait_state"); raw != "" || c.Query("wait_items") != "" {
		ctx, cancel := context.WithTimeout(context.Background(), h.maxWait)
		defer cancel()
		if raw != "" {
			_, _, _ = f.Snapshot().Wait(ctx, parseVersion(raw))
		}
		if rawItems := c.Query("wait_items"); rawItems != "" {
			_, _, _ = f.Projection().Wait(ctx, parseVersion(rawItems))
		}
	}

	state, sv := f.Snapshot().Load()
	items, iv := f.Projection().Load()
	return c.JSON(FeedView{State: state, StateVersion: sv, Items: items, ItemsVersion: iv})
}

// HandleLoad requests the next page of a feed.
// @Summary Load More
// @Description Triggers the next page load. Activates a feed that was never loaded.
// @Tags feeds
// @Produce json
// @Param id path string true "Feed ID"
// @Success 202 {object} timeline.Snapshot "Feed state"
// @Failure 404 {object} map[string]string "Feed not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Router /feeds/{id}/load [post]
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	return h.act(c, (*Feed).Load)
}

// HandleReset restarts a feed from the newest page.
// @Summary Reset Feed
// @Description Discards the cursor and accumulated items and loads from scratch.
// @Tags feeds
// @Produce json
// @Param id path string true "Feed ID"
// @Success 202 {object} timeline.Snapshot "Feed state"
// @Failure 404 {object} map[string]string "Feed not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Router /feeds/{id}/reset [post]
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	return h.act(c, (*Feed).Reset)
}

// HandleFillGap starts a gap fill below an anchor item.
// @Summary Fill Gap
// @Description Backfills items older than the anchor and splices them after it.
// @Tags feeds
// @Produce json
// @Param id path string true "Feed ID"
// @Param anchor path string true "Anchor item ID"
// @Success 202 {object} timeline.Snapshot "Feed state"
// @Failure 404 {object} map[string]string "Feed or anchor not found"
// @Failure 409 {object} map[string]string "Gap fill already running"
// @Router /feeds/{id}/gaps/{anchor} [post]
func (h *Handler) HandleFillGap(c *fiber.Ctx) error {
	anchor := c.Params("anchor")
	return h.act(c, func(f *Feed) error { return f.FillGap(anchor) })
}

// HandleDeleteFeed tears a feed down.
// @Summary Delete Feed
// @Description Cancels outstanding work of the feed and unregisters it.
// @Tags feeds
// @Param id path string true "Feed ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Feed not found"
// @Router /feeds/{id} [delete]
func (h *Handler) HandleDeleteFeed(c *fiber.Ctx) error {
	if err := h.registry.Remove(c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) act(c *fiber.Ctx, op func(*Feed) error) error {
	f, err := h.registry.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := op(f); err != nil {
		return h.fail(c, err)
	}
	s, _ := f.Snapshot().Load()
	return c.Status(fiber.StatusAccepted).JSON(s)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrFeedNotFound), errors.Is(err, ErrUnknownAnchor), errors.Is(err, ErrTornDown):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrGapInProgress):
		status = fiber.StatusConflict
	default:
		logger.WithRayID(h.logger, c).Error("Feed request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func parseVersion(raw string) uint64 {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
