package integrity

import (
	"feedsync/core/logger"
	"feedsync/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Report is the combined result of all checks.
type Report struct {
	Schema  *checks.SchemaReport  `json:"schema,omitempty"`
	Archive *checks.ArchiveReport `json:"archive,omitempty"`
	Errors  map[string]string     `json:"errors,omitempty"`
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/archive", h.HandleArchiveCheck)
}

// HandleIntegrityCheck runs every check.
// @Summary Run All Integrity Checks
// @Description Checks the local store schema and the skipped page archive.
// @Tags integrity
// @Produce json
// @Success 200 {object} integrity.Report "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := Report{Errors: map[string]string{}}
	if schema, err := h.service.CheckSchema(); err != nil {
		report.Errors["schema"] = err.Error()
	} else {
		report.Schema = schema
	}
	if archive, err := h.service.CheckArchive(c.Context()); err != nil {
		report.Errors["archive"] = err.Error()
	} else {
		report.Archive = archive
	}
	return c.JSON(report)
}

// HandleSchemaCheck checks the local store schema.
// @Summary Check Schema
// @Description Checks that every table and column the engine relies on exists.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Schema mismatch detected", zap.Any("tables", report.Tables))
	}
	return c.JSON(report)
}

// HandleArchiveCheck checks and optionally fixes the page archive bucket.
// @Summary Check Archive
// @Description Checks the archive bucket and counts skipped pages per feed. Optionally creates the bucket.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create the bucket when missing"
// @Success 200 {object} checks.ArchiveReport "Archive Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/archive [get]
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckArchive(c.Context())
	if err != nil {
		l.Error("Archive check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.BucketExists && fix {
		l.Info("Attempting to create archive bucket")
		if err := h.service.FixArchive(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create bucket",
				"details": err.Error(),
			})
		}
		report.BucketExists = true
	}
	return c.JSON(report)
}
