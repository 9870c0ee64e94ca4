package timeline

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	registry *Registry
	handler  *Handler
}

// NewFeature creates the timeline feature over a feed registry.
func NewFeature(registry *Registry, logger *zap.Logger) *Feature {
	return &Feature{registry: registry, handler: NewHandler(registry, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "timeline"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.registry != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
