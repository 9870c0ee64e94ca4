// Package loader provides the feature loading system of the HTTP server.
//
// Each feature implements the Feature interface, which reports whether it is
// enabled and registers its routes on a fiber router.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager keeps features in registration order. LoadAll skips disabled
// features and stops at the first one that fails to load.
package loader
