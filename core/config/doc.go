// Package config aggregates the configuration of every component.
//
// Values come from environment variables, optionally seeded from a .env file,
// with defaults taken from the `default` struct tag of each field. Nested keys
// map to upper-case environment names joined by underscores.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, shutdown timeout, metrics path
//   - Log: level and format
//   - Database: local store driver and connection
//   - Storage: MinIO archive for skipped pages
//   - Redis: projection publication
//   - Remote: backend, endpoint and token of the remote API
//   - Timeline: pagination engine tuning
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Timeline.RetryDelay)
package config
