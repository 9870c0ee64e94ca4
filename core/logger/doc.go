// Package logger builds the process-wide zap logger.
//
// Level and Format come from the log section of the configuration. The debug
// level selects zap's development preset (ISO8601 timestamps, caller info);
// every other level uses the production preset.
//
// # Request correlation
//
// The rayid middleware stores a request id in the fiber locals under RayIDKey.
// WithRayID attaches it to a logger so all log lines of one request can be found
// together, and Middleware logs each request once it has been handled.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
