// Package logger provides the process-wide zap logger.
//
// Initialization (once the configuration is known):
//
//	logger.Init(logger.Config{
//	    Format: cfg.LogFormat, // "console" or "json"
//	    Level:  cfg.LogLevel,  // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// Usage:
//
//	logger.Named("keyfile").Info("key reloaded", logger.Path(path))
package logger
