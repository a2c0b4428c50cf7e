package logger

// SetupLogger initializes the default logger from process settings and returns it.
func SetupLogger(logLevel LogLevel, logJSON, logSource bool) Logger {
	cfg := DefaultConfig()
	cfg.Level = logLevel
	cfg.JSON = logJSON
	cfg.AddSource = logSource
	Init(cfg)
	return GetDefault()
}
