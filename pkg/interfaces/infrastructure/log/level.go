package log

// Level is a logging verbosity level, string-valued so it maps directly
// onto zap's level names in configuration files and CLI flags.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)
