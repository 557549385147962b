package utils

import "go.uber.org/zap"

// ServiceName is attached to every log entry.
const ServiceName = "stagefinder"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	opts := []zap.Option{zap.Fields(zap.String("service", ServiceName))}
	if debug {
		return zap.NewDevelopment(opts...)
	}
	return zap.NewProduction(opts...)
}
