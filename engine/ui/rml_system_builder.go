package ui

import (
	"log/slog"
	"time"
)

// RmlSystemBuilderOption is a functional option for configuring an RmlSystem.
type RmlSystemBuilderOption func(*RmlSystem)

// WithTranslator sets the localization lookup used by TranslateString.
//
// Parameters:
//   - translate: the lookup function
//
// Returns:
//   - RmlSystemBuilderOption: the option function
func WithTranslator(translate Translator) RmlSystemBuilderOption {
	return func(s *RmlSystem) {
		s.translate = translate
	}
}

// WithClock replaces time.Now as the source of ElapsedTime.
func WithClock(now func() time.Time) RmlSystemBuilderOption {
	return func(s *RmlSystem) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSystemLogger sets the logger middleware messages are written to.
func WithSystemLogger(logger *slog.Logger) RmlSystemBuilderOption {
	return func(s *RmlSystem) {
		if logger != nil {
			s.logger = logger
		}
	}
}
