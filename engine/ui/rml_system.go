package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// Platform is the part of the window the middleware talks to.
type Platform interface {
	ClipboardText() string
	SetClipboardText(text string)
	SetCursor(cursor window.Cursor)
}

var _ Platform = window.Window(nil)

// Translator replaces a display string with its localized form. ok is false when
// the string has no translation.
type Translator func(input string) (translated string, ok bool)

// RmlSystem implements SystemInterface on top of the engine window, clock and logger.
type RmlSystem struct {
	mu *sync.Mutex

	platform  Platform
	logger    *slog.Logger
	translate Translator
	start     time.Time
	now       func() time.Time

	clipboard      string
	keyboardActive bool
}

var _ SystemInterface = &RmlSystem{}

// NewRmlSystem creates the system interface. With a nil platform the clipboard is
// kept in memory and cursor changes are ignored.
//
// Parameters:
//   - platform: the window, or nil when running headless
//   - options: functional options to configure the system interface
//
// Returns:
//   - *RmlSystem: the new system interface
func NewRmlSystem(platform Platform, options ...RmlSystemBuilderOption) *RmlSystem {
	s := &RmlSystem{
		mu:       &sync.Mutex{},
		platform: platform,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.start = s.now()
	return s
}

// ElapsedTime returns the seconds since the system interface was created.
func (s *RmlSystem) ElapsedTime() float64 {
	return s.now().Sub(s.start).Seconds()
}

// TranslateString returns the localized input and the number of replacements made.
func (s *RmlSystem) TranslateString(input string) (string, int) {
	if s.translate == nil {
		return input, 0
	}
	if translated, ok := s.translate(input); ok {
		return translated, 1
	}
	return input, 0
}

// LogMessage writes a middleware message to the logger. It always returns true so
// execution continues.
func (s *RmlSystem) LogMessage(typ LogType, message string) bool {
	s.logger.Log(context.Background(), logLevelOf(typ), message, "source", "ui")
	return true
}

// SetMouseCursor maps a style sheet cursor name to a system cursor.
func (s *RmlSystem) SetMouseCursor(name string) {
	if s.platform == nil {
		return
	}
	s.platform.SetCursor(CursorOf(name))
}

func (s *RmlSystem) SetClipboardText(text string) {
	if s.platform != nil {
		s.platform.SetClipboardText(text)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = text
}

func (s *RmlSystem) ClipboardText() string {
	if s.platform != nil {
		return s.platform.ClipboardText()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clipboard
}

// ActivateKeyboard records that a text field took focus.
func (s *RmlSystem) ActivateKeyboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboardActive = true
}

// DeactivateKeyboard records that the focused text field lost focus.
func (s *RmlSystem) DeactivateKeyboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboardActive = false
}

// KeyboardActive reports whether a text field currently wants keyboard input.
func (s *RmlSystem) KeyboardActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboardActive
}

func logLevelOf(typ LogType) slog.Level {
	switch typ {
	case LogError, LogAssert:
		return slog.LevelError
	case LogWarning:
		return slog.LevelWarn
	case LogDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// CursorOf maps a CSS cursor name to a window cursor. Unknown names give the arrow.
//
// Parameters:
//   - name: the cursor name, case-insensitive
//
// Returns:
//   - window.Cursor: the cursor shape
func CursorOf(name string) window.Cursor {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return window.CursorText
	case "pointer", "hand":
		return window.CursorHand
	case "cross", "crosshair", "move":
		return window.CursorCross
	case "ew-resize", "col-resize", "e-resize", "w-resize", "resize":
		return window.CursorResizeHorizontal
	case "ns-resize", "row-resize", "n-resize", "s-resize":
		return window.CursorResizeVertical
	default:
		return window.CursorArrow
	}
}
