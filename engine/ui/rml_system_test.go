package ui

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/stretchr/testify/assert"
)

type fakePlatform struct {
	clipboard string
	cursors   []window.Cursor
}

func (p *fakePlatform) ClipboardText() string          { return p.clipboard }
func (p *fakePlatform) SetClipboardText(text string)   { p.clipboard = text }
func (p *fakePlatform) SetCursor(cursor window.Cursor) { p.cursors = append(p.cursors, cursor) }

func TestRmlSystemElapsedTime(t *testing.T) {
	now := time.Unix(100, 0)
	system := NewRmlSystem(nil, WithClock(func() time.Time { return now }))

	assert.Zero(t, system.ElapsedTime())
	now = now.Add(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, system.ElapsedTime(), 1e-9)
}

func TestRmlSystemTranslateString(t *testing.T) {
	system := NewRmlSystem(nil)
	out, n := system.TranslateString("Start")
	assert.Equal(t, "Start", out)
	assert.Zero(t, n)

	system = NewRmlSystem(nil, WithTranslator(func(in string) (string, bool) {
		if in == "Start" {
			return "Démarrer", true
		}
		return "", false
	}))
	out, n = system.TranslateString("Start")
	assert.Equal(t, "Démarrer", out)
	assert.Equal(t, 1, n)
	out, n = system.TranslateString("Quit")
	assert.Equal(t, "Quit", out)
	assert.Zero(t, n)
}

func TestRmlSystemLogMessageLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	system := NewRmlSystem(nil, WithSystemLogger(logger))

	assert.True(t, system.LogMessage(LogInfo, "hidden"))
	assert.True(t, system.LogMessage(LogWarning, "shown warning"))
	assert.True(t, system.LogMessage(LogAssert, "shown assert"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN msg=\"shown warning\"")
	assert.Contains(t, out, "level=ERROR msg=\"shown assert\"")
}

func TestRmlSystemPlatform(t *testing.T) {
	platform := &fakePlatform{clipboard: "from os"}
	system := NewRmlSystem(platform)

	assert.Equal(t, "from os", system.ClipboardText())
	system.SetClipboardText("copied")
	assert.Equal(t, "copied", platform.clipboard)

	system.SetMouseCursor("pointer")
	system.SetMouseCursor("Text")
	system.SetMouseCursor("something-else")
	assert.Equal(t, []window.Cursor{window.CursorHand, window.CursorText, window.CursorArrow}, platform.cursors)
}

func TestRmlSystemHeadless(t *testing.T) {
	system := NewRmlSystem(nil)
	system.SetMouseCursor("text")
	system.SetClipboardText("kept")
	assert.Equal(t, "kept", system.ClipboardText())

	assert.False(t, system.KeyboardActive())
	system.ActivateKeyboard()
	assert.True(t, system.KeyboardActive())
	system.DeactivateKeyboard()
	assert.False(t, system.KeyboardActive())
}

func TestCursorOf(t *testing.T) {
	assert.Equal(t, window.CursorResizeHorizontal, CursorOf("ew-resize"))
	assert.Equal(t, window.CursorResizeVertical, CursorOf(" ns-resize "))
	assert.Equal(t, window.CursorCross, CursorOf("move"))
	assert.Equal(t, window.CursorArrow, CursorOf(""))
}
