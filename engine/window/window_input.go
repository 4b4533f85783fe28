package window

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/event"
)

// inputState tracks held buttons, modifiers and the cursor so every published event
// carries the full input state, not only the change.
type inputState struct {
	buttons    common.MouseButton
	qualifiers common.Qualifiers
	x, y       int
	hasCursor  bool
	grabbed    bool
}

func (s *inputState) key(key common.Key, scancode int, down, repeat bool, quals common.Qualifiers) event.Event {
	s.qualifiers = quals
	return event.Key{
		Down:       down,
		Key:        key,
		Scancode:   scancode,
		Buttons:    s.buttons,
		Qualifiers: quals,
		Repeat:     repeat,
	}
}

func (s *inputState) mouseButton(button common.MouseButton, down bool, quals common.Qualifiers) event.Event {
	if button == 0 {
		return nil
	}
	if down {
		s.buttons |= button
	} else {
		s.buttons &^= button
	}
	s.qualifiers = quals
	return event.MouseButton{
		Down:       down,
		Button:     button,
		Buttons:    s.buttons,
		Qualifiers: quals,
		X:          s.x,
		Y:          s.y,
	}
}

// move records a new cursor position. The first position after creation reports a
// zero delta.
func (s *inputState) move(x, y int) event.Event {
	dx, dy := 0, 0
	if s.hasCursor {
		dx, dy = x-s.x, y-s.y
	}
	s.x, s.y, s.hasCursor = x, y, true
	return event.MouseMove{X: x, Y: y, DX: dx, DY: dy, Buttons: s.buttons, Qualifiers: s.qualifiers}
}

// wheel converts a scroll offset to whole wheel steps, keeping the sign of fractional
// trackpad scrolls.
func (s *inputState) wheel(offset float64) event.Event {
	steps := int(offset)
	switch {
	case steps == 0 && offset > 0:
		steps = 1
	case steps == 0 && offset < 0:
		steps = -1
	case steps == 0:
		return nil
	}
	return event.MouseWheel{Wheel: steps, Buttons: s.buttons, Qualifiers: s.qualifiers}
}

// textInput converts one typed code point to a text input event.
func textInput(char rune) event.Event {
	return event.TextInput{Text: string(char)}
}
