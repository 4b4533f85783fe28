package event

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// Type identifies an event kind on the Bus.
type Type uint16

const (
	// TypeScreenMode is published when the backbuffer is created or resized.
	TypeScreenMode Type = iota
	TypeMouseButtonDown
	TypeMouseButtonUp
	TypeMouseMove
	TypeMouseWheel
	TypeTouchBegin
	TypeTouchEnd
	TypeTouchMove
	TypeKeyDown
	TypeKeyUp
	TypeTextInput
	TypeDropFile
	// TypeBeginFrame is published at the start of every engine frame.
	TypeBeginFrame
	// TypeUpdate is published once per logic tick, before TypePostUpdate.
	TypeUpdate
	// TypePostUpdate is published after all scene updates of a tick.
	TypePostUpdate
	// TypeRenderUpdate is published before views are rendered.
	TypeRenderUpdate
	// TypeEndAllViewsRender is published after every view has been rendered and
	// before the frame is presented.
	TypeEndAllViewsRender
	typeCount
)

var typeNames = [typeCount]string{
	"ScreenMode", "MouseButtonDown", "MouseButtonUp", "MouseMove", "MouseWheel",
	"TouchBegin", "TouchEnd", "TouchMove", "KeyDown", "KeyUp", "TextInput", "DropFile",
	"BeginFrame", "Update", "PostUpdate", "RenderUpdate", "EndAllViewsRender",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a payload published on the Bus.
type Event interface {
	// Type returns the kind of the event.
	Type() Type
}

// ScreenMode reports the backbuffer size.
type ScreenMode struct {
	Width, Height int
	Fullscreen    bool
}

// MouseButton reports a button press or release. Buttons holds every button down
// after the change.
type MouseButton struct {
	Down       bool
	Button     common.MouseButton
	Buttons    common.MouseButton
	Qualifiers common.Qualifiers
	X, Y       int
}

// MouseMove reports the cursor position and the delta since the previous move.
type MouseMove struct {
	X, Y       int
	DX, DY     int
	Buttons    common.MouseButton
	Qualifiers common.Qualifiers
}

// MouseWheel reports a vertical wheel step, positive away from the user.
type MouseWheel struct {
	Wheel      int
	Buttons    common.MouseButton
	Qualifiers common.Qualifiers
}

// Touch reports a touch begin, move or end.
type Touch struct {
	Phase    Type
	TouchID  int
	X, Y     int
	DX, DY   int
	Pressure float32
}

// Key reports a key press or release.
type Key struct {
	Down       bool
	Key        common.Key
	Scancode   int
	Buttons    common.MouseButton
	Qualifiers common.Qualifiers
	Repeat     bool
}

// TextInput carries text typed by the user.
type TextInput struct {
	Text string
}

// DropFile carries the path of a file dropped on the window.
type DropFile struct {
	FileName string
}

// Frame carries the frame number and the time step of frame events.
type Frame struct {
	Kind        Type
	FrameNumber uint32
	TimeStep    float32
}

func (ScreenMode) Type() Type { return TypeScreenMode }
func (e MouseButton) Type() Type {
	if e.Down {
		return TypeMouseButtonDown
	}
	return TypeMouseButtonUp
}
func (MouseMove) Type() Type  { return TypeMouseMove }
func (MouseWheel) Type() Type { return TypeMouseWheel }
func (e Touch) Type() Type    { return e.Phase }
func (e Key) Type() Type {
	if e.Down {
		return TypeKeyDown
	}
	return TypeKeyUp
}
func (TextInput) Type() Type { return TypeTextInput }
func (DropFile) Type() Type  { return TypeDropFile }
func (e Frame) Type() Type   { return e.Kind }
