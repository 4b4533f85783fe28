// Package ui bridges an RmlUi-style document middleware to the engine: it renders the
// middleware's geometry through graphics.Graphics, serves its files from an fs.FS,
// forwards engine input events to it and drives its update and render from frame
// events. The middleware itself is injected through the Middleware interface.
package ui

import (
	"io"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one vertex of middleware geometry. Color is RGBA with 8 bits per channel.
type Vertex struct {
	Position mgl32.Vec2
	Color    [4]uint8
	TexCoord mgl32.Vec2
}

// LogType is the severity of a middleware log message.
type LogType uint8

const (
	LogAlways LogType = iota
	LogError
	LogAssert
	LogWarning
	LogInfo
	LogDebug
)

// KeyModifier is the middleware's bit set of held modifier keys.
type KeyModifier uint8

const (
	ModCtrl KeyModifier = 1 << iota
	ModShift
	ModAlt
	ModMeta
)

// RenderInterface is implemented by the engine and called by the middleware to draw.
type RenderInterface interface {
	CompileGeometry(vertices []Vertex, indices []int32, texture TextureHandle) GeometryHandle
	RenderCompiledGeometry(geometry GeometryHandle, translation mgl32.Vec2)
	ReleaseCompiledGeometry(geometry GeometryHandle)
	RenderGeometry(vertices []Vertex, indices []int32, texture TextureHandle, translation mgl32.Vec2)
	EnableScissorRegion(enable bool)
	SetScissorRegion(x, y, width, height int)
	LoadTexture(source string) (TextureHandle, common.IntVector2, error)
	GenerateTexture(pixels []byte, size common.IntVector2) (TextureHandle, error)
	ReleaseTexture(texture TextureHandle)
	SetTransform(transform *mgl32.Mat4)
}

// SystemInterface is implemented by the engine and gives the middleware time,
// logging, localization, clipboard and cursor access.
type SystemInterface interface {
	ElapsedTime() float64
	TranslateString(input string) (string, int)
	LogMessage(typ LogType, message string) bool
	SetMouseCursor(name string)
	SetClipboardText(text string)
	ClipboardText() string
	ActivateKeyboard()
	DeactivateKeyboard()
}

// FileHandle identifies a file opened through a FileInterface. Zero is never a valid handle.
type FileHandle uint64

// FileInterface is implemented by the engine and serves middleware documents,
// style sheets, fonts and images.
type FileInterface interface {
	Open(path string) (FileHandle, error)
	Close(file FileHandle)
	Read(file FileHandle, buf []byte) (int, error)
	Seek(file FileHandle, offset int64, whence int) error
	Tell(file FileHandle) (int64, error)
	Length(file FileHandle) (int64, error)
}

// Middleware is the document and layout library the UI is built on.
type Middleware interface {
	// Initialise installs the engine interfaces. It is called once, before any context
	// is created.
	Initialise(render RenderInterface, system SystemInterface, files FileInterface) error

	// CreateContext creates a named document context of the given size.
	CreateContext(name string, size common.IntVector2) (Context, error)

	// LoadFontFace registers a font file; fallback fonts are used for missing glyphs.
	LoadFontFace(path string, fallback bool) error

	// Shutdown releases every context and document.
	Shutdown()
}

// Context is a middleware document context: one independent UI surface.
type Context interface {
	SetDimensions(size common.IntVector2)
	Update() error
	Render() error
	LoadDocument(path string) (Document, error)
	// LoadDocumentFromReader parses a document from r; sourceURL names it in errors.
	LoadDocumentFromReader(r io.Reader, sourceURL string) (Document, error)

	ProcessMouseMove(x, y int, modifiers KeyModifier) bool
	ProcessMouseButtonDown(button int, modifiers KeyModifier) bool
	ProcessMouseButtonUp(button int, modifiers KeyModifier) bool
	ProcessMouseWheel(delta float32, modifiers KeyModifier) bool
	ProcessMouseLeave() bool
	ProcessKeyDown(key KeyIdentifier, modifiers KeyModifier) bool
	ProcessKeyUp(key KeyIdentifier, modifiers KeyModifier) bool
	ProcessTextInput(text string) bool
}

// Document is a middleware document loaded into a context.
type Document interface {
	Show()
	Hide()
	Close()
	Title() string
	IsVisible() bool
}
