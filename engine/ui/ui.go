package ui

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/event"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/hack-pad/hackpadfs/mem"
)

// ErrNotInitialized is returned by operations that need the middleware context
// before the graphics device is ready.
var ErrNotInitialized = errors.New("ui: not initialized")

// InputState is the part of the window the UI asks about the mouse.
type InputState interface {
	IsMouseGrabbed() bool
	IsMouseVisible() bool
	MousePosition() (int, int)
}

// FontFace is a font file registered with the middleware on initialization.
type FontFace struct {
	Path     string
	Fallback bool
}

// DropFileHandler receives files dropped on the window and the UI position of the
// cursor at the time of the drop.
type DropFileHandler func(fileName string, x, y int)

// UI drives one middleware context: it forwards input from the event bus, updates
// the context after scene updates and renders it after every view was rendered.
type UI struct {
	mu *sync.Mutex

	name       string
	bus        event.Bus
	gfx        graphics.Graphics
	middleware Middleware
	input      InputState
	platform   Platform
	files      fs.FS
	logger     *slog.Logger
	fonts      []FontFace
	onDrop     DropFileHandler

	renderer      *RmlRenderer
	system        *RmlSystem
	fileInterface *RmlFile
	rendererOpts  []RmlRendererBuilderOption
	systemOpts    []RmlSystemBuilderOption
	context       Context
	renderTarget  *graphics.Texture
	scale         float32
	initialized   bool
	uiRendered    bool
	usingTouch    bool
	inputSubs     []event.Subscription
	frameSubs     []event.Subscription
	documents     []*UIDocument
}

// NewUI creates the UI subsystem, subscribes it to input events and initializes it
// right away if the graphics device is ready. Otherwise it initializes on the next
// screen mode event. Panics if bus or middleware is nil.
//
// Parameters:
//   - name: the middleware context name
//   - bus: the event bus input and frame events are published on
//   - middleware: the document library
//   - options: functional options to configure the UI
//
// Returns:
//   - *UI: the new UI subsystem
func NewUI(name string, bus event.Bus, middleware Middleware, options ...UIBuilderOption) *UI {
	if bus == nil {
		panic("ui: NewUI requires a non-nil event.Bus")
	}
	if middleware == nil {
		panic("ui: NewUI requires a non-nil Middleware")
	}
	u := &UI{
		mu:         &sync.Mutex{},
		name:       name,
		bus:        bus,
		middleware: middleware,
		logger:     slog.Default(),
		scale:      1,
	}
	for _, opt := range options {
		opt(u)
	}

	u.inputSubs = []event.Subscription{
		bus.Subscribe(event.TypeScreenMode, u.handleScreenMode),
		bus.Subscribe(event.TypeMouseButtonDown, u.handleMouseButton),
		bus.Subscribe(event.TypeMouseButtonUp, u.handleMouseButton),
		bus.Subscribe(event.TypeMouseMove, u.handleMouseMove),
		bus.Subscribe(event.TypeMouseWheel, u.handleMouseWheel),
		bus.Subscribe(event.TypeTouchBegin, u.handleTouch),
		bus.Subscribe(event.TypeTouchEnd, u.handleTouch),
		bus.Subscribe(event.TypeTouchMove, u.handleTouch),
		bus.Subscribe(event.TypeKeyDown, u.handleKey),
		bus.Subscribe(event.TypeKeyUp, u.handleKey),
		bus.Subscribe(event.TypeTextInput, u.handleTextInput),
		bus.Subscribe(event.TypeDropFile, u.handleDropFile),
	}

	if _, err := u.Initialize(); err != nil {
		u.logger.Error("ui: initialization failed", "name", name, "err", err)
	}
	return u
}

// Initialize creates the middleware context if the graphics device is ready. It is
// a no-op once initialized.
//
// Returns:
//   - bool: true if the UI is initialized after the call
//   - error: error if the middleware rejected initialization
func (u *UI) Initialize() (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.initialized {
		return true, nil
	}
	if u.gfx == nil {
		return false, nil
	}
	size := u.gfx.BackbufferSize()
	if size.X <= 0 || size.Y <= 0 {
		return false, nil
	}

	if u.files == nil {
		memFS, err := mem.NewFS()
		if err != nil {
			return false, fmt.Errorf("ui: failed to create file system: %w", err)
		}
		u.files = memFS
	}

	u.system = NewRmlSystem(u.platform, append([]RmlSystemBuilderOption{WithSystemLogger(u.logger)}, u.systemOpts...)...)
	u.fileInterface = NewRmlFile(u.files)
	rendererOpts := []RmlRendererBuilderOption{
		WithRendererFS(u.files),
		WithElapsedTime(u.system.ElapsedTime),
		WithRmlRendererLogger(u.logger),
	}
	u.renderer = NewRmlRenderer(u.gfx, append(rendererOpts, u.rendererOpts...)...)
	u.renderer.SetScale(u.scale)
	u.renderer.SetRenderTarget(u.renderTarget)

	if err := u.middleware.Initialise(u.renderer, u.system, u.fileInterface); err != nil {
		return false, fmt.Errorf("ui: middleware initialization failed: %w", err)
	}
	ctx, err := u.middleware.CreateContext(u.name, u.contextSize())
	if err != nil {
		return false, fmt.Errorf("ui: failed to create context %s: %w", u.name, err)
	}
	u.context = ctx
	u.initialized = true

	for _, font := range u.fonts {
		if err := u.middleware.LoadFontFace(font.Path, font.Fallback); err != nil {
			u.logger.Warn("ui: failed to load font face", "path", font.Path, "err", err)
		}
	}

	u.frameSubs = []event.Subscription{
		u.bus.Subscribe(event.TypePostUpdate, u.handlePostUpdate),
		u.bus.Subscribe(event.TypeRenderUpdate, u.handleRenderUpdate),
		u.bus.Subscribe(event.TypeEndAllViewsRender, u.handleEndAllViewsRender),
	}
	u.logger.Debug("ui: initialized", "name", u.name, "size", u.contextSize())
	return true, nil
}

// IsInitialized reports whether the middleware context exists.
func (u *UI) IsInitialized() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.initialized
}

// IsRendered reports whether the UI was rendered since the last render update.
func (u *UI) IsRendered() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uiRendered
}

// Renderer returns the render interface, nil before initialization.
func (u *UI) Renderer() *RmlRenderer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.renderer
}

// System returns the system interface, nil before initialization.
func (u *UI) System() *RmlSystem {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.system
}

// Context returns the middleware context, nil before initialization.
func (u *UI) Context() Context {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.context
}

// UsingTouchInput reports whether the last pointer input came from a touch.
func (u *UI) UsingTouchInput() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usingTouch
}

// Scale returns the UI scale.
func (u *UI) Scale() float32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.scale
}

// SetScale sets how many pixels one UI unit covers. Input positions are divided by
// it and the context is resized to match. Non-positive values are ignored.
//
// Parameters:
//   - scale: the new scale
func (u *UI) SetScale(scale float32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if scale <= 0 {
		return
	}
	u.scale = scale
	if u.renderer != nil {
		u.renderer.SetScale(scale)
	}
	if u.context != nil {
		u.context.SetDimensions(u.contextSize())
	}
}

// SetRenderTarget renders the UI into target instead of the backbuffer; nil
// restores the backbuffer.
//
// Parameters:
//   - target: a render target texture or nil
func (u *UI) SetRenderTarget(target *graphics.Texture) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.renderTarget = target
	if u.renderer != nil {
		u.renderer.SetRenderTarget(target)
	}
	if u.context != nil {
		u.context.SetDimensions(u.contextSize())
	}
}

// LoadDocument loads a document from the UI file system.
//
// Parameters:
//   - path: the document path
//
// Returns:
//   - *UIDocument: the loaded document, hidden
//   - error: ErrNotInitialized or the middleware error
func (u *UI) LoadDocument(path string) (*UIDocument, error) {
	ctx, err := u.readyContext()
	if err != nil {
		return nil, err
	}
	doc, err := ctx.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("ui: failed to load document %s: %w", path, err)
	}
	return u.track(doc, path), nil
}

// LoadDocumentFromReader parses a document from r.
//
// Parameters:
//   - r: the document source
//   - sourceURL: the name used in error messages and for relative paths
//
// Returns:
//   - *UIDocument: the loaded document, hidden
//   - error: ErrNotInitialized or the middleware error
func (u *UI) LoadDocumentFromReader(r io.Reader, sourceURL string) (*UIDocument, error) {
	ctx, err := u.readyContext()
	if err != nil {
		return nil, err
	}
	doc, err := ctx.LoadDocumentFromReader(r, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("ui: failed to load document %s: %w", sourceURL, err)
	}
	return u.track(doc, sourceURL), nil
}

// Documents returns the documents loaded through the UI that are still open.
func (u *UI) Documents() []*UIDocument {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]*UIDocument, 0, len(u.documents))
	for _, d := range u.documents {
		if !d.IsClosed() {
			out = append(out, d)
		}
	}
	return out
}

// Update advances the middleware context.
//
// Parameters:
//   - timeStep: seconds since the previous update
func (u *UI) Update(timeStep float32) {
	u.mu.Lock()
	ctx := u.context
	u.mu.Unlock()
	if ctx == nil {
		return
	}
	if err := ctx.Update(); err != nil {
		u.logger.Warn("ui: update failed", "name", u.name, "timeStep", timeStep, "err", err)
	}
}

// RenderUpdate marks the UI as not yet rendered this frame.
func (u *UI) RenderUpdate() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uiRendered = false
}

// Render draws the middleware context into the render target, or into whatever the
// device has bound (the backbuffer after all views) when there is none.
func (u *UI) Render() {
	u.mu.Lock()
	ctx, target, gfx := u.context, u.renderTarget, u.gfx
	u.mu.Unlock()
	if ctx == nil {
		return
	}

	if target != nil {
		gfx.SetRenderTarget(target, nil)
		gfx.SetViewport(common.NewIntRect(0, 0, target.Width(), target.Height()))
	}
	if err := ctx.Render(); err != nil {
		u.logger.Warn("ui: render failed", "name", u.name, "err", err)
	}

	u.mu.Lock()
	u.uiRendered = true
	u.mu.Unlock()
}

// Shutdown unsubscribes from the bus, closes every document and shuts the
// middleware down.
func (u *UI) Shutdown() {
	u.mu.Lock()
	subs := slices.Concat(u.inputSubs, u.frameSubs)
	u.inputSubs, u.frameSubs = nil, nil
	docs := u.documents
	u.documents = nil
	initialized := u.initialized
	u.initialized = false
	u.context = nil
	renderer := u.renderer
	u.mu.Unlock()

	for _, s := range subs {
		u.bus.Unsubscribe(s)
	}
	for _, d := range docs {
		d.Close()
	}
	if initialized {
		u.middleware.Shutdown()
	}
	if renderer != nil {
		renderer.Release()
	}
}

func (u *UI) readyContext() (Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.context == nil {
		return nil, ErrNotInitialized
	}
	return u.context, nil
}

func (u *UI) track(doc Document, source string) *UIDocument {
	d := newUIDocument(doc, source)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.documents = append(u.documents, d)
	return d
}

// contextSize is the render target (or backbuffer) size in UI units.
func (u *UI) contextSize() common.IntVector2 {
	size := u.gfx.BackbufferSize()
	if u.renderTarget != nil {
		size = u.renderTarget.Size()
	}
	return common.IntVector2{X: int(float32(size.X) / u.scale), Y: int(float32(size.Y) / u.scale)}
}

// inputContext returns the context when input should be forwarded to it, together
// with the current scale.
func (u *UI) inputContext() (Context, float32) {
	u.mu.Lock()
	ctx, scale, input := u.context, u.scale, u.input
	u.mu.Unlock()
	if ctx == nil {
		return nil, scale
	}
	if input != nil && input.IsMouseGrabbed() {
		return nil, scale
	}
	return ctx, scale
}

func (u *UI) handleScreenMode(e event.Event) {
	if !u.IsInitialized() {
		if _, err := u.Initialize(); err != nil {
			u.logger.Error("ui: initialization failed", "name", u.name, "err", err)
		}
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.context != nil {
		u.context.SetDimensions(u.contextSize())
	}
}

func (u *UI) handleMouseButton(e event.Event) {
	ev, ok := e.(event.MouseButton)
	if !ok {
		return
	}
	ctx, _ := u.inputContext()
	if ctx == nil {
		return
	}
	button, ok := mouseButtonIndex(ev.Button)
	if !ok {
		return
	}
	mods := KeyModifiersOf(ev.Qualifiers)
	if ev.Down {
		ctx.ProcessMouseButtonDown(button, mods)
	} else {
		ctx.ProcessMouseButtonUp(button, mods)
	}
}

func (u *UI) handleMouseMove(e event.Event) {
	ev, ok := e.(event.MouseMove)
	if !ok {
		return
	}
	ctx, scale := u.inputContext()
	if ctx == nil {
		return
	}
	u.mu.Lock()
	u.usingTouch = false
	u.mu.Unlock()
	ctx.ProcessMouseMove(int(float32(ev.X)/scale), int(float32(ev.Y)/scale), KeyModifiersOf(ev.Qualifiers))
}

// handleMouseWheel inverts the engine's "positive is away from the user" wheel to
// the middleware's "positive scrolls down".
func (u *UI) handleMouseWheel(e event.Event) {
	ev, ok := e.(event.MouseWheel)
	if !ok {
		return
	}
	ctx, _ := u.inputContext()
	if ctx == nil {
		return
	}
	ctx.ProcessMouseWheel(float32(-ev.Wheel), KeyModifiersOf(ev.Qualifiers))
}

// handleTouch forwards touches as left mouse button input at the touch position.
func (u *UI) handleTouch(e event.Event) {
	ev, ok := e.(event.Touch)
	if !ok {
		return
	}
	ctx, scale := u.inputContext()
	if ctx == nil {
		return
	}
	u.mu.Lock()
	u.usingTouch = true
	u.mu.Unlock()

	x, y := int(float32(ev.X)/scale), int(float32(ev.Y)/scale)
	ctx.ProcessMouseMove(x, y, 0)
	switch ev.Phase {
	case event.TypeTouchBegin:
		ctx.ProcessMouseButtonDown(0, 0)
	case event.TypeTouchEnd:
		ctx.ProcessMouseButtonUp(0, 0)
		ctx.ProcessMouseLeave()
	}
}

// handleKey forwards key presses. Enter also produces a line break as text input.
func (u *UI) handleKey(e event.Event) {
	ev, ok := e.(event.Key)
	if !ok {
		return
	}
	ctx, _ := u.inputContext()
	if ctx == nil {
		return
	}
	id := KeyIdentifierOf(ev.Key)
	mods := KeyModifiersOf(ev.Qualifiers)
	if !ev.Down {
		ctx.ProcessKeyUp(id, mods)
		return
	}
	ctx.ProcessKeyDown(id, mods)
	if id == KeyIDReturn || id == KeyIDNumpadEnter {
		ctx.ProcessTextInput("\n")
	}
}

func (u *UI) handleTextInput(e event.Event) {
	ev, ok := e.(event.TextInput)
	if !ok || ev.Text == "" {
		return
	}
	ctx, _ := u.inputContext()
	if ctx == nil {
		return
	}
	ctx.ProcessTextInput(ev.Text)
}

// handleDropFile reports dropped files at the cursor position, only while the
// system cursor is visible.
func (u *UI) handleDropFile(e event.Event) {
	ev, ok := e.(event.DropFile)
	if !ok {
		return
	}
	u.mu.Lock()
	input, onDrop, scale := u.input, u.onDrop, u.scale
	u.mu.Unlock()
	if onDrop == nil || input == nil || !input.IsMouseVisible() {
		return
	}
	x, y := input.MousePosition()
	onDrop(ev.FileName, int(float32(x)/scale), int(float32(y)/scale))
}

func (u *UI) handlePostUpdate(e event.Event) {
	var timeStep float32
	if f, ok := e.(event.Frame); ok {
		timeStep = f.TimeStep
	}
	u.Update(timeStep)
}

func (u *UI) handleRenderUpdate(event.Event) {
	u.RenderUpdate()
}

func (u *UI) handleEndAllViewsRender(event.Event) {
	u.Render()
}
