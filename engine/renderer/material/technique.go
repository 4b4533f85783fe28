package material

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// Standard pass names used by the forward renderer.
const (
	PassBase     = "base"
	PassLitBase  = "litbase"
	PassLight    = "light"
	PassAlpha    = "alpha"
	PassLitAlpha = "litalpha"
	PassShadow   = "shadow"
)

// LightingMode is how a pass receives light.
type LightingMode uint8

const (
	LightingUnlit LightingMode = iota
	LightingPerVertex
	LightingPerPixel
)

var nextPassID atomic.Uint32

// Pass is one rendering pass of a technique: shaders, defines and the blend/depth
// state the pass imposes. Passes are configured at load time; the pipeline state hash
// is stored atomically because batch workers read it while the main goroutine may
// reconfigure the pass between frames.
type Pass struct {
	mu *sync.RWMutex

	id              uint32
	name            string
	blendMode       graphics.BlendMode
	depthTest       graphics.CompareMode
	depthWrite      bool
	alphaToCoverage bool
	lightingMode    LightingMode
	desktopOnly     bool

	vertexShader  string
	pixelShader   string
	vertexDefines string
	pixelDefines  string
	pipelineHash  atomic.Uint32
}

// NewPass creates a pass with depth test LessEqual, depth write on and Replace blending.
//
// Parameters:
//   - name: the pass name, e.g. PassBase
//   - options: functional options to configure the pass
//
// Returns:
//   - *Pass: the new pass
func NewPass(name string, options ...PassBuilderOption) *Pass {
	p := &Pass{
		mu:         &sync.RWMutex{},
		id:         nextPassID.Add(1),
		name:       name,
		depthTest:  graphics.CompareLessEqual,
		depthWrite: true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.updateHash()
	return p
}

func (p *Pass) ID() uint32   { return p.id }
func (p *Pass) Name() string { return p.name }

func (p *Pass) BlendMode() graphics.BlendMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.blendMode
}

func (p *Pass) DepthTestMode() graphics.CompareMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.depthTest
}

func (p *Pass) DepthWrite() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.depthWrite
}

func (p *Pass) AlphaToCoverage() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.alphaToCoverage
}

func (p *Pass) LightingMode() LightingMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lightingMode
}

// IsDesktopOnly reports whether the pass needs desktop-class hardware.
func (p *Pass) IsDesktopOnly() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.desktopOnly
}

// Shaders returns the vertex and pixel shader names.
func (p *Pass) Shaders() (vs, ps string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vertexShader, p.pixelShader
}

// Defines returns the vertex and pixel shader defines of the pass.
func (p *Pass) Defines() (vs, ps string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vertexDefines, p.pixelDefines
}

// PipelineStateHash returns the hash of everything the pass contributes to a
// pipeline state. Safe to call from any goroutine.
func (p *Pass) PipelineStateHash() uint32 {
	return p.pipelineHash.Load()
}

// Configure applies options to an existing pass and refreshes its pipeline hash.
// Cached pipeline states built from the old configuration are invalidated lazily.
//
// Parameters:
//   - options: functional options to apply
func (p *Pass) Configure(options ...PassBuilderOption) {
	p.mu.Lock()
	for _, opt := range options {
		opt(p)
	}
	p.mu.Unlock()
	p.updateHash()
}

func (p *Pass) updateHash() {
	p.mu.RLock()
	var hash uint32
	common.CombineHash(&hash, uint32(p.blendMode))
	common.CombineHash(&hash, uint32(p.depthTest))
	common.CombineHash(&hash, common.HashBool(p.depthWrite))
	common.CombineHash(&hash, common.HashBool(p.alphaToCoverage))
	common.CombineHash(&hash, uint32(p.lightingMode))
	common.CombineHash(&hash, common.HashString(p.vertexShader))
	common.CombineHash(&hash, common.HashString(p.pixelShader))
	common.CombineHash(&hash, common.HashString(p.vertexDefines))
	common.CombineHash(&hash, common.HashString(p.pixelDefines))
	p.mu.RUnlock()
	p.pipelineHash.Store(hash)
}

// Technique is a named set of passes. A technique that is not supported by the
// current hardware is skipped during technique selection.
type Technique struct {
	name        string
	passes      map[string]*Pass
	desktopOnly bool
	isDesktop   bool
}

// NewTechnique creates a technique from passes. A later pass replaces an earlier one
// with the same name.
//
// Parameters:
//   - name: the technique name
//   - passes: the passes of the technique
//
// Returns:
//   - *Technique: the new technique
func NewTechnique(name string, passes ...*Pass) *Technique {
	t := &Technique{
		name:      name,
		passes:    make(map[string]*Pass, len(passes)),
		isDesktop: true,
	}
	for _, p := range passes {
		t.passes[p.Name()] = p
	}
	return t
}

func (t *Technique) Name() string { return t.name }

// SetDesktopOnly marks the technique as requiring desktop-class hardware.
func (t *Technique) SetDesktopOnly(desktopOnly bool) {
	t.desktopOnly = desktopOnly
}

// SetHardwareLevel tells the technique whether it runs on desktop-class hardware.
func (t *Technique) SetHardwareLevel(isDesktop bool) {
	t.isDesktop = isDesktop
}

// IsSupported reports whether the technique can run on the current hardware.
func (t *Technique) IsSupported() bool {
	return !t.desktopOnly || t.isDesktop
}

// HasPass reports whether the technique defines a pass named name.
func (t *Technique) HasPass(name string) bool {
	_, ok := t.passes[name]
	return ok
}

// Pass returns the pass named name, or nil.
func (t *Technique) Pass(name string) *Pass {
	return t.passes[name]
}

// SupportedPass returns the pass named name if it can run on the current hardware,
// or nil.
func (t *Technique) SupportedPass(name string) *Pass {
	p := t.passes[name]
	if p == nil || (p.IsDesktopOnly() && !t.isDesktop) {
		return nil
	}
	return p
}

// PassNames returns the names of every pass.
func (t *Technique) PassNames() []string {
	names := make([]string, 0, len(t.passes))
	for name := range t.passes {
		names = append(names, name)
	}
	return names
}

// NewLitSolidTechnique returns the forward lit opaque technique: an unlit base pass,
// a lit base pass with ambient, an additive per-light pass and a shadow pass.
//
// Parameters:
//   - diffuseMap: sample the diffuse texture unit
//
// Returns:
//   - *Technique: the technique
func NewLitSolidTechnique(diffuseMap bool) *Technique {
	name, ps := "NoTexture", ""
	if diffuseMap {
		name, ps = "Diff", "DIFFMAP"
	}
	return NewTechnique(name,
		NewPass(PassBase, WithShaders("LitSolid", "LitSolid"), WithDefines("", joinDefines(ps, "AMBIENT"))),
		NewPass(PassLitBase, WithShaders("LitSolid", "LitSolid"), WithDefines("", joinDefines(ps, "AMBIENT")), WithLightingMode(LightingPerPixel)),
		NewPass(PassLight, WithShaders("LitSolid", "LitSolid"), WithDefines("", ps), WithLightingMode(LightingPerPixel),
			WithDepthTest(graphics.CompareEqual), WithDepthWrite(false), WithBlendMode(graphics.BlendAdd)),
		NewPass(PassShadow, WithShaders("Shadow", "Shadow")),
	)
}

// NewLitAlphaTechnique returns the forward lit transparent technique.
//
// Returns:
//   - *Technique: the technique
func NewLitAlphaTechnique() *Technique {
	return NewTechnique("NoTextureAlpha",
		NewPass(PassAlpha, WithShaders("LitSolid", "LitSolid"), WithDefines("", "AMBIENT"),
			WithDepthWrite(false), WithBlendMode(graphics.BlendAlpha)),
		NewPass(PassLitAlpha, WithShaders("LitSolid", "LitSolid"), WithDefines("", "AMBIENT"), WithLightingMode(LightingPerPixel),
			WithDepthWrite(false), WithBlendMode(graphics.BlendAlpha)),
		NewPass(PassLight, WithShaders("LitSolid", "LitSolid"), WithLightingMode(LightingPerPixel),
			WithDepthTest(graphics.CompareEqual), WithDepthWrite(false), WithBlendMode(graphics.BlendAddAlpha)),
	)
}

// NewUnlitTechnique returns a technique with a single unlit base pass.
//
// Parameters:
//   - diffuseMap: sample the diffuse texture unit
//
// Returns:
//   - *Technique: the technique
func NewUnlitTechnique(diffuseMap bool) *Technique {
	name, ps := "NoTextureUnlit", ""
	if diffuseMap {
		name, ps = "DiffUnlit", "DIFFMAP"
	}
	return NewTechnique(name,
		NewPass(PassBase, WithShaders("Unlit", "Unlit"), WithDefines("", ps)),
	)
}

func joinDefines(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
