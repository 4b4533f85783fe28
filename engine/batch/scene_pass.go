package batch

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// ScenePassType selects how a scene pass combines material passes.
type ScenePassType int

const (
	// ScenePassUnlit draws every batch with the unlit base pass only.
	ScenePassUnlit ScenePassType = iota
	// ScenePassForwardLitBase draws the main light in the base pass and every other
	// pixel light additively.
	ScenePassForwardLitBase
	// ScenePassForwardUnlitBase draws an unlit base and every pixel light additively.
	ScenePassForwardUnlitBase
)

var scenePassTypeNames = map[ScenePassType]string{
	ScenePassUnlit:            "unlit",
	ScenePassForwardLitBase:   "forward-lit-base",
	ScenePassForwardUnlitBase: "forward-unlit-base",
}

func (t ScenePassType) String() string {
	if name, ok := scenePassTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ScenePassType(%d)", int(t))
}

// ParseScenePassType returns the pass type with the given String name.
func ParseScenePassType(name string) (ScenePassType, error) {
	for t, n := range scenePassTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("batch: unknown scene pass type %q", name)
}

// ScenePassDescription names the material passes a scene pass draws with.
type ScenePassDescription struct {
	Type                    ScenePassType
	UnlitBasePassName       string
	LitBasePassName         string
	AdditionalLightPassName string
}

// Validate checks that the pass names required by the type are set.
//
// Returns:
//   - error: error describing the missing names, nil if valid
func (d ScenePassDescription) Validate() error {
	switch d.Type {
	case ScenePassUnlit:
		if d.UnlitBasePassName == "" {
			return fmt.Errorf("batch: %s scene pass needs an unlit base pass", d.Type)
		}
	case ScenePassForwardLitBase:
		if d.LitBasePassName == "" || d.AdditionalLightPassName == "" {
			return fmt.Errorf("batch: %s scene pass needs lit base and additional light passes", d.Type)
		}
	case ScenePassForwardUnlitBase:
		if d.UnlitBasePassName == "" || d.AdditionalLightPassName == "" {
			return fmt.Errorf("batch: %s scene pass needs unlit base and additional light passes", d.Type)
		}
	default:
		return fmt.Errorf("batch: unknown scene pass type %d", int(d.Type))
	}
	return nil
}

// DefaultScenePasses returns the opaque and transparent forward passes of the
// default techniques.
//
// Returns:
//   - []ScenePassDescription: the pass list
func DefaultScenePasses() []ScenePassDescription {
	return []ScenePassDescription{
		{
			Type:                    ScenePassForwardLitBase,
			UnlitBasePassName:       material.PassBase,
			LitBasePassName:         material.PassLitBase,
			AdditionalLightPassName: material.PassLight,
		},
		{
			Type:                    ScenePassForwardLitBase,
			UnlitBasePassName:       material.PassAlpha,
			LitBasePassName:         material.PassLitAlpha,
			AdditionalLightPassName: material.PassLight,
		},
	}
}

// intermediateBatch is one source batch resolved to the material passes of a scene
// pass. basePass is nil when the technique has no usable passes for the scene pass.
type intermediateBatch struct {
	drawable         scene.Drawable
	sourceBatchIndex int
	basePass         *material.Pass
	additionalPass   *material.Pass
	// unlitBasePass replaces a lit base pass when the main light does not reach
	// the drawable.
	unlitBasePass *material.Pass
}

// passData holds the resolved passes of one technique for one scene pass.
type passData struct {
	unlitBase  *material.Pass
	litBase    *material.Pass
	additional *material.Pass
}

func resolvePasses(desc *ScenePassDescription, tech *material.Technique) passData {
	var p passData
	if desc.UnlitBasePassName != "" {
		p.unlitBase = tech.SupportedPass(desc.UnlitBasePassName)
	}
	if desc.LitBasePassName != "" {
		p.litBase = tech.SupportedPass(desc.LitBasePassName)
	}
	if desc.AdditionalLightPassName != "" {
		p.additional = tech.SupportedPass(desc.AdditionalLightPassName)
	}
	return p
}

// intermediate combines the passes into base and additional pass according to the
// scene pass type.
func (p passData) intermediate(passType ScenePassType) (base, additional *material.Pass) {
	switch passType {
	case ScenePassUnlit:
		return p.unlitBase, nil
	case ScenePassForwardUnlitBase:
		if p.unlitBase != nil && p.additional != nil {
			return p.unlitBase, p.additional
		}
		return p.unlitBase, nil
	case ScenePassForwardLitBase:
		if p.litBase != nil && p.additional != nil {
			return p.litBase, p.additional
		}
		if p.additional == nil {
			return p.unlitBase, nil
		}
	}
	return nil, nil
}
