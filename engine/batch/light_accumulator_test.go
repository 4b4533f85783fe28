package batch

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indices(entries []LightEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Index)
	}
	return out
}

func TestAccumulatorSplitsPixelAndVertexLights(t *testing.T) {
	var acc DrawableLightAccumulator
	for i := 0; i < 8; i++ {
		acc.Accumulate(i, float32(8-i), light.ImportanceDefault, false)
	}
	acc.Finalize(2)

	assert.Equal(t, []int{7, 6}, indices(acc.PixelLights()))
	assert.Equal(t, []int{5, 4, 3, 2}, indices(acc.VertexLights()))
	assert.Equal(t, 8, acc.NumLights())
}

func TestAccumulatorImportantLightsAlwaysPixel(t *testing.T) {
	var acc DrawableLightAccumulator
	acc.Accumulate(0, 1, light.ImportanceDefault, false)
	acc.Accumulate(1, 50, light.ImportanceImportant, false)
	acc.Accumulate(2, 60, light.ImportanceImportant, false)
	acc.Accumulate(3, 2, light.ImportanceDefault, false)
	acc.Finalize(1)

	// Two important lights widen the budget to two, leaving no free slot.
	assert.ElementsMatch(t, []int{1, 2}, indices(acc.PixelLights()))
	assert.Equal(t, []int{0, 3}, indices(acc.VertexLights()))

	acc.Reset()
	acc.Accumulate(0, 1, light.ImportanceDefault, false)
	acc.Accumulate(1, 50, light.ImportanceImportant, false)
	acc.Finalize(3)
	assert.Equal(t, []int{0, 1}, indices(acc.PixelLights()))
	assert.Empty(t, acc.VertexLights())
}

func TestAccumulatorPerVertexLightsNeverPixel(t *testing.T) {
	var acc DrawableLightAccumulator
	acc.Accumulate(0, 1, light.ImportanceImportant, true)
	acc.Accumulate(1, 5, light.ImportanceDefault, false)
	acc.Finalize(4)

	assert.Equal(t, []int{1}, indices(acc.PixelLights()))
	assert.Equal(t, []int{0}, indices(acc.VertexLights()))
}

func TestAccumulatorResetKeepsCapacity(t *testing.T) {
	var acc DrawableLightAccumulator
	for i := 0; i < 6; i++ {
		acc.Accumulate(i, float32(i), light.ImportanceDefault, false)
	}
	acc.Finalize(1)
	acc.Reset()

	assert.Zero(t, acc.NumLights())
	assert.Empty(t, acc.PixelLights())
	assert.Empty(t, acc.VertexLights())
	assert.GreaterOrEqual(t, cap(acc.entries), 6)
}

func TestLightPenalty(t *testing.T) {
	assert.Equal(t, -common.LargeValue, LightPenalty(true, 10, 1))
	assert.InDelta(t, 5, LightPenalty(false, 10, 2), 1e-6)
	assert.InDelta(t, common.LargeEpsilon/2, LightPenalty(false, 0, 2), 1e-9)
}

func TestScenePassValidation(t *testing.T) {
	for _, desc := range DefaultScenePasses() {
		assert.NoError(t, desc.Validate())
	}
	assert.NoError(t, ScenePassDescription{Type: ScenePassUnlit, UnlitBasePassName: "base"}.Validate())
	assert.Error(t, ScenePassDescription{Type: ScenePassUnlit}.Validate())
	assert.Error(t, ScenePassDescription{Type: ScenePassForwardUnlitBase, UnlitBasePassName: "base"}.Validate())
	assert.Error(t, ScenePassDescription{Type: ScenePassType(9)}.Validate())
	assert.Equal(t, "forward-lit-base", ScenePassForwardLitBase.String())
}

func TestIntermediatePassCombination(t *testing.T) {
	tech := material.NewLitSolidTechnique(false)
	lit := ScenePassDescription{
		Type:                    ScenePassForwardLitBase,
		UnlitBasePassName:       material.PassBase,
		LitBasePassName:         material.PassLitBase,
		AdditionalLightPassName: material.PassLight,
	}

	base, additional := resolvePasses(&lit, tech).intermediate(lit.Type)
	require.NotNil(t, base)
	assert.Equal(t, material.PassLitBase, base.Name())
	assert.Equal(t, material.PassLight, additional.Name())

	unlitBase := lit
	unlitBase.Type = ScenePassForwardUnlitBase
	base, additional = resolvePasses(&unlitBase, tech).intermediate(unlitBase.Type)
	assert.Equal(t, material.PassBase, base.Name())
	assert.Equal(t, material.PassLight, additional.Name())

	unlit := ScenePassDescription{Type: ScenePassUnlit, UnlitBasePassName: material.PassBase}
	base, additional = resolvePasses(&unlit, tech).intermediate(unlit.Type)
	assert.Equal(t, material.PassBase, base.Name())
	assert.Nil(t, additional)

	// An unlit-only technique falls back to its base pass in a lit scene pass.
	base, additional = resolvePasses(&lit, material.NewUnlitTechnique(false)).intermediate(lit.Type)
	assert.Equal(t, material.PassBase, base.Name())
	assert.Nil(t, additional)

	// A light pass without a lit base cannot be drawn in a lit-base scene pass.
	partial := material.NewTechnique("partial", material.NewPass(material.PassLight))
	base, additional = resolvePasses(&lit, partial).intermediate(lit.Type)
	assert.Nil(t, base)
	assert.Nil(t, additional)
}
