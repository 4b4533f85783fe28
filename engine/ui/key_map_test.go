package ui

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/stretchr/testify/assert"
)

func TestKeyIdentifierOf(t *testing.T) {
	tests := []struct {
		key  common.Key
		want KeyIdentifier
	}{
		{common.KeyA, KeyIDA},
		{common.KeyZ, KeyIDZ},
		{common.Key0, KeyID0},
		{common.Key9, KeyID9},
		{common.KeyF1, KeyIDF1},
		{common.KeyF12, KeyIDF12},
		{common.KeySpace, KeyIDSpace},
		{common.KeySemicolon, KeyIDSemicolon},
		{common.KeyEnter, KeyIDReturn},
		{common.KeyKeypadEnter, KeyIDNumpadEnter},
		{common.KeyBackspace, KeyIDBack},
		{common.KeyRightSuper, KeyIDRMeta},
		{common.Key(1000), KeyIDUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyIdentifierOf(tt.key), "key %d", tt.key)
	}
}

func TestKeyIdentifierBlocksDoNotOverlap(t *testing.T) {
	assert.Equal(t, KeyIDA+25, KeyIDZ)
	assert.Equal(t, KeyIDZ+1, KeyIDSemicolon)
	assert.Equal(t, KeyIDF1+11, KeyIDF12)
	assert.Equal(t, KeyIDF12+1, KeyIDNumpadEnter)
}

func TestKeyModifiersOf(t *testing.T) {
	assert.Equal(t, KeyModifier(0), KeyModifiersOf(0))
	assert.Equal(t, ModCtrl|ModShift, KeyModifiersOf(common.QualCtrl|common.QualShift))
	assert.Equal(t, ModAlt|ModMeta, KeyModifiersOf(common.QualAlt|common.QualSuper))
}

func TestMouseButtonIndex(t *testing.T) {
	for button, want := range map[common.MouseButton]int{
		common.MouseButtonLeft:   0,
		common.MouseButtonRight:  1,
		common.MouseButtonMiddle: 2,
		common.MouseButtonX1:     3,
		common.MouseButtonX2:     4,
	} {
		got, ok := mouseButtonIndex(button)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := mouseButtonIndex(common.TouchButton(3))
	assert.False(t, ok)
}
