package ui

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// KeyIdentifier is the middleware's layout-independent key code.
type KeyIdentifier uint16

const (
	KeyIDUnknown KeyIdentifier = iota
	KeyIDSpace
	KeyID0 // KeyID0..KeyID9 are contiguous
	KeyID1
	KeyID2
	KeyID3
	KeyID4
	KeyID5
	KeyID6
	KeyID7
	KeyID8
	KeyID9
	KeyIDA // KeyIDA..KeyIDZ are contiguous
)

const (
	KeyIDZ         = KeyIDA + 25
	KeyIDSemicolon = KeyIDZ + iota
	KeyIDEqual
	KeyIDComma
	KeyIDMinus
	KeyIDPeriod
	KeyIDSlash
	KeyIDGrave
	KeyIDLeftBracket
	KeyIDBackslash
	KeyIDRightBracket
	KeyIDApostrophe
	KeyIDBack
	KeyIDTab
	KeyIDReturn
	KeyIDEscape
	KeyIDPrior
	KeyIDNext
	KeyIDEnd
	KeyIDHome
	KeyIDLeft
	KeyIDUp
	KeyIDRight
	KeyIDDown
	KeyIDInsert
	KeyIDDelete
	KeyIDF1 // KeyIDF1..KeyIDF12 are contiguous
)

const (
	KeyIDF12         = KeyIDF1 + 11
	KeyIDNumpadEnter = KeyIDF12 + iota
	KeyIDLShift
	KeyIDRShift
	KeyIDLControl
	KeyIDRControl
	KeyIDLMenu
	KeyIDRMenu
	KeyIDLMeta
	KeyIDRMeta
)

var namedKeys = map[common.Key]KeyIdentifier{
	common.KeySpace:        KeyIDSpace,
	common.KeySemicolon:    KeyIDSemicolon,
	common.KeyEqual:        KeyIDEqual,
	common.KeyComma:        KeyIDComma,
	common.KeyMinus:        KeyIDMinus,
	common.KeyPeriod:       KeyIDPeriod,
	common.KeySlash:        KeyIDSlash,
	common.KeyGraveAccent:  KeyIDGrave,
	common.KeyLeftBracket:  KeyIDLeftBracket,
	common.KeyBackslash:    KeyIDBackslash,
	common.KeyRightBracket: KeyIDRightBracket,
	common.KeyApostrophe:   KeyIDApostrophe,
	common.KeyBackspace:    KeyIDBack,
	common.KeyTab:          KeyIDTab,
	common.KeyEnter:        KeyIDReturn,
	common.KeyEsc:          KeyIDEscape,
	common.KeyPageUp:       KeyIDPrior,
	common.KeyPageDown:     KeyIDNext,
	common.KeyEnd:          KeyIDEnd,
	common.KeyHome:         KeyIDHome,
	common.KeyLeft:         KeyIDLeft,
	common.KeyUp:           KeyIDUp,
	common.KeyRight:        KeyIDRight,
	common.KeyDown:         KeyIDDown,
	common.KeyInsert:       KeyIDInsert,
	common.KeyDelete:       KeyIDDelete,
	common.KeyKeypadEnter:  KeyIDNumpadEnter,
	common.KeyLeftShift:    KeyIDLShift,
	common.KeyRightShift:   KeyIDRShift,
	common.KeyLeftControl:  KeyIDLControl,
	common.KeyRightControl: KeyIDRControl,
	common.KeyLeftAlt:      KeyIDLMenu,
	common.KeyRightAlt:     KeyIDRMenu,
	common.KeyLeftSuper:    KeyIDLMeta,
	common.KeyRightSuper:   KeyIDRMeta,
}

// KeyIdentifierOf maps an engine key to the middleware key code.
//
// Parameters:
//   - key: the engine key
//
// Returns:
//   - KeyIdentifier: the middleware key, KeyIDUnknown if there is none
func KeyIdentifierOf(key common.Key) KeyIdentifier {
	switch {
	case key >= common.Key0 && key <= common.Key9:
		return KeyID0 + KeyIdentifier(key-common.Key0)
	case key >= common.KeyA && key <= common.KeyZ:
		return KeyIDA + KeyIdentifier(key-common.KeyA)
	case key >= common.KeyF1 && key <= common.KeyF12:
		return KeyIDF1 + KeyIdentifier(key-common.KeyF1)
	}
	if id, ok := namedKeys[key]; ok {
		return id
	}
	return KeyIDUnknown
}

// KeyModifiersOf maps engine qualifiers to middleware modifiers.
func KeyModifiersOf(q common.Qualifiers) KeyModifier {
	var m KeyModifier
	if q&common.QualCtrl != 0 {
		m |= ModCtrl
	}
	if q&common.QualShift != 0 {
		m |= ModShift
	}
	if q&common.QualAlt != 0 {
		m |= ModAlt
	}
	if q&common.QualSuper != 0 {
		m |= ModMeta
	}
	return m
}

// mouseButtonIndex maps an engine button bit to the middleware button index:
// 0 left, 1 right, 2 middle, 3 and 4 for the extra buttons. ok is false for touches
// and unknown bits.
func mouseButtonIndex(button common.MouseButton) (int, bool) {
	switch button {
	case common.MouseButtonLeft:
		return 0, true
	case common.MouseButtonRight:
		return 1, true
	case common.MouseButtonMiddle:
		return 2, true
	case common.MouseButtonX1:
		return 3, true
	case common.MouseButtonX2:
		return 4, true
	}
	return 0, false
}
