package common

// Key is a virtual key code. Values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeyUnknown    Key = 0
	KeySpace      Key = 32
	KeyApostrophe Key = 39
	KeyComma      Key = 44
	KeyMinus      Key = 45
	KeyPeriod     Key = 46
	KeySlash      Key = 47
	KeySemicolon  Key = 59
	KeyEqual      Key = 61

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
	Key9 Key = 57

	KeyA Key = 65
	KeyB Key = 66
	KeyC Key = 67
	KeyD Key = 68
	KeyE Key = 69
	KeyF Key = 70
	KeyG Key = 71
	KeyH Key = 72
	KeyI Key = 73
	KeyJ Key = 74
	KeyK Key = 75
	KeyL Key = 76
	KeyM Key = 77
	KeyN Key = 78
	KeyO Key = 79
	KeyP Key = 80
	KeyQ Key = 81
	KeyR Key = 82
	KeyS Key = 83
	KeyT Key = 84
	KeyU Key = 85
	KeyV Key = 86
	KeyW Key = 87
	KeyX Key = 88
	KeyY Key = 89
	KeyZ Key = 90

	KeyLeftBracket  Key = 91
	KeyBackslash    Key = 92
	KeyRightBracket Key = 93
	KeyGraveAccent  Key = 96
)

// Non-printable keys (GLFW values).
const (
	KeyEsc       Key = 256
	KeyEnter     Key = 257
	KeyTab       Key = 258
	KeyBackspace Key = 259
	KeyInsert    Key = 260
	KeyDelete    Key = 261
	KeyRight     Key = 262
	KeyLeft      Key = 263
	KeyDown      Key = 264
	KeyUp        Key = 265
	KeyPageUp    Key = 266
	KeyPageDown  Key = 267
	KeyHome      Key = 268
	KeyEnd       Key = 269

	KeyF1  Key = 290
	KeyF2  Key = 291
	KeyF3  Key = 292
	KeyF4  Key = 293
	KeyF5  Key = 294
	KeyF6  Key = 295
	KeyF7  Key = 296
	KeyF8  Key = 297
	KeyF9  Key = 298
	KeyF10 Key = 299
	KeyF11 Key = 300
	KeyF12 Key = 301

	KeyKeypadEnter  Key = 335
	KeyLeftShift    Key = 340
	KeyLeftControl  Key = 341
	KeyLeftAlt      Key = 342
	KeyLeftSuper    Key = 343
	KeyRightShift   Key = 344
	KeyRightControl Key = 345
	KeyRightAlt     Key = 346
	KeyRightSuper   Key = 347
)

// Qualifiers is a bit set of held modifier keys.
type Qualifiers uint8

const (
	QualShift Qualifiers = 1 << iota
	QualCtrl
	QualAlt
	QualSuper
)

// MouseButton is a bit set of mouse buttons. Touches are reported as extra buttons
// above MouseButtonX2, one bit per touch ID.
type MouseButton uint32

const (
	MouseButtonLeft MouseButton = 1 << iota
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonX1
	MouseButtonX2
)

// TouchButton returns the button bit used for a touch ID.
//
// Parameters:
//   - id: the touch ID, 0 based
//
// Returns:
//   - MouseButton: the button bit for the touch
func TouchButton(id int) MouseButton {
	return MouseButtonX2 << uint(id+1)
}
