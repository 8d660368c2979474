package keycodes

// Character is what a character-producing key types without and with shift.
type Character struct {
	Base    string
	Shifted string
}

// Layout is a keyboard layout reduced to the keys whose output depends on it.
type Layout struct {
	ID   string
	Keys map[uint16]Character
}

// characterCodes are the hardware codes whose output is layout dependent.
// Code 10 only exists on ISO keyboards.
var characterCodes = []uint16{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 37, 38,
	39, 40, 41, 42, 43, 44, 45, 46, 47, 50,
}

// ANSI returns the built-in U.S. ANSI layout.
func ANSI() Layout {
	return Layout{
		ID: "com.apple.keylayout.US",
		Keys: map[uint16]Character{
			0: {"a", "A"}, 1: {"s", "S"}, 2: {"d", "D"}, 3: {"f", "F"},
			4: {"h", "H"}, 5: {"g", "G"}, 6: {"z", "Z"}, 7: {"x", "X"},
			8: {"c", "C"}, 9: {"v", "V"}, 11: {"b", "B"}, 12: {"q", "Q"},
			13: {"w", "W"}, 14: {"e", "E"}, 15: {"r", "R"}, 16: {"y", "Y"},
			17: {"t", "T"}, 18: {"1", "!"}, 19: {"2", "@"}, 20: {"3", "#"},
			21: {"4", "$"}, 22: {"6", "^"}, 23: {"5", "%"}, 24: {"=", "+"},
			25: {"9", "("}, 26: {"7", "&"}, 27: {"-", "_"}, 28: {"8", "*"},
			29: {"0", ")"}, 30: {"]", "}"}, 31: {"o", "O"}, 32: {"u", "U"},
			33: {"[", "{"}, 34: {"i", "I"}, 35: {"p", "P"}, 37: {"l", "L"},
			38: {"j", "J"}, 39: {"'", "\""}, 40: {"k", "K"}, 41: {";", ":"},
			42: {"\\", "|"}, 43: {",", "<"}, 44: {"/", "?"}, 45: {"n", "N"},
			46: {"m", "M"}, 47: {".", ">"}, 50: {"`", "~"},
		},
	}
}

// Fixed key codes that do not depend on the layout.
const (
	CodeReturn        uint16 = 36
	CodeTab           uint16 = 48
	CodeSpace         uint16 = 49
	CodeDelete        uint16 = 51
	CodeEscape        uint16 = 53
	CodeHelp          uint16 = 114
	CodeHome          uint16 = 115
	CodePageUp        uint16 = 116
	CodeForwardDelete uint16 = 117
	CodeEnd           uint16 = 119
	CodePageDown      uint16 = 121
	CodeLeftArrow     uint16 = 123
	CodeRightArrow    uint16 = 124
	CodeDownArrow     uint16 = 125
	CodeUpArrow       uint16 = 126
)

var namedKeys = map[uint16]string{
	CodeReturn: "Return", CodeTab: "Tab", CodeSpace: "Space", CodeDelete: "Delete",
	CodeEscape: "Escape", CodeHelp: "Help", CodeHome: "Home", CodePageUp: "PageUp",
	CodeForwardDelete: "ForwardDelete", CodeEnd: "End", CodePageDown: "PageDown",
	CodeLeftArrow: "LeftArrow", CodeRightArrow: "RightArrow",
	CodeDownArrow: "DownArrow", CodeUpArrow: "UpArrow",

	122: "F1", 120: "F2", 99: "F3", 118: "F4", 96: "F5", 97: "F6", 98: "F7",
	100: "F8", 101: "F9", 109: "F10", 103: "F11", 111: "F12", 105: "F13",
	107: "F14", 113: "F15", 106: "F16", 64: "F17", 79: "F18", 80: "F19", 90: "F20",

	65: "KeypadDecimal", 67: "KeypadMultiply", 69: "KeypadPlus", 71: "KeypadClear",
	75: "KeypadDivide", 76: "KeypadEnter", 78: "KeypadMinus", 81: "KeypadEquals",
	82: "Keypad0", 83: "Keypad1", 84: "Keypad2", 85: "Keypad3", 86: "Keypad4",
	87: "Keypad5", 88: "Keypad6", 89: "Keypad7", 91: "Keypad8", 92: "Keypad9",
}

// aliases are alternate spellings accepted by KeyCode, keyed lower-case.
var aliases = map[string]uint16{
	"↩": CodeReturn, "enter": CodeReturn, "⇥": CodeTab, "␣": CodeSpace,
	"⌫": CodeDelete, "backspace": CodeDelete, "⎋": CodeEscape, "esc": CodeEscape,
	"⌦": CodeForwardDelete, "↖": CodeHome, "↘": CodeEnd, "⇞": CodePageUp, "⇟": CodePageDown,
	"←": CodeLeftArrow, "left": CodeLeftArrow, "→": CodeRightArrow, "right": CodeRightArrow,
	"↓": CodeDownArrow, "down": CodeDownArrow, "↑": CodeUpArrow, "up": CodeUpArrow,
}

// IsArrow reports whether code is one of the four arrow keys.
func IsArrow(code uint16) bool {
	return code >= CodeLeftArrow && code <= CodeUpArrow
}

// IsFunctionKey reports whether the OS reports code with the fn and keypad
// flags set even when the user holds neither.
func IsFunctionKey(code uint16) bool {
	if IsArrow(code) {
		return true
	}
	switch code {
	case CodeHelp, CodeHome, CodePageUp, CodeForwardDelete, CodeEnd, CodePageDown:
		return true
	}
	name, ok := namedKeys[code]
	return ok && len(name) > 1 && name[0] == 'F' && name[1] >= '0' && name[1] <= '9'
}
