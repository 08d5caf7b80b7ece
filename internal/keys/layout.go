package keys

// FnRemap is the function-layer alternative of a key.
type FnRemap struct {
	Label  string
	Target Code
}

// FunctionLayer maps the top row, arrows, Tab and Backspace to function and
// navigation keys.
var FunctionLayer = map[Code]FnRemap{
	Grave:      {"⎋", Escape},
	Digit0 + 1: {"F1", F1},
	Digit0 + 2: {"F2", F1 + 1},
	Digit0 + 3: {"F3", F1 + 2},
	Digit0 + 4: {"F4", F1 + 3},
	Digit0 + 5: {"F5", F1 + 4},
	Digit0 + 6: {"F6", F1 + 5},
	Digit0 + 7: {"F7", F1 + 6},
	Digit0 + 8: {"F8", F1 + 7},
	Digit0 + 9: {"F9", F1 + 8},
	Digit0:     {"F10", F1 + 9},
	Minus:      {"F11", F1 + 10},
	Equal:      {"F12", F12},
	Up:         {"⎗", PageUp},
	Down:       {"⎘", PageDown},
	Left:       {"⌂", Home},
	Right:      {"⤓", End},
	Tab:        {"⌃⌥⌦", Delete},
	Back:       {"⌦", Delete},
}

func letter(ch byte, native string) VirtualKey {
	return VirtualKey{
		Code:   A + Code(ch-'a'),
		Native: native,
		Lower:  string(ch),
		Upper:  string(ch - 'a' + 'A'),
	}
}

func digit(d byte, upper, native string) VirtualKey {
	return VirtualKey{Code: Digit0 + Code(d-'0'), Native: native, Lower: string(d), Upper: upper}
}

// ZhuyinRows is the standard Zhuyin (Bopomofo) layout on a US keyboard.
var ZhuyinRows = [][]VirtualKey{
	{
		{Code: Grave, Lower: "`", Upper: "~"},
		digit('1', "!", "ㄅ"), digit('2', "@", "ㄉ"), digit('3', "#", "ˇ"),
		digit('4', "$", "ˋ"), digit('5', "%", "ㄓ"), digit('6', "^", "ˊ"),
		digit('7', "&", "˙"), digit('8', "*", "ㄚ"), digit('9', "(", "ㄞ"),
		digit('0', ")", "ㄢ"),
		{Code: Minus, Lower: "-", Upper: "_", Native: "ㄦ"},
		{Code: Equal, Lower: "=", Upper: "+"},
		{Code: Back, Lower: "⌫", Upper: "⌫", Width: 95},
	},
	{
		{Code: Tab, Lower: "⇥", Upper: "Tab", Width: 95},
		letter('q', "ㄆ"), letter('w', "ㄊ"), letter('e', "ㄍ"), letter('r', "ㄐ"),
		letter('t', "ㄔ"), letter('y', "ㄗ"), letter('u', "ㄧ"), letter('i', "ㄛ"),
		letter('o', "ㄟ"), letter('p', "ㄣ"),
		{Code: LBracket, Lower: "[", Upper: "{"},
		{Code: RBracket, Lower: "]", Upper: "}"},
		{Code: Backslash, Lower: "\\", Upper: "|"},
	},
	{
		{Code: CapsLock, Lower: "⇪", Upper: "Caps", Width: 133},
		letter('a', "ㄇ"), letter('s', "ㄋ"), letter('d', "ㄎ"), letter('f', "ㄑ"),
		letter('g', "ㄕ"), letter('h', "ㄘ"), letter('j', "ㄨ"), letter('k', "ㄜ"),
		letter('l', "ㄠ"),
		{Code: Semicolon, Lower: ";", Upper: ":", Native: "ㄤ"},
		{Code: Quote, Lower: "'", Upper: "\""},
		{Code: Enter, Lower: "⏎", Upper: "Enter", Native: "送出", Width: 98},
	},
	{
		{Code: Shift, Lower: "⇧", Upper: "Shift", Width: 166},
		letter('z', "ㄈ"), letter('x', "ㄌ"), letter('c', "ㄏ"), letter('v', "ㄒ"),
		letter('b', "ㄖ"), letter('n', "ㄙ"), letter('m', "ㄩ"),
		{Code: Comma, Lower: ",", Upper: "<", Native: "ㄝ"},
		{Code: Period, Lower: ".", Upper: ">", Native: "ㄡ"},
		{Code: Slash, Lower: "/", Upper: "?", Native: "ㄥ"},
		{Code: Up, Lower: "↑", Upper: "↑"},
		{Code: FnLayer, Lower: "⌨", Upper: "Fn"},
	},
	{
		{Code: Control, Lower: "⌃", Upper: "Ctrl"},
		{Code: Meta, Lower: "⊞", Upper: "Win"},
		{Code: Alt, Lower: "⌥", Upper: "Alt"},
		{Code: Space, Lower: "⎵", Upper: "Space", Native: "空白鍵", Width: 512},
		{Code: ModeSwitch, Lower: "Mode", Upper: "Mode"},
		{Code: Left, Lower: "←", Upper: "←"},
		{Code: Down, Lower: "↓", Upper: "↓"},
		{Code: Right, Lower: "→", Upper: "→"},
	},
}

// DefaultCatalog returns the Zhuyin catalog with the function layer attached.
func DefaultCatalog() *Catalog {
	return NewCatalog(ZhuyinRows, FunctionLayer)
}
