package controller

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// tcell reports every printable key as KeyRune, so runes and shifted arrows get synthetic keys
// above tcell's own range. That lets one map[tcell.Key]KeyEvent hold every binding.
const (
	runeKeyBase  tcell.Key = 4096
	shiftKeyBase tcell.Key = 8192
	maxRuneKey   rune      = 128
)

// Rune keys used by the bindings.
const (
	Key1 = runeKeyBase + '1'
	Key2 = runeKeyBase + '2'
	Key3 = runeKeyBase + '3'
	Key4 = runeKeyBase + '4'

	KeyB = runeKeyBase + 'b'
	KeyC = runeKeyBase + 'c'
	KeyD = runeKeyBase + 'd'
	KeyG = runeKeyBase + 'g'
	KeyH = runeKeyBase + 'h'
	KeyL = runeKeyBase + 'l'
	KeyN = runeKeyBase + 'n'
	KeyP = runeKeyBase + 'p'
	KeyQ = runeKeyBase + 'q'
	KeyR = runeKeyBase + 'r'
	KeyS = runeKeyBase + 's'
	KeyT = runeKeyBase + 't'
	KeyW = runeKeyBase + 'w'
	KeyX = runeKeyBase + 'x'

	KeyShiftB = runeKeyBase + 'B'
	KeyShiftC = runeKeyBase + 'C'
	KeyShiftF = runeKeyBase + 'F'
	KeyShiftH = runeKeyBase + 'H'
	KeyShiftJ = runeKeyBase + 'J'
	KeyShiftK = runeKeyBase + 'K'
	KeyShiftL = runeKeyBase + 'L'
	KeyShiftN = runeKeyBase + 'N'
	KeyShiftP = runeKeyBase + 'P'
	KeyShiftW = runeKeyBase + 'W'

	KeyShiftUp    = shiftKeyBase + tcell.KeyUp
	KeyShiftDown  = shiftKeyBase + tcell.KeyDown
	KeyShiftLeft  = shiftKeyBase + tcell.KeyLeft
	KeyShiftRight = shiftKeyBase + tcell.KeyRight
)

var keysOnce sync.Once

// initKeys registers display names for the synthetic keys.
func initKeys() {
	keysOnce.Do(func() {
		for r := rune(' ') + 1; r < maxRuneKey; r++ {
			tcell.KeyNames[runeKeyBase+tcell.Key(r)] = string(r)
		}

		tcell.KeyNames[KeyShiftUp] = "Shift-Up"
		tcell.KeyNames[KeyShiftDown] = "Shift-Down"
		tcell.KeyNames[KeyShiftLeft] = "Shift-Left"
		tcell.KeyNames[KeyShiftRight] = "Shift-Right"
	})
}

// AsKey maps a key event onto the key used to look up its binding.
func AsKey(evt *tcell.EventKey) tcell.Key {
	switch evt.Key() {
	case tcell.KeyRune:
		if r := evt.Rune(); r > ' ' && r < maxRuneKey {
			return runeKeyBase + tcell.Key(r)
		}
	case tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight:
		if evt.Modifiers()&tcell.ModShift != 0 {
			return shiftKeyBase + evt.Key()
		}
	}

	return evt.Key()
}

// keyName is the label shown for key in the shortcut headers.
func keyName(key tcell.Key) string {
	if name, ok := tcell.KeyNames[key]; ok {
		return name
	}

	return "?"
}
