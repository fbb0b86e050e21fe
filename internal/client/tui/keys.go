package tui

// Action is what a key press asks the loop to do.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionRetry
	ActionLogout
)

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
)

// keyAction maps one byte of raw input.
func keyAction(b byte) Action {
	switch b {
	case 'q', 'Q', keyEsc, keyCtrlC:
		return ActionQuit
	case 'r', 'R':
		return ActionRetry
	case 'l', 'L':
		return ActionLogout
	default:
		return ActionNone
	}
}
