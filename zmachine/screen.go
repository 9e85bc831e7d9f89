package zmachine

import (
	"context"
	"fmt"
)

// Screen is the capability the processor calls into for all visible
// output and line/character input, per spec.md S6: "a callback-style
// request... the processor surrenders control to the host event loop."
// The host (main.go's screenBridge for the Bubble Tea front end, or
// cmd/gametest's headlessScreen) implements this; the processor never
// knows it's driving a terminal.
type Screen interface {
	Print(window int, text string)
	SplitWindow(lines int)
	SetWindow(window int)
	EraseWindow(window int)
	EraseLine()
	SetCursor(line, col int)
	CursorPosition() (line, col int)
	SetTextStyle(style TextStyle)
	// SetColour takes the raw set_colour operand values (0 "current", 1
	// "default", or the fixed palette 2-12): resolving them against the
	// window's current/default colours is screen-model state the
	// processor doesn't keep, so it's left to the implementation.
	SetColour(foreground, background uint16)
	SetBufferMode(buffered bool)
	// ShowStatus refreshes the v1-3 status line: the current location's
	// name plus either a score/moves pair or an hours:minutes clock.
	ShowStatus(placeName string, scoreOrHours, movesOrMinutes int, isTimeBased bool)
	// ReadLine blocks until the host has a line of input (or the context
	// is cancelled), pre-seeded with existing (a v5+ re-entrant read).
	ReadLine(ctx context.Context, maxLen int, existing string) (string, error)
	// ReadChar blocks until the host has a single keystroke.
	ReadChar(ctx context.Context) (byte, error)
}

type TextStyle int

const (
	Roman        TextStyle = 0b0000_0001
	Bold         TextStyle = 0b0000_0010
	Italic       TextStyle = 0b0000_0100
	ReverseVideo TextStyle = 0b0000_1000
	FixedPitch   TextStyle = 0b0001_0000
)

type Color struct {
	r int
	g int
	b int
}

func (c Color) ToHex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// ColorForIndex maps a set_colour opcode's fixed palette index (2-12) to
// its RGB value. Indices 0 ("current") and 1 ("default") depend on screen
// state the processor doesn't track, so callers treat a false as "leave
// this side of the pair alone".
func ColorForIndex(i uint16) (Color, bool) {
	switch i {
	case 2:
		return Color{0, 0, 0}, true
	case 3:
		return Color{255, 0, 0}, true
	case 4:
		return Color{0, 255, 0}, true
	case 5:
		return Color{255, 255, 0}, true
	case 6:
		return Color{0, 0, 255}, true
	case 7:
		return Color{255, 0, 255}, true
	case 8:
		return Color{0, 255, 255}, true
	case 9:
		return Color{255, 255, 255}, true
	case 10:
		return Color{192, 192, 192}, true
	case 11:
		return Color{128, 128, 128}, true
	case 12:
		return Color{64, 64, 64}, true
	default:
		return Color{}, false
	}
}

// Font represents the available Z-machine fonts
type Font uint16

const (
	FontNormal     Font = 1
	FontPicture    Font = 2
	FontCharGraphs Font = 3
	FontFixedPitch Font = 4
)

// ScreenModel - This is very deliberately a _not_ V6 screen model
type ScreenModel struct {
	LowerWindowActive bool
	CurrentFont       Font // TODO - Not actually changing the rendering code based on this at the moment

	UpperWindowHeight            int
	UpperWindowForeground        Color
	UpperWindowBackground        Color
	DefaultUpperWindowForeground Color
	DefaultUpperWindowBackground Color
	UpperWindowCursorX           int
	UpperWindowCursorY           int
	UpperWindowTextStyle         TextStyle

	DefaultLowerWindowForeground Color
	DefaultLowerWindowBackground Color
	LowerWindowForeground        Color
	LowerWindowBackground        Color
	LowerWindowTextStyle         TextStyle
}

func (m *ScreenModel) NewZMachineColor(i uint16, isForeground bool) Color {
	switch i {
	case 0: // CURRENT
		if isForeground {
			return m.LowerWindowForeground
		} else {
			return m.LowerWindowBackground
		}
	case 1: // DEFAULT - TODO - Maybe make these defaults set in the screen model on creation?
		if isForeground {
			if m.LowerWindowActive {
				return m.DefaultLowerWindowForeground
			} else {
				return m.DefaultUpperWindowForeground
			}
		} else {
			if m.LowerWindowActive {
				return m.DefaultLowerWindowBackground
			} else {
				return m.DefaultUpperWindowBackground
			}
		}
	case 2: // BLACK
		return Color{0, 0, 0}
	case 3: // RED
		return Color{255, 0, 0}
	case 4: // GREEN
		return Color{0, 255, 0}
	case 5: // YELLOW
		return Color{255, 255, 0}
	case 6: // BLUE
		return Color{0, 0, 255}
	case 7: // MAGENTA
		return Color{255, 0, 255}
	case 8: // CYAN
		return Color{0, 255, 255}
	case 9: // WHITE
		return Color{255, 255, 255}
	case 10: // LIGHT GREY
		return Color{192, 192, 192}
	case 11: // MEDIUM GREY
		return Color{128, 128, 128}
	case 12: // DARK GREY
		return Color{64, 64, 64}
	default:
		//panic("TODO - Handle other colours")
		return Color{0, 0, 0}
	}
}

// NewScreenModel builds the initial two-window screen model a front end
// tracks on the Screen side of the interface: both windows starting in the
// given default colours, roman style, upper window collapsed to height 0.
func NewScreenModel(foregroundColor Color, backgroundColor Color) ScreenModel {
	return ScreenModel{
		LowerWindowActive:            true,
		CurrentFont:                  FontNormal,
		UpperWindowHeight:            0,
		DefaultUpperWindowForeground: foregroundColor,
		DefaultUpperWindowBackground: backgroundColor,
		UpperWindowForeground:        foregroundColor,
		UpperWindowBackground:        backgroundColor,
		UpperWindowCursorX:           1,
		UpperWindowCursorY:           1,
		UpperWindowTextStyle:         Roman,
		DefaultLowerWindowForeground: foregroundColor,
		DefaultLowerWindowBackground: backgroundColor,
		LowerWindowForeground:        foregroundColor,
		LowerWindowBackground:        backgroundColor,
		LowerWindowTextStyle:         Roman,
	}
}
