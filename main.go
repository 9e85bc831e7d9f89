package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/zmterp/zengine/selectstoryui"
	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zmachine"
)

var (
	romFilePath  string
	baseAppStyle lipgloss.Style
)

// screenBridge implements zmachine.Screen on behalf of the Bubble Tea
// model: every call happens on the goroutine driving Processor.Run, so it
// forwards a message to the UI's msg channel and, for the two blocking
// calls, waits on a dedicated response channel (or the interpreter's own
// cancellation) rather than touching Bubble Tea state directly.
type screenBridge struct {
	out      chan any
	lineResp chan string
	charResp chan byte
	model    zmachine.ScreenModel
}

func newScreenBridge() *screenBridge {
	fg := zmachine.Color{}
	bg := zmachine.Color{}
	if c, ok := zmachine.ColorForIndex(9); ok { // white foreground
		fg = c
	}
	if c, ok := zmachine.ColorForIndex(2); ok { // black background
		bg = c
	}
	return &screenBridge{
		out:      make(chan any, 64),
		lineResp: make(chan string),
		charResp: make(chan byte),
		model:    zmachine.NewScreenModel(fg, bg),
	}
}

func (s *screenBridge) Print(window int, text string) {
	s.out <- textMsg{window: window, text: text}
}

func (s *screenBridge) SplitWindow(lines int) {
	s.model.UpperWindowHeight = lines
	s.out <- screenModelMsg(s.model)
}

func (s *screenBridge) SetWindow(window int) {
	s.model.LowerWindowActive = window == 0
	if window == 1 {
		s.model.UpperWindowCursorX = 1
		s.model.UpperWindowCursorY = 1
	}
	s.out <- screenModelMsg(s.model)
}

func (s *screenBridge) EraseWindow(window int) {
	s.out <- eraseWindowMsg(window)
}

func (s *screenBridge) EraseLine() {
	s.out <- eraseLineMsg{}
}

func (s *screenBridge) SetCursor(line, col int) {
	if !s.model.LowerWindowActive {
		s.model.UpperWindowCursorY = line - 1
		s.model.UpperWindowCursorX = col - 1
	}
}

func (s *screenBridge) CursorPosition() (int, int) {
	if s.model.LowerWindowActive {
		return 1, 1
	}
	return s.model.UpperWindowCursorY + 1, s.model.UpperWindowCursorX + 1
}

func (s *screenBridge) SetTextStyle(style zmachine.TextStyle) {
	if s.model.LowerWindowActive {
		s.model.LowerWindowTextStyle = style
	} else {
		s.model.UpperWindowTextStyle = style
	}
	s.out <- screenModelMsg(s.model)
}

func (s *screenBridge) SetColour(foreground, background uint16) {
	isForeground := true
	fg := s.model.NewZMachineColor(foreground, isForeground)
	bg := s.model.NewZMachineColor(background, !isForeground)
	if s.model.LowerWindowActive {
		s.model.LowerWindowForeground = fg
		s.model.LowerWindowBackground = bg
	} else {
		s.model.UpperWindowForeground = fg
		s.model.UpperWindowBackground = bg
	}
	s.out <- screenModelMsg(s.model)
}

// SetBufferMode is a no-op: this front end always wraps output, so
// disabling buffering has nothing to switch off.
func (s *screenBridge) SetBufferMode(buffered bool) {}

func (s *screenBridge) ShowStatus(placeName string, scoreOrHours, movesOrMinutes int, isTimeBased bool) {
	s.out <- statusBarMsg{placeName: placeName, scoreOrHours: scoreOrHours, movesOrMinutes: movesOrMinutes, isTimeBased: isTimeBased}
}

func (s *screenBridge) ReadLine(ctx context.Context, maxLen int, existing string) (string, error) {
	s.out <- inputLineRequestMsg{maxLen: maxLen, existing: existing}
	select {
	case line := <-s.lineResp:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *screenBridge) ReadChar(ctx context.Context) (byte, error) {
	s.out <- inputCharRequestMsg{}
	select {
	case c := <-s.charResp:
		return c, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

type textMsg struct {
	window int
	text   string
}
type screenModelMsg zmachine.ScreenModel
type statusBarMsg struct {
	placeName      string
	scoreOrHours   int
	movesOrMinutes int
	isTimeBased    bool
}
type eraseWindowMsg int
type eraseLineMsg struct{}
type inputLineRequestMsg struct {
	maxLen   int
	existing string
}
type inputCharRequestMsg struct{}
type quitMsg struct{}
type runtimeErrorMsg string

// keyToZChar maps Bubble Tea key messages to Z-machine character codes.
// Function keys follow the Standard's input-stream character table:
//   - 129-132: Cursor keys (up, down, left, right)
//   - 133-144: Function keys F1-F12
//   - 252-254: Menu/mouse clicks (unsupported here, always 0)
func keyToZChar(msg tea.KeyMsg) uint8 {
	switch msg.Type {
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	case tea.KeyF1:
		return 133
	case tea.KeyF2:
		return 134
	case tea.KeyF3:
		return 135
	case tea.KeyF4:
		return 136
	case tea.KeyF5:
		return 137
	case tea.KeyF6:
		return 138
	case tea.KeyF7:
		return 139
	case tea.KeyF8:
		return 140
	case tea.KeyF9:
		return 141
	case tea.KeyF10:
		return 142
	case tea.KeyF11:
		return 143
	case tea.KeyF12:
		return 144
	case tea.KeyEscape:
		return 27
	case tea.KeyEnter:
		return 13
	case tea.KeyBackspace, tea.KeyDelete:
		return 8
	default:
		return 0
	}
}

type runningStoryState int

const (
	appRunning runningStoryState = iota
	appWaitingForInput
	appWaitingForCharacter
)

type runStoryModel struct {
	out                      chan any
	screen                   *screenBridge
	processor                *zmachine.Processor
	romFilePath              string
	statusBar                statusBarMsg
	screenModel              zmachine.ScreenModel
	lowerWindowTextPreStyled string
	lowerWindowText          string
	upperWindowText          []string
	upperWindowStyle         [][]lipgloss.Style
	appState                 runningStoryState
	inputBox                 textinput.Model
	width                    int
	height                   int
	backgroundStyle          lipgloss.Style
	statusBarStyle           lipgloss.Style
	upperWindowStyleCurrent  lipgloss.Style
	lowerWindowStyle         lipgloss.Style
	runtimeError             string
}

func (m runStoryModel) Init() tea.Cmd {
	return tea.Batch(
		waitForInterpreter(m.out),
		runInterpreter(m.processor),
		tea.Sequence(
			tea.SetWindowTitle(m.romFilePath),
			tea.WindowSize(),
		),
	)
}

func runInterpreter(p *zmachine.Processor) tea.Cmd {
	return func() tea.Msg {
		if err := p.Run(); err != nil {
			return runtimeErrorMsg(err.Error())
		}
		return quitMsg{}
	}
}

func waitForInterpreter(out <-chan any) tea.Cmd {
	return func() tea.Msg {
		return <-out
	}
}

func (m runStoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if m.height < len(m.upperWindowText) {
			m.upperWindowText = m.upperWindowText[:m.height]
			m.upperWindowStyle = m.upperWindowStyle[:m.height]
		} else {
			for range int(math.Min(float64(m.height-len(m.upperWindowText)), float64(m.screenModel.UpperWindowHeight))) {
				m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
				m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
			}
		}

		for ix, row := range m.upperWindowText {
			if m.width < len(row) {
				m.upperWindowText[ix] = row[:m.width]
				m.upperWindowStyle[ix] = m.upperWindowStyle[ix][:m.width]
			} else if m.width > len(row) {
				for ii := len(row); ii < m.width; ii++ {
					m.upperWindowText[ix] = m.upperWindowText[ix] + " "
					m.upperWindowStyle[ix] = append(m.upperWindowStyle[ix], baseAppStyle)
				}
			}
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			os.Exit(0)
		}

		switch m.appState {
		case appWaitingForCharacter:
			m.appState = appRunning
			if len(msg.Runes) > 0 {
				m.screen.charResp <- byte(msg.Runes[0])
			} else {
				m.screen.charResp <- keyToZChar(msg)
			}
			return m, waitForInterpreter(m.out)
		case appWaitingForInput:
			keyCode := keyToZChar(msg)
			if msg.Type == tea.KeyEnter || keyCode != 0 {
				m.appState = appRunning
				m.lowerWindowText += m.inputBox.Value() + "\n"
				m.screen.lineResp <- m.inputBox.Value()
				m.inputBox.SetValue("")
				return m, waitForInterpreter(m.out)
			}
		}

	case textMsg:
		if m.screenModel.LowerWindowActive {
			m.lowerWindowText += msg.text
		} else {
			text := msg.text
			segments := strings.Split(text, "\n")
			cursorX := m.screenModel.UpperWindowCursorX
			cursorY := m.screenModel.UpperWindowCursorY

			for segIdx, segment := range segments {
				if cursorY >= 0 && cursorY < len(m.upperWindowText) {
					row := m.upperWindowText[cursorY]

					if cursorY < len(m.upperWindowStyle) {
						for i := 0; i < len(segment) && cursorX+i < len(m.upperWindowStyle[cursorY]); i++ {
							m.upperWindowStyle[cursorY][cursorX+i] = m.upperWindowStyleCurrent
						}
					}

					if cursorX < len(row) {
						before := row[:cursorX]
						afterStart := cursorX + len(segment)
						after := ""
						if afterStart < len(row) {
							after = row[afterStart:]
						}
						fullText := before + segment + after
						if len(fullText) > m.width {
							fullText = fullText[:m.width]
						}
						m.upperWindowText[cursorY] = fullText
					}
				}

				if segIdx < len(segments)-1 {
					cursorY++
					cursorX = 0
				}
			}
		}

		return m, waitForInterpreter(m.out)

	case inputLineRequestMsg:
		m.appState = appWaitingForInput
		m.inputBox.CharLimit = msg.maxLen
		m.inputBox.SetValue(msg.existing)
		return m, waitForInterpreter(m.out)

	case inputCharRequestMsg:
		m.appState = appWaitingForCharacter
		return m, waitForInterpreter(m.out)

	case statusBarMsg:
		m.statusBar = msg
		return m, waitForInterpreter(m.out)

	case screenModelMsg:
		m.screenModel = zmachine.ScreenModel(msg)
		if len(m.upperWindowText) != m.screenModel.UpperWindowHeight {
			if len(m.upperWindowText) > m.screenModel.UpperWindowHeight {
				m.upperWindowText = m.upperWindowText[:m.screenModel.UpperWindowHeight]
				m.upperWindowStyle = m.upperWindowStyle[:m.screenModel.UpperWindowHeight]
			} else {
				for range m.screenModel.UpperWindowHeight - len(m.upperWindowText) {
					m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
					m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
				}
			}
		}

		prerenderLowerWindowText(&m)

		m.lowerWindowStyle = m.lowerWindowStyle.
			Background(lipgloss.Color(m.screenModel.LowerWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.LowerWindowForeground.ToHex())).
			Bold(m.screenModel.LowerWindowTextStyle&zmachine.Bold == zmachine.Bold).
			Italic(m.screenModel.LowerWindowTextStyle&zmachine.Italic == zmachine.Italic).
			Reverse(m.screenModel.LowerWindowTextStyle&zmachine.ReverseVideo == zmachine.ReverseVideo).
			Inline(true)
		m.upperWindowStyleCurrent = m.upperWindowStyleCurrent.
			Background(lipgloss.Color(m.screenModel.UpperWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.UpperWindowForeground.ToHex())).
			Bold(m.screenModel.UpperWindowTextStyle&zmachine.Bold == zmachine.Bold).
			Italic(m.screenModel.UpperWindowTextStyle&zmachine.Italic == zmachine.Italic).
			Reverse(m.screenModel.UpperWindowTextStyle&zmachine.ReverseVideo == zmachine.ReverseVideo)
		m.statusBarStyle = m.lowerWindowStyle.Reverse(true)
		m.backgroundStyle = m.backgroundStyle.
			Background(lipgloss.Color(m.screenModel.DefaultLowerWindowBackground.ToHex())).
			Foreground(lipgloss.Color(m.screenModel.DefaultLowerWindowForeground.ToHex()))

		return m, waitForInterpreter(m.out)

	case eraseLineMsg:
		if !m.screenModel.LowerWindowActive {
			line := m.screenModel.UpperWindowCursorY
			start := m.screenModel.UpperWindowCursorX
			if line >= 0 && line < len(m.upperWindowText) && start >= 0 && start < len(m.upperWindowText[line]) {
				row := m.upperWindowText[line]
				before := row[:start]
				after := ""
				if start < len(row) {
					after = row[start:]
				}
				fullText := before + strings.Repeat(" ", len(after))
				if len(fullText) > m.width {
					fullText = fullText[:m.width]
				}
				m.upperWindowText[line] = fullText
			}
		}
		return m, waitForInterpreter(m.out)

	case eraseWindowMsg:
		switch int(msg) {
		case -2:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			for row := range m.screenModel.UpperWindowHeight {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		case -1:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
			for row := range len(m.upperWindowText) {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		case 0:
			m.lowerWindowText = ""
			m.lowerWindowTextPreStyled = ""
		case 1:
			for row := range m.screenModel.UpperWindowHeight {
				m.upperWindowText[row] = strings.Repeat(" ", m.width)
				m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
			}
		default:
			m.runtimeError = fmt.Sprintf("Unexpected erase_window value: %d", int(msg))
			return m, tea.Quit
		}

		return m, waitForInterpreter(m.out)

	case quitMsg:
		return m, tea.Quit

	case runtimeErrorMsg:
		m.runtimeError = string(msg)
		return m, tea.Quit
	}

	if m.appState == appWaitingForInput {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}

	return m, cmd
}

func prerenderLowerWindowText(m *runStoryModel) {
	if m.lowerWindowText != "" {
		lines := strings.Split(m.lowerWindowText, "\n")
		for ix, line := range lines {
			lines[ix] = m.lowerWindowStyle.Render(line)
		}
		m.lowerWindowTextPreStyled += strings.Join(lines, "\n")
		m.lowerWindowText = ""
	}
}

func createStatusLine(width int, placeName string, scoreOrHours int, movesOrMinutes int, isTimeBasedGame bool) string {
	rightHandSide := fmt.Sprintf("Score: %d    Moves %d", scoreOrHours, movesOrMinutes)
	if isTimeBasedGame {
		rightHandSide = fmt.Sprintf("Time: %d:%d", scoreOrHours, movesOrMinutes)
	}

	if len(rightHandSide) >= width {
		return rightHandSide[:width]
	}
	if len(placeName)+len(rightHandSide)+1 >= width {
		return fmt.Sprintf("%s %s", placeName[:width-len(rightHandSide)-1], rightHandSide)
	}
	numberSpaces := width - len(placeName) - len(rightHandSide)
	return fmt.Sprintf("%s%s%s", placeName, strings.Repeat(" ", numberSpaces), rightHandSide)
}

func (m runStoryModel) View() string {
	if m.runtimeError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errorStyle.Render("Z-Machine Error:"), m.runtimeError)
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := strings.Builder{}
	lowerWindowHeight := m.height

	if m.statusBar.placeName != "" {
		s.WriteString(m.statusBarStyle.Render(createStatusLine(m.width, m.statusBar.placeName, m.statusBar.scoreOrHours, m.statusBar.movesOrMinutes, m.statusBar.isTimeBased)))
		s.WriteString(m.lowerWindowStyle.Render("\n"))
		lowerWindowHeight -= 2
	} else {
		lowerWindowHeight -= m.screenModel.UpperWindowHeight

		var text strings.Builder
		var currentText strings.Builder
		var currentStyle lipgloss.Style
		for row, styleRow := range m.upperWindowStyle {
			for col, chrStyle := range styleRow {
				if chrStyle.GetBackground() != currentStyle.GetBackground() ||
					chrStyle.GetForeground() != currentStyle.GetForeground() ||
					chrStyle.GetBold() != currentStyle.GetBold() ||
					chrStyle.GetItalic() != currentStyle.GetItalic() ||
					chrStyle.GetReverse() != currentStyle.GetReverse() {
					if currentText.Len() > 0 {
						text.WriteString(currentStyle.Render(currentText.String()))
					}
					currentStyle = chrStyle
					currentText.Reset()
				}
				currentText.WriteRune([]rune(m.upperWindowText[row])[col])
			}
			currentText.WriteByte('\n')
		}
		if currentText.Len() > 0 {
			text.WriteString(currentStyle.Render(currentText.String()))
		}
		s.WriteString(text.String())
	}

	prerenderLowerWindowText(&m)
	fullLowerWindowText := m.lowerWindowTextPreStyled

	wordWrappedBody := wordwrap.String(fullLowerWindowText, m.width)
	lines := strings.Split(wordWrappedBody, "\n")
	if len(lines) > lowerWindowHeight-2 {
		lines = lines[len(lines)-lowerWindowHeight+2:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	if m.appState == appWaitingForInput {
		s.WriteString(m.lowerWindowStyle.Render("\n" + m.inputBox.View()))
	}

	return m.backgroundStyle.
		Width(m.width).
		Height(m.height).
		Render(s.String())
}

func init() {
	flag.StringVar(&romFilePath, "rom", "", "The path of a z-machine rom")
	flag.Parse()
}

func newApplicationModel(p *zmachine.Processor, screen *screenBridge, romPath string) tea.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 20
	ti.Prompt = ""

	return runStoryModel{
		out:                     screen.out,
		screen:                  screen,
		processor:               p,
		romFilePath:             romPath,
		appState:                appRunning,
		inputBox:                ti,
		upperWindowStyleCurrent: lipgloss.NewStyle(),
		lowerWindowStyle:        lipgloss.NewStyle(),
		statusBarStyle:          lipgloss.NewStyle(),
		backgroundStyle:         lipgloss.NewStyle(),
	}
}

// loadProcessor builds a fresh Processor wired to a new screenBridge, from
// raw story bytes.
func loadProcessor(romBytes []byte) (*zmachine.Processor, *screenBridge) {
	memory := zcore.Load(romBytes)
	screen := newScreenBridge()
	p := zmachine.NewProcessor(memory, screen)
	return p, screen
}

func main() {
	var model tea.Model

	if romFilePath != "" {
		romFileBytes, err := os.ReadFile(romFilePath)
		if err != nil {
			panic(err)
		}
		p, screen := loadProcessor(romFileBytes)
		model = newApplicationModel(p, screen, romFilePath)
	} else {
		cacheDir := ""
		if dir, err := os.UserCacheDir(); err == nil {
			cacheDir = filepath.Join(dir, "zengine")
		}
		model = selectstoryui.NewUIModel(func(romBytes []byte, romPath string) tea.Model {
			p, screen := loadProcessor(romBytes)
			return newApplicationModel(p, screen, romPath)
		}, cacheDir)
	}

	tui := tea.NewProgram(model)

	if _, err := tui.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
