package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/Skelligg/htf-collide/internal/quest"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

type focusArea int

const (
	focusList focusArea = iota
	focusAnswer
	focusEditor
	focusGuess
)

type questKeyMap struct {
	Move    key.Binding
	Select  key.Binding
	Back    key.Binding
	Refresh key.Binding
	Run     key.Binding
	Reset   key.Binding
	Clear   key.Binding
	Switch  key.Binding
	Quit    key.Binding
}

func (k questKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Select, k.Back, k.Run, k.Quit}
}

func (k questKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Move, k.Select, k.Back, k.Refresh},
		{k.Run, k.Reset, k.Clear, k.Switch, k.Quit},
	}
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	// EditorSeed pre-fills the sandbox editor on first expand.
	EditorSeed string
}

type Root struct {
	theme Theme
	ascii bool
	debug bool
	ctrl  Controller

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	landing      LandingState
	problem      ProblemState
	problemMD    string
	sandboxState SandboxState

	selectedDoor int
	confirmOpen  bool

	missionIndex int
	expanded     map[quest.MissionID]bool
	inputs       map[quest.MissionID]textinput.Model
	focus        focusArea

	editor     textarea.Model
	editorSeed string
	guessInput textinput.Model

	statusFlash string

	help     help.Model
	keymap   questKeyMap
	spin     spinner.Model
	markdown *glamour.TermRenderer
	logger   *clog.Logger

	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "htf-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		renderer = nil
	}

	theme := ThemeForVariant(opts.StyleVariant)

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	editor := textarea.New()
	editor.Placeholder = "Write code here..."
	editor.SetHeight(10)

	guess := textinput.New()
	guess.Placeholder = "Quick guess (1-10000)"
	guess.CharLimit = 8

	r := &Root{
		theme:      theme,
		ascii:      opts.ASCIIOnly,
		debug:      opts.Debug,
		screen:     ScreenLanding,
		layout:     LayoutWide,
		cols:       120,
		rows:       30,
		expanded:   map[quest.MissionID]bool{},
		inputs:     map[quest.MissionID]textinput.Model{},
		editor:     editor,
		editorSeed: opts.EditorSeed,
		guessInput: guess,
		help:       h,
		spin:       spin,
		markdown:   renderer,
		logger:     logger,
		spring:     harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8),
	}
	r.keymap = questKeyMap{
		Move:    key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("arrows", "Move")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Select")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh")),
		Run:     key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Run code")),
		Reset:   key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Reset code")),
		Clear:   key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "Clear output")),
		Switch:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Switch focus")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(animateTickCmd(), spinnerTickCmd(r.spin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.editor.SetWidth(maxInt(40, minInt(96, r.cols-8)))
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case animateMsg:
		target := 0.0
		if r.confirmOpen {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.forwardToFocused(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec)
			width := maxInt(1, r.cols)
			view = tea.NewView(r.theme.Fail.Width(width).Render("UI recovered from a rendering panic. Check logs."))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	if r.layout == LayoutTooSmall {
		panel := r.drawPanel("Resize Required", []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", r.cols, r.rows),
			"Minimum: 72x20",
		}, minInt(50, r.cols))
		base = lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, panel)
	} else {
		switch r.screen {
		case ScreenLanding:
			base = r.renderLanding()
		default:
			base = r.renderProblem()
		}
	}

	if overlay := r.renderConfirmOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows, r.overlayPos)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.statusFlash = ""
		if screen == ScreenLanding {
			m.confirmOpen = false
			m.overlayPos = 0
			m.overlayVel = 0
		}
	})
}

func (r *Root) SetLanding(state LandingState) {
	r.apply(func(m *Root) {
		m.landing = state
		if m.selectedDoor >= len(state.Doors) {
			m.selectedDoor = maxInt(0, len(state.Doors)-1)
		}
	})
}

func (r *Root) SetProblem(state ProblemState) {
	r.apply(func(m *Root) {
		if state.ProblemID != m.problem.ProblemID {
			m.resetMissionState()
		}
		m.problem = state
		m.problemMD = m.renderMarkdown(state.Description)
		if m.missionIndex >= len(state.Missions) {
			m.missionIndex = maxInt(0, len(state.Missions)-1)
		}
	})
}

func (r *Root) SetMissionOutcome(id quest.MissionID, outcome Outcome) {
	r.apply(func(m *Root) {
		for i := range m.problem.Missions {
			if m.problem.Missions[i].ID == id {
				m.problem.Missions[i].Outcome = outcome
				return
			}
		}
	})
}

func (r *Root) SetSandbox(state SandboxState) {
	r.apply(func(m *Root) {
		m.sandboxState = state
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) resetMissionState() {
	r.missionIndex = 0
	r.focus = focusList
	r.expanded = map[quest.MissionID]bool{}
	r.inputs = map[quest.MissionID]textinput.Model{}
	r.sandboxState = SandboxState{}
	r.editor.SetValue(r.editorSeed)
	r.editor.Blur()
	r.guessInput.SetValue("")
	r.guessInput.Blur()
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.confirmOpen {
		return r.handleConfirmKey(msg)
	}

	switch r.screen {
	case ScreenLanding:
		return r.handleLandingKey(msg)
	default:
		return r.handleProblemKey(msg)
	}
}

func (r *Root) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEnter || msg.Text == "y":
		door, ok := r.selectedDoorCard()
		r.confirmOpen = false
		if ok {
			id := door.ProblemID
			r.dispatchController(func(c Controller) { c.OnEnterProblem(id) })
		}
	case msg.Code == tea.KeyEsc || msg.Text == "n":
		// Cancel discards the selection with no side effect.
		r.confirmOpen = false
	}
	return r, r.animateIfNeeded()
}

func (r *Root) handleLandingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyLeft || msg.Text == "h":
		r.selectedDoor = wrapIndex(r.selectedDoor-1, len(r.landing.Doors))
	case msg.Code == tea.KeyRight || msg.Text == "l":
		r.selectedDoor = wrapIndex(r.selectedDoor+1, len(r.landing.Doors))
	case msg.Code == tea.KeyEnter:
		door, ok := r.selectedDoorCard()
		if !ok {
			return r, nil
		}
		if door.Locked {
			r.statusFlash = "That door is locked."
			return r, nil
		}
		r.confirmOpen = true
		return r, r.animateIfNeeded()
	case msg.Text == "r":
		r.dispatchController(func(c Controller) { c.OnRefreshQuest() })
	}
	return r, nil
}

func (r *Root) handleProblemKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch r.focus {
	case focusAnswer:
		return r.handleAnswerKey(msg)
	case focusEditor:
		return r.handleEditorKey(msg)
	case focusGuess:
		return r.handleGuessKey(msg)
	}

	switch {
	case msg.Code == tea.KeyUp || msg.Text == "k":
		r.missionIndex = wrapIndex(r.missionIndex-1, len(r.problem.Missions))
	case msg.Code == tea.KeyDown || msg.Text == "j":
		r.missionIndex = wrapIndex(r.missionIndex+1, len(r.problem.Missions))
	case msg.Code == tea.KeyEnter:
		r.toggleSelectedMission()
	case msg.Code == tea.KeyEsc || msg.Text == "b":
		r.dispatchController(func(c Controller) { c.OnBackToLanding() })
	case msg.Text == "r":
		if r.problem.Err != "" {
			r.dispatchController(func(c Controller) { c.OnRetryProblem() })
		}
	}
	return r, nil
}

func (r *Root) toggleSelectedMission() {
	row, ok := r.selectedMission()
	if !ok {
		return
	}
	if r.expanded[row.ID] {
		r.collapseMission(row.ID)
		return
	}
	r.expanded[row.ID] = true
	if row.Sandbox {
		if strings.TrimSpace(r.editor.Value()) == "" {
			r.editor.SetValue(r.editorSeed)
		}
		r.focus = focusEditor
		r.editor.Focus()
		return
	}
	in, exists := r.inputs[row.ID]
	if !exists {
		in = textinput.New()
		in.Placeholder = "Your answer"
		in.CharLimit = 120
	}
	in.Focus()
	r.inputs[row.ID] = in
	r.focus = focusAnswer
}

func (r *Root) collapseMission(id quest.MissionID) {
	delete(r.expanded, id)
	r.focus = focusList
	if in, ok := r.inputs[id]; ok {
		in.Blur()
		r.inputs[id] = in
	}
	r.editor.Blur()
	r.guessInput.Blur()
}

func (r *Root) handleAnswerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	row, ok := r.selectedMission()
	if !ok {
		r.focus = focusList
		return r, nil
	}
	switch msg.Code {
	case tea.KeyEnter:
		in := r.inputs[row.ID]
		answer := in.Value()
		id := row.ID
		r.dispatchController(func(c Controller) { c.OnSubmitAnswer(id, answer) })
		return r, nil
	case tea.KeyEsc:
		r.collapseMission(row.ID)
		return r, nil
	}
	in := r.inputs[row.ID]
	in, cmd := in.Update(msg)
	r.inputs[row.ID] = in
	return r, cmd
}

func (r *Root) handleEditorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	row, ok := r.selectedMission()
	if !ok {
		r.focus = focusList
		return r, nil
	}
	switch {
	case key.Matches(msg, r.keymap.Run):
		code := r.editor.Value()
		r.dispatchController(func(c Controller) { c.OnRunCode(code) })
		return r, nil
	case key.Matches(msg, r.keymap.Reset):
		r.editor.SetValue(r.editorSeed)
		return r, nil
	case key.Matches(msg, r.keymap.Clear):
		r.sandboxState.Output = ""
		r.sandboxState.Notice = ""
		return r, nil
	case key.Matches(msg, r.keymap.Switch):
		r.focus = focusGuess
		r.editor.Blur()
		cmd := r.guessInput.Focus()
		return r, cmd
	case msg.Code == tea.KeyEsc:
		r.collapseMission(row.ID)
		return r, nil
	}
	var cmd tea.Cmd
	r.editor, cmd = r.editor.Update(msg)
	return r, cmd
}

func (r *Root) handleGuessKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	row, ok := r.selectedMission()
	if !ok {
		r.focus = focusList
		return r, nil
	}
	switch {
	case msg.Code == tea.KeyEnter:
		input := r.guessInput.Value()
		r.dispatchController(func(c Controller) { c.OnQuickGuess(input) })
		return r, nil
	case key.Matches(msg, r.keymap.Switch):
		r.focus = focusEditor
		r.guessInput.Blur()
		cmd := r.editor.Focus()
		return r, cmd
	case msg.Code == tea.KeyEsc:
		r.collapseMission(row.ID)
		return r, nil
	}
	var cmd tea.Cmd
	r.guessInput, cmd = r.guessInput.Update(msg)
	return r, cmd
}

func (r *Root) forwardToFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch r.focus {
	case focusAnswer:
		if row, ok := r.selectedMission(); ok {
			in := r.inputs[row.ID]
			in, cmd := in.Update(msg)
			r.inputs[row.ID] = in
			return r, cmd
		}
	case focusEditor:
		var cmd tea.Cmd
		r.editor, cmd = r.editor.Update(msg)
		return r, cmd
	case focusGuess:
		var cmd tea.Cmd
		r.guessInput, cmd = r.guessInput.Update(msg)
		return r, cmd
	}
	return r, nil
}

func (r *Root) selectedDoorCard() (DoorCard, bool) {
	if r.selectedDoor < 0 || r.selectedDoor >= len(r.landing.Doors) {
		return DoorCard{}, false
	}
	return r.landing.Doors[r.selectedDoor], true
}

func (r *Root) selectedMission() (MissionRow, bool) {
	if r.missionIndex < 0 || r.missionIndex >= len(r.problem.Missions) {
		return MissionRow{}, false
	}
	return r.problem.Missions[r.missionIndex], true
}

func (r *Root) renderLanding() string {
	w := r.cols
	header := r.theme.Header.Width(maxInt(1, w)).Render("HTF Collide — Quest Board")

	var body string
	switch {
	case r.landing.Loading:
		body = "\n " + r.spin.View() + " " + r.theme.Muted.Render("Loading quest...")
	case r.landing.Err != "":
		body = "\n" + r.drawPanel("Quest Unavailable", []string{
			r.landing.Err,
			"",
			"Press r to retry.",
		}, minInt(70, w))
	case len(r.landing.Doors) == 0:
		body = "\n " + r.theme.Muted.Render("No challenges published yet. Press r to refresh.")
	default:
		doors := make([]string, 0, len(r.landing.Doors))
		for i, door := range r.landing.Doors {
			doors = append(doors, r.renderDoor(door, i == r.selectedDoor))
		}
		body = "\n" + lipgloss.JoinHorizontal(lipgloss.Top, doors...)
	}

	status := r.statusLine(r.landing.StatsLine)
	gap := maxInt(0, r.rows-lipgloss.Height(header)-lipgloss.Height(body)-lipgloss.Height(status))
	return header + body + strings.Repeat("\n", gap) + status
}

func (r *Root) renderDoor(door DoorCard, selected bool) string {
	width := 24
	lines := []string{
		"",
		centerText(door.Title, width-2),
		"",
	}
	for _, l := range wrapText(door.Description, width-4, 3) {
		lines = append(lines, " "+l)
	}
	for len(lines) < 7 {
		lines = append(lines, "")
	}
	switch {
	case door.Locked:
		lines = append(lines, centerText("LOCKED", width-2))
	case door.Solved:
		lines = append(lines, centerText("SOLVED", width-2))
	default:
		lines = append(lines, centerText("[Enter]", width-2))
	}

	border := r.theme.PanelBorder
	bodyStyle := r.theme.PanelBody
	if door.Locked {
		bodyStyle = r.theme.Locked
	}
	if selected {
		border = r.theme.DoorSelected
	}

	return r.drawBox(lines, width, border, bodyStyle) + " "
}

func (r *Root) renderProblem() string {
	w := r.cols
	title := r.problem.Name
	if title == "" {
		title = fmt.Sprintf("Problem %d", r.problem.ProblemID)
	}
	if r.problem.Score > 0 {
		title = fmt.Sprintf("%s  [%d pts]", title, r.problem.Score)
	}
	header := r.theme.Header.Width(maxInt(1, w)).Render(title)

	var body string
	switch {
	case r.problem.Loading:
		body = "\n " + r.spin.View() + " " + r.theme.Muted.Render("Loading problem...")
	case r.problem.Err != "":
		body = "\n" + r.drawPanel("Problem Unavailable", []string{
			r.problem.Err,
			"",
			"Press r to retry, Esc to go back.",
		}, minInt(70, w))
	default:
		sections := make([]string, 0, len(r.problem.Missions)+1)
		if desc := strings.TrimRight(r.problemMD, "\n"); desc != "" {
			sections = append(sections, desc)
		}
		for i, mission := range r.problem.Missions {
			sections = append(sections, r.renderMission(mission, i == r.missionIndex))
		}
		body = "\n" + strings.Join(sections, "\n")
	}

	status := r.statusLine("")
	gap := maxInt(0, r.rows-lipgloss.Height(header)-lipgloss.Height(body)-lipgloss.Height(status))
	return header + body + strings.Repeat("\n", gap) + status
}

func (r *Root) renderMission(m MissionRow, selected bool) string {
	width := minInt(100, maxInt(60, r.cols-4))
	prefix := "  "
	if selected {
		prefix = "> "
	}
	title := fmt.Sprintf("%s%s  %s", prefix, m.Name, strings.Repeat("*", m.Difficulty))

	lines := []string{m.Objective}
	if m.Parameters != "" {
		lines = append(lines, r.theme.Muted.Render("Format: "+m.Parameters))
	}
	meta := "Attempts left: " + m.RemainingAttempts
	if m.Solved {
		meta += "  " + r.theme.Pass.Render("solved")
	}
	lines = append(lines, r.theme.Muted.Render(meta))

	if outcome := r.renderOutcome(m.Outcome); outcome != "" {
		lines = append(lines, outcome)
	}

	if r.expanded[m.ID] {
		lines = append(lines, "")
		if m.Sandbox {
			lines = append(lines, r.renderSandbox(width-4)...)
		} else {
			in := r.inputs[m.ID]
			lines = append(lines, in.View())
			lines = append(lines, r.theme.Muted.Render("[Enter] submit  [Esc] close"))
		}
	} else {
		lines = append(lines, r.theme.Muted.Render("[Enter] open"))
	}

	return r.drawPanelTitled(title, lines, width, selected)
}

func (r *Root) renderOutcome(o Outcome) string {
	switch o {
	case OutcomePending:
		return r.theme.Pending.Render(r.spin.View() + " Verifying...")
	case OutcomeCorrect:
		return r.theme.Pass.Render("Correct!")
	case OutcomeWrong:
		return r.theme.Fail.Render("Wrong answer.")
	case OutcomeError:
		// Same color as wrong, different words.
		return r.theme.Fail.Render("Error verifying answer.")
	}
	return ""
}

func (r *Root) renderSandbox(width int) []string {
	var lines []string

	statusLabel := ""
	switch r.sandboxState.Phase {
	case SandboxLoading:
		statusLabel = r.spin.View() + " " + r.theme.Pending.Render("Loading runtime...")
	case SandboxReady:
		statusLabel = r.theme.Pass.Render("Runtime ready")
	case SandboxRunning:
		statusLabel = r.spin.View() + " " + r.theme.Pending.Render("Running...")
	case SandboxUnavailable:
		statusLabel = r.theme.Fail.Render("Runtime unavailable")
	}
	guessLabel := ""
	switch r.sandboxState.Guess {
	case GuessRight:
		guessLabel = "  " + r.theme.Pass.Render("Correct!")
	case GuessWrong:
		guessLabel = "  " + r.theme.Fail.Render("Wrong.")
	}
	lines = append(lines, statusLabel)
	lines = append(lines, "")
	lines = append(lines, strings.Split(strings.TrimRight(r.editor.View(), "\n"), "\n")...)
	lines = append(lines, "")
	lines = append(lines, r.guessInput.View()+guessLabel)
	lines = append(lines, r.theme.Muted.Render("[F5] run  [F6] reset  [F7] clear  [F2] switch  [Esc] close"))

	if r.sandboxState.Notice != "" {
		lines = append(lines, "")
		lines = append(lines, r.theme.Pass.Render(r.sandboxState.Notice))
	}

	lines = append(lines, "")
	if out := strings.TrimRight(r.sandboxState.Output, "\n"); out != "" {
		for _, l := range strings.Split(out, "\n") {
			lines = append(lines, truncateText(l, width))
		}
	} else {
		lines = append(lines, r.theme.Muted.Render("Program output will appear here"))
	}
	return lines
}

func (r *Root) renderConfirmOverlay() string {
	if !r.confirmOpen && r.overlayPos < 0.01 {
		return ""
	}
	door, ok := r.selectedDoorCard()
	if !ok {
		return ""
	}
	body := r.theme.OverlayTitle.Render(door.Title) + "\n\n" +
		strings.Join(wrapText(door.Description, 44, 6), "\n") + "\n\n" +
		r.theme.Muted.Render("[Enter] Dive in   [Esc] Not yet")
	return r.theme.Overlay.Render(body)
}

func (r *Root) statusLine(extra string) string {
	left := r.statusFlash
	if left == "" {
		left = extra
	}
	helpView := r.help.View(r.keymap)
	line := strings.TrimRight(left+"  "+helpView, " ")
	return r.theme.Status.Width(maxInt(1, r.cols)).Render(truncateText(line, maxInt(1, r.cols-2)))
}

func (r *Root) renderMarkdown(md string) string {
	if r.markdown == nil || strings.TrimSpace(md) == "" {
		return md
	}
	out, err := r.markdown.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (r *Root) drawPanel(title string, lines []string, width int) string {
	return r.drawPanelTitled(title, lines, width, false)
}

func (r *Root) drawPanelTitled(title string, lines []string, width int, selected bool) string {
	border := r.theme.PanelBorder
	if selected {
		border = r.theme.DoorSelected
	}
	boxed := make([]string, 0, len(lines)+1)
	if title != "" {
		boxed = append(boxed, r.theme.PanelTitle.Render(truncateText(title, width-2)))
	}
	boxed = append(boxed, lines...)
	return r.drawBox(boxed, width, border, r.theme.PanelBody)
}

func (r *Root) drawBox(lines []string, width int, border, body lipgloss.Style) string {
	innerW := maxInt(1, width-2)

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	out := make([]string, 0, len(lines)+2)
	out = append(out, border.Render(tl+strings.Repeat(h, innerW)+tr))
	for _, line := range lines {
		out = append(out, border.Render(v)+body.Render(padDisplay(line, innerW))+border.Render(v))
	}
	out = append(out, border.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.confirmOpen {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if target > 0 {
		return r.overlayPos < 0.999 || absFloat(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || absFloat(r.overlayVel) > 0.001
}

func (r *Root) onModelPanic(where string, rec any) {
	r.logger.Error("ui panic", "where", where, "panic", rec, "stack", string(debug.Stack()))
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

// composeOverlay splices the overlay into the base frame, centered
// horizontally; pos in [0,1] slides it down from the top toward the middle.
func composeOverlay(base, overlay string, cols, rows int, pos float64) string {
	if cols <= 0 || rows <= 0 || overlay == "" {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)

	baseLines := strings.Split(base, "\n")
	for len(baseLines) < rows {
		baseLines = append(baseLines, "")
	}
	for i := range baseLines {
		baseLines[i] = padDisplay(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 0
	for _, l := range overlayLines {
		ow = maxInt(ow, len([]rune(l)))
	}
	ox := maxInt(0, (cols-ow)/2)
	targetY := maxInt(0, (rows-len(overlayLines))/2)
	oy := int(float64(targetY) * clampFloat(pos, 0, 1))

	for i, ol := range overlayLines {
		y := oy + i
		if y < 0 || y >= len(baseLines) {
			continue
		}
		row := []rune(baseLines[y])
		for j, ch := range []rune(ol) {
			x := ox + j
			if x >= 0 && x < len(row) {
				row[x] = ch
			}
		}
		baseLines[y] = string(row)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func padDisplay(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(runes) > width {
		runes = runes[:width]
	}
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	return string(runes)
}

func truncateText(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func centerText(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return truncateText(s, width)
	}
	left := (width - len(runes)) / 2
	return strings.Repeat(" ", left) + s
}

func wrapText(s string, width, maxLines int) []string {
	if width <= 0 || strings.TrimSpace(s) == "" {
		return nil
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, word := range words {
		if cur.Len() > 0 && cur.Len()+1+len([]rune(word)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = truncateText(lines[maxLines-1]+"…", width)
	}
	return lines
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return n - 1
	}
	if i >= n {
		return 0
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
