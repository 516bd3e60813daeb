package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/replay"
)

const (
	maxLogEntries = 100
	logRows       = 8
	// progressField is the print progress bar on the printing page
	progressField = "p0.val"
)

// Message types for async operations
type screenChangedMsg struct{}

type stepDoneMsg struct {
	input string
	err   error
}

type logKind int

const (
	logInfo logKind = iota
	logError
	logPrinter
)

type logEntry struct {
	kind logKind
	text string
}

// simulatorKeyMap defines key bindings for the simulator
type simulatorKeyMap struct {
	Run   key.Binding
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k simulatorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k simulatorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Clear},
		{k.Help, k.Quit},
	}
}

var simulatorKeys = simulatorKeyMap{
	Run: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run command"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear log"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// SimulatorConfig wires a simulator to a running engine loop
type SimulatorConfig struct {
	Title    string
	Screen   *Screen
	Runner   *replay.Runner
	Registry *hmi.Registry
	// Recorder, when set, has its commands echoed into the log
	Recorder *replay.Recorder
}

// SimulatorModel is the terminal front end for a simulated panel.
// Commands typed at the prompt use the replay script language.
type SimulatorModel struct {
	ctx context.Context
	cfg SimulatorConfig

	Width  int
	Height int

	Input       textinput.Model
	Spinner     spinner.Model
	ProgressBar progress.Model
	Help        help.Model
	Keys        simulatorKeyMap

	busy     bool
	log      []logEntry
	seenCmds int
	quitting bool
}

// NewSimulator creates the model. ctx bounds every command it applies.
func NewSimulator(ctx context.Context, cfg SimulatorConfig) SimulatorModel {
	if cfg.Title == "" {
		cfg.Title = "klipmi simulator"
	}

	ti := textinput.New()
	ti.Placeholder = "touch 5 · numeric 7 · page control · telemetry print_stats.state=printing"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	return SimulatorModel{
		ctx:         ctx,
		cfg:         cfg,
		Width:       MinTerminalWidth,
		Input:       ti,
		Spinner:     sp,
		ProgressBar: bar,
		Help:        help.New(),
		Keys:        simulatorKeys,
	}
}

// Init starts the cursor blink and the screen watcher
func (m SimulatorModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.Spinner.Tick, waitForScreen(m.cfg.Screen))
}

func waitForScreen(s *Screen) tea.Cmd {
	return func() tea.Msg {
		<-s.Changes()
		return screenChangedMsg{}
	}
}

// Update handles input and async results
func (m SimulatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = min(msg.Width, MaxContentWidth)
		m.Height = msg.Height
		m.Input.Width = m.Width - 6
		m.ProgressBar.Width = m.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Help):
			m.Help.ShowAll = !m.Help.ShowAll
			return m, nil
		case key.Matches(msg, m.Keys.Clear):
			m.log = nil
			return m, nil
		case key.Matches(msg, m.Keys.Run):
			return m.submit()
		}

	case screenChangedMsg:
		return m, waitForScreen(m.cfg.Screen)

	case stepDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.addLog(logError, fmt.Sprintf("%s: %v", msg.input, msg.err))
		} else {
			m.addLog(logInfo, msg.input)
		}
		m.drainRecorder()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m SimulatorModel) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	text := strings.TrimSpace(m.Input.Value())
	m.Input.Reset()
	if text == "" {
		return m, nil
	}
	if text == "quit" || text == "exit" {
		m.quitting = true
		return m, tea.Quit
	}

	step, err := replay.ParseLine(text, 0)
	if err != nil {
		var syntaxErr *replay.SyntaxError
		if errors.As(err, &syntaxErr) {
			m.addLog(logError, fmt.Sprintf("%s: %s", text, syntaxErr.Msg))
		} else {
			m.addLog(logError, err.Error())
		}
		return m, nil
	}
	if step == nil {
		return m, nil
	}

	m.busy = true
	return m, applyStep(m.ctx, m.cfg.Runner, *step, text)
}

func applyStep(ctx context.Context, runner *replay.Runner, step replay.Step, input string) tea.Cmd {
	return func() tea.Msg {
		return stepDoneMsg{input: input, err: runner.Apply(ctx, step)}
	}
}

func (m *SimulatorModel) addLog(kind logKind, text string) {
	m.log = append(m.log, logEntry{kind: kind, text: text})
	if over := len(m.log) - maxLogEntries; over > 0 {
		m.log = m.log[over:]
	}
}

func (m *SimulatorModel) drainRecorder() {
	if m.cfg.Recorder == nil {
		return
	}
	cmds := m.cfg.Recorder.Commands()
	for _, c := range cmds[min(m.seenCmds, len(cmds)):] {
		m.addLog(logPrinter, "→ "+c)
	}
	m.seenCmds = len(cmds)
}

// View renders the simulator
func (m SimulatorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(PanelStyle(m.Width).Render(m.renderFields()))
	b.WriteString("\n")
	b.WriteString(PanelStyle(m.Width).Render(m.renderLog()))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.Spinner.View() + " ")
	}
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")
	b.WriteString(m.Help.View(m.Keys))
	return b.String()
}

func (m SimulatorModel) renderHeader() string {
	badge := PageBadgeStyle.Render("no page")
	if id, ok := m.cfg.Screen.Page(); ok {
		label := strconv.Itoa(int(id))
		if m.cfg.Registry != nil {
			if ident, err := m.cfg.Registry.Identity(id); err == nil {
				label = ident.String()
			}
		}
		badge = PageBadgeStyle.Render(label)
	}
	title := HeaderTitleStyle.Render(strings.ToUpper(m.cfg.Title))
	return HeaderBorderStyle(m.Width).Render(lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge))
}

// fieldRows is how many field lines fit alongside the log and prompt
func (m SimulatorModel) fieldRows() int {
	if m.Height == 0 {
		return 12
	}
	return max(m.Height-logRows-14, 3)
}

func (m SimulatorModel) renderFields() string {
	fields := m.cfg.Screen.Fields()
	if len(fields) == 0 {
		return LogLineStyle.Render("(no fields set)")
	}

	var lines []string
	var percent float64
	hasProgress := false
	for _, f := range fields {
		if f.Name == progressField {
			if v, err := strconv.Atoi(f.Value); err == nil {
				percent = float64(min(max(v, 0), 100)) / 100
				hasProgress = true
			}
		}
	}
	if hasProgress {
		lines = append(lines, m.ProgressBar.ViewAs(percent))
	}

	rows := m.fieldRows()
	for i, f := range fields {
		if i == rows {
			lines = append(lines, LogLineStyle.Render(fmt.Sprintf("… %d more", len(fields)-rows)))
			break
		}
		lines = append(lines, FieldNameStyle.Render(f.Name)+FieldValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}

func (m SimulatorModel) renderLog() string {
	if len(m.log) == 0 {
		return LogLineStyle.Render("(nothing yet)")
	}
	entries := m.log[max(len(m.log)-logRows, 0):]
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.kind {
		case logError:
			lines = append(lines, LogErrorStyle.Render(FailureMarker+" "+e.text))
		case logPrinter:
			lines = append(lines, LogCommandStyle.Render(e.text))
		default:
			lines = append(lines, LogLineStyle.Render(SuccessMarker+" "+e.text))
		}
	}
	return strings.Join(lines, "\n")
}

// RunSimulator runs the simulator until the user quits or ctx ends
func RunSimulator(ctx context.Context, cfg SimulatorConfig) error {
	p := tea.NewProgram(NewSimulator(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
