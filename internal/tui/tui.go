// Package tui provides a Bubble Tea terminal user interface for
// qobuz-dl.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lingion/qobuz-dl/internal/config"
	"github.com/lingion/qobuz-dl/internal/download"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5A8DEE")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.Level
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	queued    []string
	failures  []download.Failure
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.Event

	doneItems  int64
	totalItems int64
	bytes      int64

	// Options
	smartDiscography bool
	albumsOnly       bool
	embedArt         bool
	verbose          bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "https://open.qobuz.com/album/..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A8DEE"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		settings = config.DefaultSettings()
	}

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		events:    make(chan download.Event, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// EventMsg carries one engine progress event into the UI.
	EventMsg struct {
		Event download.Event
	}

	// InitDoneMsg is sent when URL resolution completes.
	InitDoneMsg struct {
		Queued  []string
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when all batches complete.
	DownloadDoneMsg struct {
		Failures []download.Failure
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initialize(), m.spinner.Tick, m.waitForEvent())
			}

		case "s":
			if m.state == StateInput {
				m.smartDiscography = !m.smartDiscography
			}

		case "a":
			if m.state == StateInput {
				m.albumsOnly = !m.albumsOnly
			}

		case "e":
			if m.state == StateInput {
				m.embedArt = !m.embedArt
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateInput
				m.logs = nil
				m.queued = nil
				m.failures = nil
				m.err = nil
				m.doneItems = 0
				m.totalItems = 0
				m.bytes = 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		cmds = append(cmds, m.waitForEvent())
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			return m, tea.Batch(cmds...)
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.queued = msg.Queued
			m.manager = msg.Manager
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.failures = msg.Failures
		if m.manager != nil {
			m.doneItems, m.totalItems, m.bytes = m.manager.Progress()
		}
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.doneItems, m.totalItems, m.bytes = m.manager.Progress()

			var percent float64
			if m.totalItems > 0 {
				percent = float64(m.doneItems) / float64(m.totalItems)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// waitForEvent returns a command that delivers the next engine event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return nil
		}
		return EventMsg{Event: e}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("qobuz-dl"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Lossless and hi-res downloads from Qobuz"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter Qobuz URL(s):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Smart discography filter (s)\n", check(m.smartDiscography)))
	b.WriteString(fmt.Sprintf("  %s Albums only, skip singles/EPs (a)\n", check(m.albumsOnly)))
	b.WriteString(fmt.Sprintf("  %s Embed cover art (e)\n", check(m.embedArt)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", check(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Resolving URLs..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if len(m.queued) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Queued %d item(s):", len(m.queued))))
		b.WriteString("\n")
		shown := m.queued
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, q := range shown {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", q)))
			b.WriteString("\n")
		}
		if len(m.queued) > len(shown) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ...and %d more", len(m.queued)-len(shown))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.totalItems > 0 {
		percent = float64(m.doneItems) / float64(m.totalItems)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Items: %d/%d | Received: %.2f MB",
		m.doneItems,
		m.totalItems,
		float64(m.bytes)/1024/1024,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	b.WriteString(boxStyle.Render(fmt.Sprintf(
		"Download complete\n\n"+
			"Items: %d/%d\n"+
			"Size: %.2f MB",
		m.doneItems,
		m.totalItems,
		float64(m.bytes)/1024/1024,
	)))

	if len(m.failures) > 0 {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d item(s) failed:", len(m.failures))))
		b.WriteString("\n")
		for _, f := range m.failures {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  %s: %v", f.Label, f.Err)))
			b.WriteString("\n")
		}
		b.WriteString(dimStyle.Render("Run again to retry; finished files are skipped."))
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "-"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start | s: smart filter | a: albums only | e: embed art | v: verbose | esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download | q: quit"
	}
	return ""
}

// initialize resolves the entered URLs and builds the manager.
func (m *Model) initialize() tea.Cmd {
	input := m.textInput.Value()
	settings := *m.settings
	settings.SmartDiscography = m.smartDiscography
	settings.AlbumsOnly = m.albumsOnly
	settings.EmbedArt = settings.EmbedArt || m.embedArt

	events := m.events
	ctx := m.ctx

	return func() tea.Msg {
		manager, err := download.NewManager(&settings, func(e download.Event) {
			select {
			case events <- e:
			default:
			}
		})
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		if err := manager.Initialize(ctx, input); err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{
			Queued:  manager.Labels(),
			Manager: manager,
		}
	}
}

// startDownload runs the batches in the background.
func (m *Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("nothing queued")}
		}
		failures, err := manager.Start(ctx)
		return DownloadDoneMsg{Failures: failures, Err: err}
	}
}

// Run starts the TUI application.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
