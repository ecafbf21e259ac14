// Package ui is the terminal front end: a Bubble Tea program that drives a
// backend session and renders its transcript.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekisa-team/llamaterm/internal/backend"
	"github.com/ekisa-team/llamaterm/internal/model"
	"github.com/ekisa-team/llamaterm/internal/relay"
	"github.com/ekisa-team/llamaterm/internal/transcript"
)

// Warning texts shown in the modal.
const (
	WarnNoModel        = "No model file selected"
	WarnAlreadyRunning = "Program already running"
	WarnNotRunning     = "Program not running"
)

const sliderTick = 10

// Controller is the session API the UI drives. *backend.Supervisor
// implements it.
type Controller interface {
	Start(ctx context.Context, modelPath string, gpuLayers int) (backend.SessionInfo, error)
	Write(message string)
	Stop()
	Running() bool
	Events() <-chan relay.Event
}

// Options configures the initial window.
type Options struct {
	Context       context.Context
	Clipboard     func(string) error
	ModelPath     string
	TranscriptDir string
	Catalog       []model.Entry
	GPULayers     int
	MaxGPULayers  int
}

type mode int

const (
	modeNormal mode = iota
	modeSavePrompt
	modeQuitConfirm
	modePicker
)

type focus int

const (
	focusModel focus = iota
	focusGPU
	focusMessage
	focusCount
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	clipboard func(string) error
	keys      KeyMap

	transcript *transcript.Transcript
	exited     map[string]bool
	starting   bool

	modelInput   textinput.Model
	messageInput textinput.Model
	pathInput    textinput.Model
	gpu          slider
	viewport     viewport.Model
	progress     progress.Model
	spinner      spinner.Model
	picker       list.Model
	help         help.Model

	warning       string
	notice        string
	sessionID     string
	transcriptDir string

	state        backend.State
	mode         mode
	focus        focus
	percent      float64
	showProgress bool
	quitAfter    bool
	width        int
	height       int
}

// New creates the root model.
func New(ctrl Controller, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.MaxGPULayers <= 0 {
		opts.MaxGPULayers = 60
	}
	if opts.TranscriptDir == "" {
		opts.TranscriptDir = "."
	}

	modelInput := textinput.New()
	modelInput.Placeholder = "path to model file (C-o to browse)"
	modelInput.SetValue(opts.ModelPath)
	modelInput.Focus()

	messageInput := textinput.New()
	messageInput.Placeholder = "type a message and press Enter"
	messageInput.CharLimit = 4096

	pathInput := textinput.New()
	pathInput.Prompt = "Save as: "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:           opts.Context,
		ctrl:          ctrl,
		clipboard:     opts.Clipboard,
		keys:          DefaultKeyMap(),
		transcript:    transcript.New(),
		exited:        make(map[string]bool),
		modelInput:    modelInput,
		messageInput:  messageInput,
		pathInput:     pathInput,
		gpu:           newSlider(opts.GPULayers, 0, opts.MaxGPULayers, sliderTick),
		viewport:      viewport.New(80, 10),
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:       sp,
		picker:        newPicker(opts.Catalog),
		help:          help.New(),
		transcriptDir: opts.TranscriptDir,
		state:         backend.StateStopped,
	}
}

// Init starts listening for supervisor events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// waitForEvent blocks on the next supervisor event. It is re-armed after
// every EventMsg.
func (m Model) waitForEvent() tea.Cmd {
	ch := m.ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, m.waitForEvent())

	case StartedMsg:
		return m.handleStarted(msg)

	case StoppedMsg:
		return m, nil

	case ConfigReloadedMsg:
		cmd := m.picker.SetItems(catalogItems(msg.Catalog))
		if msg.MaxGPULayers > 0 {
			m.gpu.SetMax(msg.MaxGPULayers)
		}
		m.notice = "Configuration reloaded"
		return m, cmd

	case spinner.TickMsg:
		if m.state != backend.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.warning != "" {
			m.warning = ""
			return m, nil
		}

		switch m.mode {
		case modeSavePrompt:
			return m.updateSavePrompt(msg)
		case modeQuitConfirm:
			return m.updateQuitConfirm(msg)
		case modePicker:
			return m.updatePicker(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	return m.forwardToInputs(msg)
}

// forwardToInputs lets the focused text input process cursor blink messages.
func (m Model) forwardToInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.mode == modeSavePrompt:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.focus == focusModel:
		m.modelInput, cmd = m.modelInput.Update(msg)
	case m.focus == focusMessage:
		m.messageInput, cmd = m.messageInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.requestQuit()

	case key.Matches(msg, m.keys.Run):
		return m.run()

	case key.Matches(msg, m.keys.Stop):
		return m.stop()

	case key.Matches(msg, m.keys.Save):
		return m.openSavePrompt(false)

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply()

	case key.Matches(msg, m.keys.Pick):
		if len(m.picker.Items()) == 0 {
			m.warning = "Model catalog is empty"
			return m, nil
		}
		m.mode = modePicker
		return m, nil

	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	switch m.focus {
	case focusGPU:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.gpu.Add(-1)
		case key.Matches(msg, m.keys.Right):
			m.gpu.Add(1)
		case key.Matches(msg, m.keys.PageDown):
			m.gpu.Add(-sliderTick)
		case key.Matches(msg, m.keys.PageUp):
			m.gpu.Add(sliderTick)
		}
		return m, nil

	case focusMessage:
		if key.Matches(msg, m.keys.Send) {
			return m.send()
		}
		var cmd tea.Cmd
		m.messageInput, cmd = m.messageInput.Update(msg)
		return m, cmd

	default:
		if key.Matches(msg, m.keys.Send) {
			return m, m.setFocus(focusMessage)
		}
		var cmd tea.Cmd
		m.modelInput, cmd = m.modelInput.Update(msg)
		return m, cmd
	}
}

// run validates the launch parameters and starts a session.
func (m Model) run() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.modelInput.Value())
	if path == "" {
		m.warning = WarnNoModel
		return m, nil
	}

	if m.ctrl.Running() {
		m.warning = WarnAlreadyRunning
		return m, nil
	}

	m.starting = true

	ctx, ctrl, layers := m.ctx, m.ctrl, m.gpu.Value()
	return m, func() tea.Msg {
		info, err := ctrl.Start(ctx, path, layers)
		return StartedMsg{Info: info, Err: err}
	}
}

func (m Model) handleStarted(msg StartedMsg) (tea.Model, tea.Cmd) {
	m.starting = false
	if msg.Err != nil {
		m.showProgress = false
		switch {
		case errors.Is(msg.Err, backend.ErrNoModel):
			m.warning = WarnNoModel
		case errors.Is(msg.Err, backend.ErrAlreadyRunning):
			m.warning = WarnAlreadyRunning
		case errors.Is(msg.Err, backend.ErrModelNotFound):
			m.warning = fmt.Sprintf("Model file not found: %s", strings.TrimSpace(m.modelInput.Value()))
		default:
			// Spawn failures arrive as process error events.
			slog.Debug("Start failed", "error", msg.Err)
		}
		return m, nil
	}

	m.beginSession(msg.Info.ID)

	exited := m.exited[msg.Info.ID]
	clear(m.exited)
	if exited {
		m.markStopped()
		return m, nil
	}

	return m, m.spinner.Tick
}

// stop runs the blocking Stop outside the update loop.
func (m Model) stop() (tea.Model, tea.Cmd) {
	if !m.ctrl.Running() {
		m.notice = WarnNotRunning
		return m, nil
	}

	m.state = backend.StateStopping
	ctrl := m.ctrl
	return m, func() tea.Msg {
		ctrl.Stop()
		return StoppedMsg{}
	}
}

// send records the message and forwards it to the running session.
func (m Model) send() (tea.Model, tea.Cmd) {
	text := m.messageInput.Value()
	if text == "" {
		return m, nil
	}
	m.messageInput.Reset()

	m.transcript.AppendUser(text)
	m.refreshTranscript()

	if !m.ctrl.Running() {
		m.warning = WarnNotRunning
		return m, nil
	}

	m.ctrl.Write(text)
	return m, nil
}

// beginSession resets the transcript and progress for a newly started session.
// It runs once per session id, whichever of StartedMsg or the first event of
// the session arrives first.
func (m *Model) beginSession(id string) {
	if id == m.sessionID {
		return
	}
	m.sessionID = id
	m.state = backend.StateLoading
	m.transcript.Clear()
	m.refreshTranscript()
	m.percent = 0
	m.showProgress = true
	m.notice = ""
}

func (m *Model) handleEvent(ev relay.Event) tea.Cmd {
	if m.starting && ev.Kind != relay.KindExited && ev.SessionID != "" {
		m.beginSession(ev.SessionID)
	}

	switch ev.Kind {
	case relay.KindOutput:
		m.transcript.AppendAssistant(ev.Text)
		m.refreshTranscript()

	case relay.KindReady:
		if m.state == backend.StateLoading || m.state == backend.StateStopped {
			m.state = backend.StateReady
		}

	case relay.KindLoadComplete:
		m.percent = 1

	case relay.KindError:
		if ev.Source == relay.SourceProcess {
			m.warning = ev.Text
			m.showProgress = false
		}

	case relay.KindExited:
		if m.starting && ev.SessionID != m.sessionID {
			// May belong to the session whose StartedMsg is still in flight.
			m.exited[ev.SessionID] = true
			return nil
		}
		if m.sessionID != "" && ev.SessionID != m.sessionID {
			slog.Debug("Ignoring exit of previous session", "session_id", ev.SessionID)
			return nil
		}
		m.markStopped()
		if ev.Err != nil {
			m.notice = fmt.Sprintf("Process exited: %v", ev.Err)
		} else {
			m.notice = "Process exited"
		}
	}

	return nil
}

func (m *Model) markStopped() {
	m.state = backend.StateStopped
	m.showProgress = false
}

func (m Model) openSavePrompt(quitAfter bool) (tea.Model, tea.Cmd) {
	name := fmt.Sprintf("transcript-%s.txt", time.Now().Format("20060102-150405"))
	m.pathInput.SetValue(filepath.Join(m.transcriptDir, name))
	m.pathInput.CursorEnd()
	m.mode = modeSavePrompt
	m.quitAfter = quitAfter
	return m, m.pathInput.Focus()
}

func (m Model) updateSavePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeNormal
		m.quitAfter = false
		m.pathInput.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, nil
		}

		m.mode = modeNormal
		m.pathInput.Blur()

		if err := m.transcript.Save(path); err != nil {
			slog.Error("Failed to save transcript", "path", path, "error", err)
			m.warning = fmt.Sprintf("Failed to save transcript: %v", err)
			m.quitAfter = false
			return m, nil
		}

		slog.Info("Transcript saved", "path", path, "lines", m.transcript.Len())
		m.notice = "Saved to " + path
		if m.quitAfter {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	if strings.TrimSpace(m.modelInput.Value()) == "" {
		return m, tea.Quit
	}

	m.mode = modeQuitConfirm
	return m, nil
}

func (m Model) updateQuitConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "s", "enter":
		return m.openSavePrompt(true)
	case "d":
		return m, tea.Quit
	case "c", "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.mode = modeNormal
			return m, nil

		case msg.Type == tea.KeyEnter:
			if item, ok := m.picker.SelectedItem().(catalogItem); ok {
				m.modelInput.SetValue(item.entry.Path)
				m.modelInput.CursorEnd()
			}
			m.mode = modeNormal
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	last, ok := m.transcript.Last(transcript.RoleAssistant)
	if !ok {
		m.notice = "Nothing to copy"
		return m, nil
	}

	if err := m.clipboard(last.Text); err != nil {
		slog.Warn("Failed to copy to clipboard", "error", err)
		m.warning = fmt.Sprintf("Failed to copy to clipboard: %v", err)
		return m, nil
	}

	m.notice = "Copied last reply to clipboard"
	return m, nil
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.modelInput.Blur()
	m.messageInput.Blur()

	switch f {
	case focusModel:
		return m.modelInput.Focus()
	case focusMessage:
		return m.messageInput.Focus()
	}
	return nil
}

func (m *Model) refreshTranscript() {
	lines := make([]string, 0, m.transcript.Len())
	for _, e := range m.transcript.Entries() {
		if e.Role == transcript.RoleUser {
			lines = append(lines, userStyle.Render(e.String()))
			continue
		}
		lines = append(lines, e.String())
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	// title, model, gpu, progress, blank, message, status, help
	const chrome = 10
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 3)

	inputWidth := max(width-labelStyle.GetWidth()-4, 10)
	m.modelInput.Width = inputWidth
	m.messageInput.Width = inputWidth
	m.pathInput.Width = inputWidth
	m.gpu.width = max(min(width-labelStyle.GetWidth()-12, 60), 10)
	m.progress.Width = max(min(width-labelStyle.GetWidth()-4, 60), 10)
	m.picker.SetSize(max(width-4, 20), max(height-4, 5))
	m.help.Width = width
	m.refreshTranscript()
}

// Transcript returns the conversation shown in the window.
func (m Model) Transcript() *transcript.Transcript {
	return m.transcript
}

// Warning returns the modal warning currently shown, if any.
func (m Model) Warning() string {
	return m.warning
}
