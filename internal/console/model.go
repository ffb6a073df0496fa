// Package console is the live operator terminal: one long-lived shift with
// its checklist gate, capture and sync on single keys, and a connectivity
// indicator fed by the monitor.
package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/maprix/maprix/internal/version"
)

const maxEvents = 50

// OnlineMsg reports a connectivity transition.
type OnlineMsg struct {
	Online bool
}

// TickMsg triggers a periodic status refresh.
type TickMsg time.Time

// ClearStatusMsg clears the status line.
type ClearStatusMsg struct{}

type statusMsg struct {
	status *operator.Status
	err    error
}

type captureDoneMsg struct {
	result *operator.CaptureResult
	err    error
}

type syncDoneMsg struct {
	result *pipeline.SyncResult
	err    error
}

type checklistDoneMsg struct {
	err error
}

type event struct {
	at    time.Time
	text  string
	level int
}

const (
	levelInfo = iota
	levelSuccess
	levelWarning
	levelError
)

// Options tune the console.
type Options struct {
	Version         string
	RefreshInterval time.Duration
}

// Model is the bubbletea model of the console.
type Model struct {
	ctrl    *operator.Controller
	opts    Options
	spinner spinner.Model
	help    help.Model
	note    textinput.Model

	Width  int
	Height int

	status     *operator.Status
	online     bool
	busy       string
	noteOpen   bool
	form       *checklist.FormState
	events     []event
	statusLine string
	statusErr  bool
	update     *version.UpdateAvailableMsg
}

// New builds a console model for a controller whose shift is already restored.
func New(ctrl *operator.Controller, opts Options) Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warningStyle

	note := textinput.New()
	note.Placeholder = "Observação"
	note.CharLimit = 500
	note.Width = 50

	return Model{
		ctrl:    ctrl,
		opts:    opts,
		spinner: sp,
		help:    help.New(),
		note:    note,
		online:  ctrl.Monitor().Online(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchStatus(),
		m.scheduleTick(),
		m.spinner.Tick,
		version.CheckAsync(m.opts.Version),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// ticks keep the refresh chain alive whatever mode is open
	if _, ok := msg.(TickMsg); ok {
		return m, tea.Batch(m.fetchStatus(), m.scheduleTick())
	}
	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = sizeMsg.Width
		m.Height = sizeMsg.Height
		m.help.Width = sizeMsg.Width
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.noteOpen {
			return m.updateNote(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case OnlineMsg:
		if msg.Online != m.online {
			m.online = msg.Online
			if msg.Online {
				m.addEvent(levelSuccess, "Connection restored. Press s to send pending captures.")
			} else {
				m.addEvent(levelWarning, "Connection lost. Captures will be saved on this device.")
			}
		}
		return m, m.fetchStatus()

	case statusMsg:
		if msg.err != nil {
			return m.setStatus(msg.err.Error(), true)
		}
		m.status = msg.status
		m.online = msg.status.Online
		return m, nil

	case captureDoneMsg:
		m.busy = ""
		m.handleCaptureDone(msg)
		return m, m.fetchStatus()

	case syncDoneMsg:
		m.busy = ""
		m.handleSyncDone(msg)
		return m, m.fetchStatus()

	case checklistDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.addEvent(levelError, "Checklist not sent: "+msg.err.Error())
		} else {
			m.addEvent(levelSuccess, "Checklist sent. Captures are enabled.")
		}
		return m, m.fetchStatus()

	case version.UpdateAvailableMsg:
		m.update = &msg
		return m, nil

	case ClearStatusMsg:
		m.statusLine = ""
		m.statusErr = false
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Capture):
		return m.startCapture("")

	case key.Matches(msg, keys.CaptureNote):
		if ok, reason := m.canCapture(); !ok {
			return m.setStatus(reason, true)
		}
		m.noteOpen = true
		m.note.SetValue("")
		return m, m.note.Focus()

	case key.Matches(msg, keys.Sync):
		if m.busy != "" {
			return m.setStatus("wait for "+m.busy+" to finish", true)
		}
		m.busy = "sync"
		return m, m.runSync()

	case key.Matches(msg, keys.Checklist):
		return m.openChecklist()

	case key.Matches(msg, keys.Refresh):
		return m, m.probe()
	}
	return m, nil
}

func (m Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.noteOpen = false
		m.note.Blur()
		return m, nil
	case tea.KeyEnter:
		m.noteOpen = false
		m.note.Blur()
		return m.startCapture(m.note.Value())
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		return m.setStatus("checklist cancelled", false)
	}

	form, cmd := m.form.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.Form = f
	}

	switch m.form.Form.State {
	case huh.StateCompleted:
		fs := m.form
		m.form = nil
		answers, err := fs.Answers()
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		m.busy = "checklist"
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return checklistDoneMsg{err: ctrl.SubmitChecklist(context.Background(), answers)}
		}
	case huh.StateAborted:
		m.form = nil
		return m.setStatus("checklist cancelled", false)
	}
	return m, cmd
}

// canCapture mirrors the disabled capture button.
func (m Model) canCapture() (bool, string) {
	if m.ctrl.Session() == nil {
		return false, "no active shift"
	}
	if m.busy != "" {
		return false, "wait for " + m.busy + " to finish"
	}
	if !m.ctrl.Gate().CaptureAllowed() {
		if m.ctrl.Gate().State() == gate.Pending && len(m.ctrl.Gate().Questions()) > 0 {
			return false, "checklist required, press k"
		}
		if err := m.ctrl.Gate().Err(); err != nil {
			return false, "captures blocked: " + err.Error()
		}
		return false, "captures blocked"
	}
	return true, ""
}

func (m Model) startCapture(observation string) (tea.Model, tea.Cmd) {
	if ok, reason := m.canCapture(); !ok {
		return m.setStatus(reason, true)
	}
	m.busy = "capture"
	ctrl := m.ctrl
	return m, func() tea.Msg {
		res, err := ctrl.Capture(context.Background(), operator.CaptureRequest{Observation: observation})
		return captureDoneMsg{result: res, err: err}
	}
}

func (m Model) openChecklist() (tea.Model, tea.Cmd) {
	g := m.ctrl.Gate()
	if g.State() != gate.Pending || len(g.Questions()) == 0 {
		return m.setStatus("no checklist pending", false)
	}
	if m.busy != "" {
		return m.setStatus("wait for "+m.busy+" to finish", true)
	}
	sess := m.ctrl.Session()
	m.form = checklist.NewFormState(sess.Equipment, g.Questions())
	if m.Width > 0 {
		m.form.Form.WithWidth(min(m.Width-4, 80))
	}
	return m, m.form.Form.Init()
}

func (m Model) runSync() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		res, err := ctrl.Sync(context.Background())
		return syncDoneMsg{result: res, err: err}
	}
}

func (m *Model) handleCaptureDone(msg captureDoneMsg) {
	if msg.err != nil {
		m.addEvent(levelError, "Capture failed: "+msg.err.Error())
		return
	}
	r := msg.result.Report
	pos := fmt.Sprintf("%.6f,%.6f", r.Latitude, r.Longitude)
	switch {
	case msg.result.Outcome == pipeline.Delivered:
		m.addEvent(levelSuccess, "Sent "+pos)
	case msg.result.DeliveryErr != nil:
		m.addEvent(levelWarning, "Saved offline "+pos+" (send failed: "+msg.result.DeliveryErr.Error()+")")
	default:
		m.addEvent(levelWarning, "Saved offline "+pos)
	}
}

func (m *Model) handleSyncDone(msg syncDoneMsg) {
	switch {
	case errors.Is(msg.err, pipeline.ErrSyncInProgress):
		m.addEvent(levelWarning, "A sync is already running")
	case msg.err != nil:
		m.addEvent(levelError, "Sync failed, captures kept: "+msg.err.Error())
	case msg.result.Sent == 0:
		m.addEvent(levelInfo, "Nothing to sync")
	default:
		text := fmt.Sprintf("Synced %d captures", msg.result.Sent)
		if msg.result.Duplicate {
			text += " (already received)"
		}
		if msg.result.Remaining > 0 {
			text += fmt.Sprintf(", %d still pending", msg.result.Remaining)
		}
		m.addEvent(levelSuccess, text)
	}
}

func (m *Model) addEvent(level int, text string) {
	m.events = append(m.events, event{at: time.Now(), text: text, level: level})
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusLine = text
	m.statusErr = isErr
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return ClearStatusMsg{} })
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.opts.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) fetchStatus() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		st, err := ctrl.Status()
		return statusMsg{status: st, err: err}
	}
}

func (m Model) probe() tea.Cmd {
	mon := m.ctrl.Monitor()
	return func() tea.Msg {
		return OnlineMsg{Online: mon.Probe(context.Background())}
	}
}
