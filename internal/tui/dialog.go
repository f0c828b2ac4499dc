// Package tui renders the fetch dialog in the terminal.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/pipeline"
)

type field int

const (
	fieldURL field = iota
	fieldService
	fieldNotebook
	fieldCount
)

// notebooksMsg carries the result of a notebook refresh.
type notebooksMsg struct {
	list     []model.NotebookInfo
	err      error
	statuses []pipeline.StatusLine
}

// submitDoneMsg carries the result of a submit.
type submitDoneMsg struct {
	outcome  *pipeline.Outcome
	err      error
	statuses []pipeline.StatusLine
	notices  []string
}

// statusMsg is a live status update from a running command.
type statusMsg pipeline.StatusLine

// noticeMsg is a live notification from a running command.
type noticeMsg string

// bridge forwards reporter calls into the running program. send is nil until
// the program starts, and in tests.
type bridge struct {
	send func(tea.Msg)
}

// reporter records statuses and forwards them live when a program is
// attached.
type reporter struct {
	rec    *pipeline.Recorder
	bridge *bridge
}

func (r reporter) Status(text string, isError bool) {
	r.rec.Status(text, isError)
	if r.bridge != nil && r.bridge.send != nil {
		r.bridge.send(statusMsg{Text: text, IsError: isError})
	}
}

func (r reporter) Notify(text string) {
	r.rec.Notify(text)
	if r.bridge != nil && r.bridge.send != nil {
		r.bridge.send(noticeMsg(text))
	}
}

// Model is the bubbletea model of the fetch dialog.
type Model struct {
	ctx    context.Context
	dialog *pipeline.Dialog
	labels i18n.Labels
	bridge *bridge

	url        textinput.Model
	spinner    spinner.Model
	focus      field
	services   []model.Service
	serviceIdx int

	notebooks       []model.NotebookInfo
	notebookIdx     int
	defaultNotebook string

	busy       bool
	refreshing bool
	status     pipeline.StatusLine
	notice     string
	outcome    *pipeline.Outcome
	width      int
}

// New creates the dialog model. s provides the preselected service and
// notebook.
func New(ctx context.Context, d *pipeline.Dialog, s model.PluginSettings) Model {
	labels := d.Labels()

	ti := textinput.New()
	ti.Placeholder = labels.Get(i18n.PanelURLPlaceholder)
	ti.CharLimit = 2048
	ti.Width = 48
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusStyle

	services := model.AllServices()
	serviceIdx := 0
	found := false
	for i, svc := range services {
		if svc == s.DefaultService {
			serviceIdx, found = i, true
		}
	}
	// An unknown stored service stays selectable so submit reports it.
	if !found && s.DefaultService != "" {
		services = append(services, s.DefaultService)
		serviceIdx = len(services) - 1
	}

	return Model{
		ctx:             ctx,
		dialog:          d,
		labels:          labels,
		bridge:          &bridge{},
		url:             ti,
		spinner:         sp,
		services:        services,
		serviceIdx:      serviceIdx,
		notebookIdx:     -1,
		defaultNotebook: s.DefaultNotebookID,
		refreshing:      true,
	}
}

// Attach connects live status forwarding to a running program.
func (m Model) Attach(p *tea.Program) {
	m.bridge.send = p.Send
}

// Outcome returns the last successful fetch, if any.
func (m Model) Outcome() *pipeline.Outcome { return m.outcome }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fillCmd(false), m.spinner.Tick)
}

func (m Model) fillCmd(force bool) tea.Cmd {
	ctx, d, b := m.ctx, m.dialog, m.bridge
	return func() tea.Msg {
		rec := &pipeline.Recorder{}
		list, err := d.FillNotebooks(ctx, force, reporter{rec: rec, bridge: b})
		return notebooksMsg{list: list, err: err, statuses: rec.Statuses()}
	}
}

func (m Model) submitCmd(req pipeline.Request) tea.Cmd {
	ctx, d, b := m.ctx, m.dialog, m.bridge
	return func() tea.Msg {
		rec := &pipeline.Recorder{}
		out, err := d.Submit(ctx, req, reporter{rec: rec, bridge: b})
		return submitDoneMsg{outcome: out, err: err, statuses: rec.Statuses(), notices: rec.Notices()}
	}
}

// request builds the submit request from the form.
func (m Model) request() pipeline.Request {
	req := pipeline.Request{URL: m.url.Value()}
	if m.serviceIdx >= 0 && m.serviceIdx < len(m.services) {
		req.Service = m.services[m.serviceIdx]
	}
	if m.notebookIdx >= 0 && m.notebookIdx < len(m.notebooks) {
		req.NotebookID = m.notebooks[m.notebookIdx].ID
	}
	return req
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case notebooksMsg:
		m.refreshing = false
		m.applyStatuses(msg.statuses)
		if msg.err == nil {
			m.setNotebooks(msg.list)
		}
		return m, nil

	case submitDoneMsg:
		m.busy = false
		m.applyStatuses(msg.statuses)
		if len(msg.notices) > 0 {
			m.notice = msg.notices[len(msg.notices)-1]
		}
		if msg.err == nil {
			m.outcome = msg.outcome
		}
		return m, nil

	case statusMsg:
		m.status = pipeline.StatusLine(msg)
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy && !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.notice = ""
			return m, tea.Batch(m.submitCmd(m.request()), m.spinner.Tick)
		case "ctrl+r":
			if m.busy || m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, tea.Batch(m.fillCmd(true), m.spinner.Tick)
		case "left", "right":
			m.cycle(msg.String() == "right")
			if m.focus != fieldURL {
				return m, nil
			}
		}
	}

	if m.focus != fieldURL {
		return m, nil
	}
	var cmd tea.Cmd
	m.url, cmd = m.url.Update(msg)
	return m, cmd
}

func (m *Model) applyStatuses(statuses []pipeline.StatusLine) {
	if len(statuses) > 0 {
		m.status = statuses[len(statuses)-1]
	}
}

func (m *Model) setFocus(f field) {
	m.focus = f
	if f == fieldURL {
		m.url.Focus()
	} else {
		m.url.Blur()
	}
}

// setNotebooks replaces the selector options, keeping the current choice
// when it is still present, else preselecting the default notebook.
func (m *Model) setNotebooks(list []model.NotebookInfo) {
	selected := m.defaultNotebook
	if m.notebookIdx >= 0 && m.notebookIdx < len(m.notebooks) {
		selected = m.notebooks[m.notebookIdx].ID
	}
	m.notebooks = list
	m.notebookIdx = -1
	for i, nb := range list {
		if nb.ID == selected {
			m.notebookIdx = i
			break
		}
	}
}

// cycle moves the selection of the focused selector. The notebook selector
// includes the placeholder at position -1.
func (m *Model) cycle(forward bool) {
	step := 1
	if !forward {
		step = -1
	}
	switch m.focus {
	case fieldService:
		if n := len(m.services); n > 0 {
			m.serviceIdx = (m.serviceIdx + step + n) % n
		}
	case fieldNotebook:
		n := len(m.notebooks) + 1
		m.notebookIdx = (m.notebookIdx+1+step+n)%n - 1
	}
}

func (m Model) serviceLabel(svc model.Service) string {
	switch svc {
	case model.ServiceFirecrawl:
		return m.labels.Get(i18n.ServiceFirecrawl)
	case model.ServiceJina:
		return m.labels.Get(i18n.ServiceJina)
	default:
		return string(svc)
	}
}

func (m Model) notebookLabel() string {
	if m.notebookIdx < 0 || m.notebookIdx >= len(m.notebooks) {
		return m.labels.Get(i18n.SelectNotebookPlaceholder)
	}
	return m.notebooks[m.notebookIdx].Name
}

func (m Model) row(f field, label, value string) string {
	l := labelStyle.Render(label)
	if m.focus == f {
		l = focusStyle.Width(10).Render(label)
		if f != fieldURL {
			value = "‹ " + value + " ›"
		}
	}
	return l + " " + value
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.labels.Get(i18n.PanelTitle)) + "\n\n")

	svc := ""
	if m.serviceIdx >= 0 && m.serviceIdx < len(m.services) {
		svc = m.serviceLabel(m.services[m.serviceIdx])
	}
	sb.WriteString(m.row(fieldURL, m.labels.Get(i18n.PanelURLLabel), m.url.View()) + "\n")
	sb.WriteString(m.row(fieldService, m.labels.Get(i18n.PanelServiceLabel), svc) + "\n")
	sb.WriteString(m.row(fieldNotebook, m.labels.Get(i18n.PanelNotebookLabel), m.notebookLabel()) + "\n\n")

	status := m.status.Text
	if m.busy || m.refreshing {
		status = m.spinner.View() + " " + status
	}
	if m.status.IsError {
		sb.WriteString(errorStyle.Render(status) + "\n")
	} else if m.outcome != nil && !m.busy {
		sb.WriteString(successStyle.Render(status) + "\n")
	} else {
		sb.WriteString(hintStyle.Render(status) + "\n")
	}
	if m.notice != "" && m.notice != m.status.Text {
		sb.WriteString(successStyle.Render(m.notice) + "\n")
	}

	keys := []string{
		"enter " + m.labels.Get(i18n.PanelFetchButton),
		"ctrl+r " + m.labels.Get(i18n.RefreshNotebooks),
		"esc " + m.labels.Get(i18n.Cancel),
	}
	if m.busy {
		keys = keys[2:]
	}
	sb.WriteString(hintStyle.Render(strings.Join(keys, " · ")))

	w := m.width
	if w < 40 {
		w = 72
	}
	return frameStyle.Width(w - 2).Render(sb.String())
}

// Run shows the dialog until the user cancels. It returns the last
// successful outcome.
func Run(ctx context.Context, d *pipeline.Dialog, s model.PluginSettings, opts ...tea.ProgramOption) (*pipeline.Outcome, error) {
	m := New(ctx, d, s)
	p := tea.NewProgram(m, opts...)
	m.Attach(p)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if fm, ok := final.(Model); ok {
		return fm.Outcome(), nil
	}
	return nil, nil
}
