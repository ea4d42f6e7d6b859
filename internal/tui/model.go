// Package tui is the interactive watch session: the caller's application
// list plus notification toasts driven by the poller and toast queue.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/poller"
	"github.com/amishk599/jobboard/internal/toast"
)

// Lines per application item in the list (title + subtitle + blank separator).
const itemHeight = 3

const requestTimeout = 15 * time.Second

// API is the subset of the jobboard client the session uses.
type API interface {
	poller.Source
	toast.Marker
	MyApplications(ctx context.Context) ([]model.Application, error)
	JobApplications(ctx context.Context, jobID string) ([]model.Application, error)
	UpdateStatus(ctx context.Context, applicationID string, status model.Status) (*model.Application, error)
	UnseenCount(ctx context.Context) (int, error)
}

// Options configures a session.
type Options struct {
	Role          model.Role
	JobID         string              // employer: job whose applicants are shown first
	Filter        filter.StatusFilter // applicant list filter on start; empty means all
	PollInterval  time.Duration
	ToastDuration time.Duration
}

type pollTickMsg struct{ generation uint64 }

type pollResultMsg struct {
	generation uint64
	items      []model.Notification
	err        error
}

type toastTimeoutMsg struct {
	generation uint64
	seq        uint64
}

type markSeenDoneMsg struct{ err error }

type badgeMsg struct {
	count int
	err   error
}

type listLoadedMsg struct {
	view  toast.View
	jobID string
	apps  []model.Application
	err   error
}

type decisionDoneMsg struct {
	jobID    string
	app      *model.Application
	snapshot []model.Application
	err      error
}

type watchModel struct {
	api           API
	role          model.Role
	signedIn      bool
	pollInterval  time.Duration
	toastDuration time.Duration

	tracker *poller.Tracker
	session *poller.Session
	queue   *toast.Queue
	toastID uint64

	view     toast.View
	jobID    string
	loaded   bool
	apps     []model.Application
	filter   filter.StatusFilter
	cursor   int
	badge    int
	notice   string
	failed   bool
	listView viewport.Model

	keys   keyMap
	help   help.Model
	width  int
	height int
	ready  bool
}

func newWatchModel(api API, opts Options) watchModel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = poller.DefaultInterval
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = toast.DefaultDuration
	}
	if opts.Filter == "" {
		opts.Filter = filter.All
	}
	m := watchModel{
		api:           api,
		role:          opts.Role,
		pollInterval:  opts.PollInterval,
		toastDuration: opts.ToastDuration,
		tracker:       poller.NewTracker(),
		filter:        opts.Filter,
		keys:          newKeyMap(),
		help:          help.New(),
	}
	if opts.Role == model.RoleEmployer {
		m.view = toast.ViewJobApplicants
		m.jobID = opts.JobID
	}
	m.signIn()
	return m
}

// signIn starts a fresh poller session for the configured role.
func (m *watchModel) signIn() {
	m.signedIn = true
	m.session = m.tracker.SetRole(m.role)
	m.queue = nil
	if m.session != nil {
		m.queue = toast.NewQueue(m.session)
	}
}

// signOut tears the session down; in-flight poll results are discarded.
func (m *watchModel) signOut() {
	m.signedIn = false
	m.session = m.tracker.SetRole("")
	m.queue = nil
	m.badge = 0
}

func (m watchModel) Init() tea.Cmd {
	return m.startPolling()
}

func (m watchModel) startPolling() tea.Cmd {
	if m.session == nil {
		return nil
	}
	gen := m.session.Generation()
	cmds := []tea.Cmd{m.fetchCmd(gen), m.pollTickCmd(gen)}
	if m.role == model.RoleApplicant {
		cmds = append(cmds, m.badgeCmd())
	}
	if m.view == toast.ViewJobApplicants && m.jobID != "" {
		cmds = append(cmds, m.loadListCmd())
	}
	return tea.Batch(cmds...)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.recalcLayout()
		return m, nil

	case pollTickMsg:
		if m.session == nil || msg.generation != m.session.Generation() {
			return m, nil
		}
		return m, tea.Batch(m.fetchCmd(msg.generation), m.pollTickCmd(msg.generation))

	case pollResultMsg:
		return m.handlePollResult(msg)

	case toastTimeoutMsg:
		if m.session == nil || msg.generation != m.session.Generation() {
			return m, nil
		}
		if m.queue.Dismiss(msg.seq) {
			return m, m.pump()
		}
		return m, nil

	case markSeenDoneMsg:
		// Failures are swallowed; the item stays unseen server-side.
		if m.role == model.RoleApplicant && m.signedIn {
			return m, m.badgeCmd()
		}
		return m, nil

	case badgeMsg:
		if msg.err == nil && m.signedIn {
			m.badge = msg.count
		}
		return m, nil

	case listLoadedMsg:
		return m.handleListLoaded(msg)

	case decisionDoneMsg:
		return m.handleDecision(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m watchModel) handlePollResult(msg pollResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Swallowed: the next tick retries.
		return m, nil
	}
	added := m.tracker.Deliver(msg.generation, msg.items)
	if m.session == nil || msg.generation != m.session.Generation() {
		return m, nil
	}

	var cmds []tea.Cmd
	if added > 0 && m.role == model.RoleApplicant {
		cmds = append(cmds, m.badgeCmd())
	}
	// The applicant list read marks decisions seen, so it waits for the
	// first poll to have queued them.
	if !m.loaded && m.view == toast.ViewApplications {
		cmds = append(cmds, m.loadListCmd())
	}
	cmds = append(cmds, m.pump())
	return m, tea.Batch(cmds...)
}

// pump presents the next queued item when idle and arms its timeout.
func (m *watchModel) pump() tea.Cmd {
	if m.queue == nil {
		return nil
	}
	_, seq, ok := m.queue.Pump()
	if !ok {
		return nil
	}
	m.toastID = seq
	gen := m.session.Generation()
	return tea.Tick(m.toastDuration, func(time.Time) tea.Msg {
		return toastTimeoutMsg{generation: gen, seq: seq}
	})
}

// activeToast returns the toast on screen, if any.
func (m watchModel) activeToast() (model.Notification, bool) {
	if m.queue == nil || m.queue.State() != toast.Presenting {
		return model.Notification{}, false
	}
	return m.queue.Active()
}

func (m watchModel) showingToast() bool {
	_, ok := m.activeToast()
	return ok
}

// acknowledge marks the active toast seen, goes idle, then navigates to it.
func (m watchModel) acknowledge() (tea.Model, tea.Cmd) {
	if m.queue == nil {
		return m, nil
	}
	n, ok := m.queue.Acknowledge()
	if !ok {
		return m, nil
	}

	dest := toast.Destination(n)
	m.view = dest.View
	m.jobID = dest.JobID
	m.cursor = 0
	m.loaded = false

	next := m.pump()
	return m, tea.Batch(tea.Sequence(m.markSeenCmd(n), m.loadListCmd()), next)
}

func (m watchModel) closeToast() (tea.Model, tea.Cmd) {
	if m.queue == nil || !m.queue.Close() {
		return m, nil
	}
	return m, m.pump()
}

func (m watchModel) handleListLoaded(msg listLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.view != m.view || msg.jobID != m.jobID {
		return m, nil
	}
	m.loaded = true
	if msg.err != nil {
		m.setNotice(errorText(msg.err), true)
		return m, nil
	}
	apps := msg.apps
	if m.view == toast.ViewApplications {
		filter.SortUnreadFirst(apps)
	}
	m.apps = apps
	m.cursor = clamp(m.cursor, 0, max(len(m.visible())-1, 0))
	m.recalcContent()
	return m, nil
}

// decide applies an accept or reject to the selected applicant at once and
// rolls back to the pre-update snapshot if the server refuses it.
func (m watchModel) decide(status model.Status) (tea.Model, tea.Cmd) {
	if m.view != toast.ViewJobApplicants {
		return m, nil
	}
	visible := m.visible()
	if m.cursor >= len(visible) {
		return m, nil
	}
	target := visible[m.cursor]
	if target.Status != model.StatusPending {
		m.setNotice("application status has already been set and cannot be changed", true)
		return m, nil
	}

	snapshot := cloneAll(m.apps)
	now := time.Now().UTC()
	for i := range m.apps {
		if m.apps[i].ID == target.ID {
			m.apps[i].Status = status
			m.apps[i].StatusUpdatedAt = &now
			break
		}
	}
	m.setNotice("", false)
	m.recalcContent()
	return m, m.decideCmd(target.ID, status, snapshot)
}

func (m watchModel) handleDecision(msg decisionDoneMsg) (tea.Model, tea.Cmd) {
	if m.view != toast.ViewJobApplicants || msg.jobID != m.jobID {
		return m, nil
	}
	if msg.err != nil {
		m.apps = msg.snapshot
		m.setNotice("failed to update status: "+errorText(msg.err), true)
		m.recalcContent()
		return m, nil
	}
	for i := range m.apps {
		if m.apps[i].ID == msg.app.ID {
			updated := *msg.app
			if updated.Job == nil {
				updated.Job = m.apps[i].Job
			}
			m.apps[i] = updated
			break
		}
	}
	m.setNotice("application "+string(msg.app.Status), false)
	m.recalcContent()
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Open):
		return m.acknowledge()
	case key.Matches(msg, m.keys.Close):
		return m.closeToast()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.Next()
		m.cursor = 0
		m.recalcContent()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		return m.decide(model.StatusAccepted)
	case key.Matches(msg, m.keys.Reject):
		return m.decide(model.StatusRejected)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadListCmd()
	case key.Matches(msg, m.keys.SignOut):
		if m.signedIn {
			m.signOut()
			m.recalcContent()
			return m, nil
		}
		m.signIn()
		return m, m.startPolling()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.recalcLayout()
		return m, nil
	}

	var cmd tea.Cmd
	m.listView, cmd = m.listView.Update(msg)
	return m, cmd
}

func (m *watchModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.visible())-1, 0))
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *watchModel) ensureCursorVisible() {
	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1
	if top < m.listView.YOffset {
		m.listView.SetYOffset(top)
	} else if bottom >= m.listView.YOffset+m.listView.Height {
		m.listView.SetYOffset(bottom - m.listView.Height + 1)
	}
}

func (m *watchModel) setNotice(text string, failed bool) {
	m.notice = text
	m.failed = failed
}

func (m watchModel) visible() []model.Application {
	return m.filter.Apply(m.apps)
}

func (m watchModel) fetchCmd(generation uint64) tea.Cmd {
	api, role := m.api, m.role
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := poller.Fetch(ctx, api, role)
		return pollResultMsg{generation: generation, items: items, err: err}
	}
}

func (m watchModel) pollTickCmd(generation uint64) tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{generation: generation}
	})
}

func (m watchModel) badgeCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		count, err := api.UnseenCount(ctx)
		return badgeMsg{count: count, err: err}
	}
}

func (m watchModel) markSeenCmd(n model.Notification) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return markSeenDoneMsg{err: toast.MarkSeen(ctx, api, n)}
	}
}

func (m watchModel) loadListCmd() tea.Cmd {
	api, view, jobID := m.api, m.view, m.jobID
	if view == toast.ViewJobApplicants && jobID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var apps []model.Application
		var err error
		if view == toast.ViewJobApplicants {
			apps, err = api.JobApplications(ctx, jobID)
		} else {
			apps, err = api.MyApplications(ctx)
		}
		return listLoadedMsg{view: view, jobID: jobID, apps: apps, err: err}
	}
}

func (m watchModel) decideCmd(applicationID string, status model.Status, snapshot []model.Application) tea.Cmd {
	api, jobID := m.api, m.jobID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		app, err := api.UpdateStatus(ctx, applicationID, status)
		return decisionDoneMsg{jobID: jobID, app: app, snapshot: snapshot, err: err}
	}
}

func cloneAll(apps []model.Application) []model.Application {
	out := make([]model.Application, len(apps))
	for i, a := range apps {
		out[i] = a.Clone()
	}
	return out
}

func errorText(err error) string {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run launches the watch session in the alternate screen and blocks until
// the user quits.
func Run(api API, opts Options) error {
	p := tea.NewProgram(newWatchModel(api, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
