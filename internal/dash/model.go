package dash

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/events"
	"github.com/ares-console/ares/internal/status"
	"github.com/ares-console/ares/internal/store"
)

// Tab identifies which dashboard pane is active.
type Tab int

const (
	TabOverview Tab = iota
	TabSessions
	TabMemory
	TabIntegrations
	TabEvents
	TabSettings
	tabCount
)

var tabLabels = [...]string{"Overview", "Sessions", "Memory", "Integrations", "Events", "Settings"}

func (t Tab) String() string {
	if t >= 0 && int(t) < len(tabLabels) {
		return tabLabels[t]
	}
	return "?"
}

// stripLen is how many recent checks the overview history strip shows.
const stripLen = 20

// refreshTickMsg triggers the next section fetch.
type refreshTickMsg time.Time

// snapTickMsg re-renders the poller snapshots between section fetches.
type snapTickMsg time.Time

// snapshotMsg delivers one completed section fetch round.
type snapshotMsg struct {
	snap snapshot
}

// rowsMsg delivers freshly read component rows outside the tick schedule,
// after a manual re-check or an auto-poll toggle.
type rowsMsg struct {
	rows []componentRow
}

// eventMsg wraps a runtime event for delivery through the update loop.
type eventMsg struct {
	event events.Event
}

// transcriptMsg delivers a fetched session transcript.
type transcriptMsg struct {
	session  string
	messages []api.Message
	err      string
}

// componentRow is one monitored component on the overview tab: the live
// poller snapshot plus its recent check history, newest first.
type componentRow struct {
	Name    string
	Status  status.Status
	History []store.StatusSample
}

// snapshot holds one fetch round of backend section data. Sections fail
// independently; their errors land in errs keyed by section name. authErr is
// set when any section failed because the session is no longer valid, so the
// view can show one sign-in banner instead of eight http 401 lines.
type snapshot struct {
	takenAt  time.Time
	agent    *api.AgentStatus
	sessions []api.Session
	notes    []api.MemoryNote
	facts    []api.UserFact
	telegram *api.TelegramStatus
	discord  *api.DiscordStatus
	calendar *api.CalendarStatus
	settings map[string]string
	errs     map[string]string
	authErr  string
}

// fail records one section failure and promotes credential problems to the
// snapshot-level banner.
func (s *snapshot) fail(section string, err error) {
	s.errs[section] = api.Describe(err)
	if s.authErr == "" && (errors.Is(err, api.ErrUnauthorized) || errors.Is(err, auth.ErrNotLoggedIn)) {
		s.authErr = err.Error()
	}
}

type Model struct {
	opts    Options
	styles  styles
	pollers []*status.Poller

	width  int
	height int
	ready  bool

	active  Tab
	cursor  int // selected component row on the overview tab
	loading bool
	spin    spinner.Model

	snap    snapshot
	hasSnap bool
	rows    []componentRow

	// feed is the rolling event list, newest first.
	feed      []events.Event
	maxEvents int

	// transcript viewer, opened from the sessions tab.
	sessionCursor  int
	showTranscript bool
	transcriptFor  string
	transcript     viewport.Model
	transcriptErr  string

	interval time.Duration
}

// New builds the dashboard model. The refresh interval and color theme come
// from the console config; the component pollers are created here and run
// by Run for the life of the program.
func New(opts Options) Model {
	interval := 15 * time.Second
	theme := ""
	if opts.Config != nil {
		interval = opts.Config.Console.PollInterval()
		theme = opts.Config.Console.Theme
	}

	var pollers []*status.Poller
	if opts.Client != nil {
		var prefs status.Prefs
		if opts.Store != nil {
			prefs = opts.Store
		}
		for _, probe := range []struct {
			name  string
			check status.CheckFunc
		}{
			{"backend", opts.Client.Healthy},
			{"agent", opts.Client.AgentProbe},
			{"telegram", opts.Client.TelegramProbe},
			{"discord", opts.Client.DiscordProbe},
		} {
			pollers = append(pollers, status.New(probe.name, probe.check, interval, prefs))
		}
	}

	return Model{
		opts:      opts,
		styles:    newStyles(theme),
		pollers:   pollers,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:   true,
		interval:  interval,
		maxEvents: 200,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.refreshSections(), m.scheduleRefresh(), m.scheduleSnap()}
	if m.opts.Events != nil {
		cmds = append(cmds, listenForEvent(m.opts.Events))
	}
	return tea.Batch(cmds...)
}

// scheduleRefresh arms the next section fetch.
func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

// scheduleSnap re-reads the poller snapshots once a second so transitions
// and the refreshed-ago clock stay live between section fetches.
func (m Model) scheduleSnap() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return snapTickMsg(t) })
}

// listenForEvent blocks until the next runtime event arrives and feeds it
// into the update loop. Re-armed after each delivery.
func listenForEvent(consumer events.Consumer) tea.Cmd {
	return func() tea.Msg {
		ev, err := consumer.Next(context.Background())
		if err != nil {
			return nil
		}
		return eventMsg{event: ev}
	}
}

// refreshSections fetches every tab's section data in one round so
// switching tabs never waits on the network.
func (m Model) refreshSections() tea.Cmd {
	client := m.opts.Client
	timeout := m.interval
	return func() tea.Msg {
		if client == nil {
			return snapshotMsg{snap: snapshot{takenAt: time.Now(), errs: map[string]string{}}}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return snapshotMsg{snap: collect(ctx, client)}
	}
}

// recheck runs an immediate manual check on every poller, then reports the
// refreshed rows.
func (m Model) recheck() tea.Cmd {
	pollers := m.pollers
	timeout := m.interval
	read := m.readRows
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var wg sync.WaitGroup
		for _, p := range pollers {
			wg.Add(1)
			go func(p *status.Poller) {
				defer wg.Done()
				p.CheckNow(ctx)
			}(p)
		}
		wg.Wait()
		return rowsMsg{rows: read()}
	}
}

// toggleAuto flips scheduled polling for one component and reports the
// refreshed rows. The preference persists through the console store.
func (m Model) toggleAuto(p *status.Poller) tea.Cmd {
	read := m.readRows
	return func() tea.Msg {
		if err := p.SetAuto(!p.Auto()); err != nil {
			slog.Warn("Could not persist polling preference", "component", p.Component(), "error", err)
		}
		return rowsMsg{rows: read()}
	}
}

// loadTranscript fetches one session transcript for the viewer.
func (m Model) loadTranscript(id string) tea.Cmd {
	client := m.opts.Client
	timeout := m.interval
	return func() tea.Msg {
		out := transcriptMsg{session: id}
		if client == nil {
			return out
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msgs, err := client.Transcript(ctx, id)
		out.messages = msgs
		if err != nil {
			out.err = api.Describe(err)
		}
		return out
	}
}

// readRows snapshots every poller and its recent local history.
func (m Model) readRows() []componentRow {
	rows := make([]componentRow, 0, len(m.pollers))
	for _, p := range m.pollers {
		row := componentRow{Name: p.Component(), Status: p.Snapshot()}
		if m.opts.Store != nil {
			if hist, err := m.opts.Store.StatusHistory(p.Component(), stripLen); err == nil {
				row.History = hist
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func collect(ctx context.Context, client *api.Client) snapshot {
	snap := snapshot{
		takenAt: time.Now(),
		errs:    map[string]string{},
	}

	var err error
	if snap.agent, err = client.AgentState(ctx); err != nil {
		snap.fail("agent", err)
	}
	if snap.sessions, err = client.Sessions(ctx); err != nil {
		snap.fail("sessions", err)
	}
	if snap.notes, err = client.SelfMemory(ctx); err != nil {
		snap.fail("memory", err)
	}
	if snap.facts, err = client.UserFacts(ctx, ""); err != nil {
		snap.fail("facts", err)
	}
	if snap.telegram, err = client.Telegram(ctx); err != nil {
		snap.fail("telegram", err)
	}
	if snap.discord, err = client.Discord(ctx); err != nil {
		snap.fail("discord", err)
	}
	if snap.calendar, err = client.CalendarState(ctx); err != nil {
		snap.fail("calendar", err)
	}
	if snap.settings, err = client.Settings(ctx); err != nil {
		snap.fail("settings", err)
	}
	return snap
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if m.showTranscript {
			m.transcript.Width = m.contentWidth()
			m.transcript.Height = m.transcriptHeight()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshTickMsg:
		return m, tea.Batch(m.refreshSections(), m.scheduleRefresh())

	case snapTickMsg:
		m.rows = m.readRows()
		return m, m.scheduleSnap()

	case rowsMsg:
		m.rows = msg.rows
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.hasSnap = true
		m.loading = false
		if n := len(m.snap.sessions); m.sessionCursor >= n && n > 0 {
			m.sessionCursor = n - 1
		}
		return m, nil

	case transcriptMsg:
		if msg.err != "" {
			m.transcriptErr = msg.err
			return m, nil
		}
		m.transcriptErr = ""
		m.transcriptFor = msg.session
		vp := viewport.New(m.contentWidth(), m.transcriptHeight())
		vp.SetContent(m.renderTranscript(msg.messages))
		m.transcript = vp
		m.showTranscript = true
		return m, nil

	case eventMsg:
		m.feed = append([]events.Event{msg.event}, m.feed...)
		if len(m.feed) > m.maxEvents {
			m.feed = m.feed[:m.maxEvents]
		}
		if m.opts.Events == nil {
			return m, nil
		}
		return m, listenForEvent(m.opts.Events)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showTranscript {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "enter":
			m.showTranscript = false
			return m, nil
		}
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "right", "l":
		m.active = (m.active + 1) % tabCount
	case "shift+tab", "left", "h":
		m.active = (m.active + tabCount - 1) % tabCount
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if m.active == TabSessions && m.sessionCursor < len(m.snap.sessions) {
			return m, m.loadTranscript(m.snap.sessions[m.sessionCursor].ID)
		}
	case "p":
		if m.active == TabOverview && m.cursor < len(m.pollers) {
			return m, m.toggleAuto(m.pollers[m.cursor])
		}
	case "r":
		m.loading = true
		cmds := []tea.Cmd{m.spin.Tick, m.refreshSections()}
		if len(m.pollers) > 0 {
			cmds = append(cmds, m.recheck())
		}
		return m, tea.Batch(cmds...)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if t := Tab(key[0] - '1'); t < tabCount {
				m.active = t
			}
		}
	}
	return m, nil
}

// moveCursor shifts the row selection on tabs that have one.
func (m *Model) moveCursor(delta int) {
	switch m.active {
	case TabOverview:
		m.cursor = clampIndex(m.cursor+delta, len(m.rows))
	case TabSessions:
		m.sessionCursor = clampIndex(m.sessionCursor+delta, len(m.snap.sessions))
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if n > 0 && i >= n {
		return n - 1
	}
	if n == 0 {
		return 0
	}
	return i
}
