package dash

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/store"
)

type styles struct {
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	title       lipgloss.Style
	up          lipgloss.Style
	down        lipgloss.Style
	warn        lipgloss.Style
	faint       lipgloss.Style
}

func newStyles(theme string) styles {
	accent := lipgloss.Color("86")
	if theme == "light" {
		accent = lipgloss.Color("25")
	}
	return styles{
		activeTab:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent),
		inactiveTab: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		title:       lipgloss.NewStyle().Bold(true),
		up:          lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		down:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		warn:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		faint:       lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.snap.authErr != "" {
		b.WriteString(" " + m.styles.down.Render(m.snap.authErr) + "\n")
	}
	b.WriteString("\n")
	switch m.active {
	case TabOverview:
		b.WriteString(m.viewOverview())
	case TabSessions:
		b.WriteString(m.viewSessions())
	case TabMemory:
		b.WriteString(m.viewMemory())
	case TabIntegrations:
		b.WriteString(m.viewIntegrations())
	case TabEvents:
		b.WriteString(m.viewEvents())
	case TabSettings:
		b.WriteString(m.viewSettings())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		if t == m.active {
			parts = append(parts, m.styles.activeTab.Render(t.String()))
		} else {
			parts = append(parts, m.styles.inactiveTab.Render(t.String()))
		}
	}
	left := " " + strings.Join(parts, "  ")
	right := m.styles.faint.Render("ares "+m.opts.Version) + " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	state := ""
	switch {
	case m.loading:
		state = m.spin.View() + " refreshing"
	case m.hasSnap:
		state = fmt.Sprintf("refreshed %s ago", time.Since(m.snap.takenAt).Round(time.Second))
	}
	return " " + state + "\n " + m.styles.faint.Render(m.helpLine())
}

// helpLine lists the keys that do something on the active tab.
func (m Model) helpLine() string {
	switch {
	case m.showTranscript:
		return "j/k: scroll   esc: back   q: quit"
	case m.active == TabOverview:
		return "tab/1-6: switch   j/k: select   p: poll on/off   r: refresh   q: quit"
	case m.active == TabSessions:
		return "tab/1-6: switch   j/k: select   enter: transcript   r: refresh   q: quit"
	}
	return "tab/1-6: switch   r: refresh   q: quit"
}

func (m Model) sectionError(section string) (string, bool) {
	msg, ok := m.snap.errs[section]
	if !ok {
		return "", false
	}
	return " " + m.styles.warn.Render(section+": "+msg), true
}

func (m Model) viewOverview() string {
	if len(m.rows) == 0 && !m.hasSnap {
		return " " + m.spin.View() + " fetching first snapshot"
	}
	var b strings.Builder

	b.WriteString(" " + m.styles.title.Render("Components") + "\n")
	for i, row := range m.rows {
		marker := "  "
		if i == m.cursor {
			marker = m.styles.title.Render("> ")
		}

		glyph := m.styles.down.Render("●")
		detail := clip(row.Status.Err, 24)
		if row.Status.Connected {
			glyph = m.styles.up.Render("●")
			detail = row.Status.Latency.Round(time.Millisecond).String()
		}
		if row.Status.CheckedAt.IsZero() {
			glyph = m.styles.faint.Render("●")
			detail = "waiting"
		}

		mode := m.styles.faint.Render("[auto]")
		if !row.Status.Auto {
			mode = m.styles.warn.Render("[manual]")
		}

		pad := 26 - lipgloss.Width(detail)
		if pad < 1 {
			pad = 1
		}
		b.WriteString(fmt.Sprintf(" %s%s %-10s %s%s%s %s\n",
			marker, glyph, row.Name, detail, strings.Repeat(" ", pad), mode, m.strip(row.History)))
	}

	b.WriteString("\n " + m.styles.title.Render("Agent") + "\n")
	if msg, ok := m.sectionError("agent"); ok {
		b.WriteString(msg + "\n")
	} else if a := m.snap.agent; a != nil {
		up := time.Duration(a.UptimeSeconds) * time.Second
		b.WriteString(fmt.Sprintf("  state %s   model %s   queue %d   up %s\n",
			a.State, a.Model, a.QueueDepth, up))
	}

	b.WriteString("\n " + m.styles.title.Render("Activity") + "\n")
	b.WriteString(fmt.Sprintf("  %d sessions   %d self-notes   %d user facts   %d events seen\n",
		len(m.snap.sessions), len(m.snap.notes), len(m.snap.facts), len(m.feed)))
	return b.String()
}

// strip renders recent checks as a block ramp, oldest on the left. Down
// checks show as full red blocks; up checks scale with latency.
func (m Model) strip(samples []store.StatusSample) string {
	if len(samples) == 0 {
		return ""
	}
	var maxMS int64 = 1
	for _, s := range samples {
		if s.Connected && s.LatencyMs > maxMS {
			maxMS = s.LatencyMs
		}
	}
	var b strings.Builder
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Connected {
			b.WriteString(m.styles.up.Render(string(sparkRune(samples[i].LatencyMs, maxMS))))
		} else {
			b.WriteString(m.styles.down.Render("█"))
		}
	}
	return b.String()
}

var sparkRamp = []rune("▁▂▃▄▅▆▇█")

// sparkRune maps one latency onto the block ramp, scaled against the
// slowest sample in the strip.
func sparkRune(latencyMS, maxMS int64) rune {
	if maxMS <= 0 || latencyMS <= 0 {
		return sparkRamp[0]
	}
	idx := int(latencyMS * int64(len(sparkRamp)-1) / maxMS)
	if idx >= len(sparkRamp) {
		idx = len(sparkRamp) - 1
	}
	return sparkRamp[idx]
}

func (m Model) viewSessions() string {
	if m.showTranscript {
		return m.viewTranscript()
	}
	if msg, ok := m.sectionError("sessions"); ok {
		return msg
	}
	var b strings.Builder
	if m.transcriptErr != "" {
		b.WriteString(" " + m.styles.warn.Render("transcript: "+m.transcriptErr) + "\n")
	}
	if len(m.snap.sessions) == 0 {
		b.WriteString(m.styles.faint.Render(" No sessions."))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("   %-22s %-10s %-14s %5s  %s\n", "ID", "CHANNEL", "USER", "MSGS", "LAST ACTIVE"))
	for i, s := range m.snap.sessions {
		if i >= m.maxRows() {
			b.WriteString(m.styles.faint.Render(fmt.Sprintf("   ... %d more", len(m.snap.sessions)-i)))
			break
		}
		marker := "  "
		if i == m.sessionCursor {
			marker = m.styles.title.Render("> ")
		}
		b.WriteString(fmt.Sprintf(" %s%-22s %-10s %-14s %5d  %s\n",
			marker, clip(s.ID, 22), s.Channel, clip(s.UserID, 14), s.MessageCount, clip(s.LastActiveAt, 19)))
	}
	return b.String()
}

func (m Model) viewTranscript() string {
	title := " " + m.styles.title.Render("Transcript "+m.transcriptFor)
	return title + "\n" + m.transcript.View()
}

// renderTranscript formats a transcript for the viewer, wrapped to the
// viewer width.
func (m Model) renderTranscript(messages []api.Message) string {
	if len(messages) == 0 {
		return m.styles.faint.Render(" (empty transcript)")
	}
	wrap := lipgloss.NewStyle().Width(m.contentWidth())
	var blocks []string
	for _, msg := range messages {
		meta := m.styles.faint.Render(fmt.Sprintf("[%s] %s", clip(msg.CreatedAt, 19), msg.Role))
		blocks = append(blocks, meta+"\n"+wrap.Render(msg.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) viewMemory() string {
	var b strings.Builder
	b.WriteString(" " + m.styles.title.Render("Self-notes") + "\n")
	if msg, ok := m.sectionError("memory"); ok {
		b.WriteString(msg + "\n")
	} else if len(m.snap.notes) == 0 {
		b.WriteString(m.styles.faint.Render("  none") + "\n")
	} else {
		for i, n := range m.snap.notes {
			if i >= 5 {
				b.WriteString(m.styles.faint.Render(fmt.Sprintf("  ... %d more", len(m.snap.notes)-i)) + "\n")
				break
			}
			b.WriteString("  - " + clip(n.Content, m.width-6) + "\n")
		}
	}

	b.WriteString("\n " + m.styles.title.Render("User facts") + "\n")
	if msg, ok := m.sectionError("facts"); ok {
		b.WriteString(msg + "\n")
	} else if len(m.snap.facts) == 0 {
		b.WriteString(m.styles.faint.Render("  none") + "\n")
	} else {
		for i, f := range m.snap.facts {
			if i >= m.maxRows()-7 {
				b.WriteString(m.styles.faint.Render(fmt.Sprintf("  ... %d more", len(m.snap.facts)-i)) + "\n")
				break
			}
			b.WriteString("  - " + clip(f.Fact, m.width-6) + "\n")
		}
	}
	return b.String()
}

func (m Model) viewIntegrations() string {
	var b strings.Builder

	b.WriteString(" " + m.styles.title.Render("Telegram") + "\n")
	if msg, ok := m.sectionError("telegram"); ok {
		b.WriteString(msg + "\n")
	} else if t := m.snap.telegram; t != nil {
		b.WriteString(fmt.Sprintf("  %s  @%s  last update %s\n",
			m.mark(t.Connected), t.BotUsername, clip(t.LastUpdateAt, 19)))
	}

	b.WriteString("\n " + m.styles.title.Render("Discord") + "\n")
	if msg, ok := m.sectionError("discord"); ok {
		b.WriteString(msg + "\n")
	} else if d := m.snap.discord; d != nil {
		b.WriteString(fmt.Sprintf("  %s  %d guilds  gateway %dms\n",
			m.mark(d.Connected), d.Guilds, d.LatencyMS))
	}

	b.WriteString("\n " + m.styles.title.Render("Calendar") + "\n")
	if msg, ok := m.sectionError("calendar"); ok {
		b.WriteString(msg + "\n")
	} else if c := m.snap.calendar; c != nil {
		b.WriteString(fmt.Sprintf("  %s  %s  last sync %s\n",
			m.mark(c.Connected), c.CalendarID, clip(c.LastSyncAt, 19)))
	}
	return b.String()
}

func (m Model) mark(connected bool) string {
	if connected {
		return m.styles.up.Render("connected")
	}
	return m.styles.down.Render("disconnected")
}

func (m Model) viewEvents() string {
	if m.opts.Events == nil {
		return m.styles.faint.Render(" No Kafka brokers configured; set events.brokers to stream runtime events.")
	}
	if len(m.feed) == 0 {
		return m.styles.faint.Render(" Waiting for events...")
	}
	var b strings.Builder
	for i, ev := range m.feed {
		if i >= m.maxRows() {
			break
		}
		line := fmt.Sprintf(" %s %-16s", ev.At.Local().Format("15:04:05"), ev.Kind)
		if ev.Session != "" {
			line += " " + m.styles.faint.Render(ev.Session)
		}
		if len(ev.Body) > 0 {
			line += " " + clip(string(ev.Body), m.width-lipgloss.Width(line)-2)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewSettings() string {
	if msg, ok := m.sectionError("settings"); ok {
		return msg
	}
	if len(m.snap.settings) == 0 {
		return m.styles.faint.Render(" No settings.")
	}
	keys := make([]string, 0, len(m.snap.settings))
	for k := range m.snap.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i >= m.maxRows() {
			b.WriteString(m.styles.faint.Render(fmt.Sprintf(" ... %d more", len(keys)-i)))
			break
		}
		b.WriteString(fmt.Sprintf(" %-32s %s\n", k, clip(m.snap.settings[k], m.width-35)))
	}
	return b.String()
}

// maxRows is how many list rows fit between the header and footer.
func (m Model) maxRows() int {
	rows := m.height - 6
	if rows < 5 {
		rows = 5
	}
	return rows
}

// contentWidth is the usable width inside the one-column margins.
func (m Model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// transcriptHeight leaves room for the tab bar, the viewer title and the
// footer.
func (m Model) transcriptHeight() int {
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
