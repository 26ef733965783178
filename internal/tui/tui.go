// Package tui provides a Bubble Tea TUI for viewing session reports.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/docsweep/internal/audit"
	"github.com/fakeyudi/docsweep/internal/report"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright, underlined
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Separator between tabs
	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	statusOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	statusFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusSkipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	degradedBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("196")).
				Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabOperations
	tabFailures
	tabTimeline
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Operations", "Failures", "Timeline"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	report    *report.SessionReport
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
}

// New creates a new TUI model for the given report and source filename.
func New(r *report.SessionReport, filename string) Model {
	return Model{
		report:   r,
		filename: filepath.Base(filename),
		sortAsc:  true,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabTimeline {
				m.sortAsc = !m.sortAsc
				m.rebuildTimelineViewport()
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	titleText := "  docsweep  " + m.filename
	if m.report.Degraded {
		titleText += "  " + degradedBadgeStyle.Render("DEGRADED")
	}
	title := titleStyle.Width(m.width).Render(titleText)

	// ── Row 2: tab bar ────────────────────────────────────────────────────────
	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	// ── Row 3…N-1: scrollable content ────────────────────────────────────────
	content := m.viewports[m.activeTab].View()

	// ── Row N: status / hint bar ──────────────────────────────────────────────
	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabTimeline {
		dir := "oldest first"
		if !m.sortAsc {
			dir = "newest first"
		}
		hint += "  s sort (" + dir + ")"
	}
	// show scroll % on the right
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildTimelineViewport() {
	m.viewports[tabTimeline].SetContent(m.renderTab(tabTimeline))
	m.viewports[tabTimeline].GotoTop()
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabOperations:
		return m.renderOperations()
	case tabFailures:
		return m.renderFailures()
	case tabTimeline:
		return m.renderTimeline()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSummary() string {
	s := m.report.Session
	var sb strings.Builder
	sb.WriteString(heading("Session"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
	}
	row("Session:", s.ID)
	row("Operation type:", s.OperationType)
	if s.User != "" {
		row("User:", s.User)
	}
	row("Host:", s.Host)
	row("Started:", s.StartTime.Format("2006-01-02 15:04:05 MST"))
	if s.EndTime != nil {
		row("Finalized:", s.EndTime.Format("2006-01-02 15:04:05 MST"))
		row("Duration:", s.Duration)
	}
	if s.FinalStatus != "" {
		row("Final status:", string(s.FinalStatus))
	}

	sb.WriteString("\n")
	sb.WriteString(heading("Counters"))
	c := m.report.Counters
	row("Processed:", fmt.Sprintf("%d", c.FilesProcessed))
	row("Archived:", fmt.Sprintf("%d", c.FilesArchived))
	row("Deleted:", fmt.Sprintf("%d", c.FilesDeleted))
	row("Failed:", fmt.Sprintf("%d", c.FilesFailed))
	row("Bytes:", fmt.Sprintf("%d", c.BytesProcessed))

	if !m.report.Consistent {
		sb.WriteString("\n" + statusFailStyle.Render("  ⚠ event log and metrics disagree on operation count") + "\n")
	}
	return sb.String()
}

func statusBadge(s audit.Status) string {
	switch {
	case s.Failure():
		return statusFailStyle.Render(fmt.Sprintf("%-7s", string(s)))
	case s == audit.StatusSkipped:
		return statusSkipStyle.Render(fmt.Sprintf("%-7s", string(s)))
	default:
		return statusOKStyle.Render(fmt.Sprintf("%-7s", string(s)))
	}
}

func (m *Model) renderOperations() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Operations (%d)", len(m.report.Operations))))
	if len(m.report.Operations) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, op := range m.report.Operations {
		ts := timeStyle.Render(op.Timestamp.Format("15:04:05"))
		sb.WriteString(fmt.Sprintf("  %s  %s  %-8s %s", ts, statusBadge(op.Status), op.Operation, op.File))
		if op.Size > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  (%d B)", op.Size)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderFailures() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Failures (%d)", len(m.report.Failures))))
	if len(m.report.Failures) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, op := range m.report.Failures {
		ts := timeStyle.Render(op.Timestamp.Format("15:04:05"))
		sb.WriteString(fmt.Sprintf("  %s  %s  %-8s %s\n", ts, statusBadge(op.Status), op.Operation, op.File))
	}
	return sb.String()
}

func (m *Model) renderTimeline() string {
	var sb strings.Builder

	dir := "oldest first"
	if !m.sortAsc {
		dir = "newest first"
	}
	sb.WriteString(heading(fmt.Sprintf("Timeline (%s)", dir)))

	ops := make([]audit.OpSummary, len(m.report.Operations))
	copy(ops, m.report.Operations)
	if m.sortAsc {
		sort.Slice(ops, func(i, j int) bool { return ops[i].Timestamp.Before(ops[j].Timestamp) })
	} else {
		sort.Slice(ops, func(i, j int) bool { return ops[i].Timestamp.After(ops[j].Timestamp) })
	}

	if len(ops) == 0 {
		sb.WriteString(dimStyle.Render("  (no operations in this session)") + "\n")
		return sb.String()
	}

	for _, op := range ops {
		ts := timeStyle.Render(op.Timestamp.Format("15:04:05"))
		sb.WriteString(ts + "  " + statusBadge(op.Status) + "  " + string(op.Operation) + "  " + op.File + "\n\n")
	}
	return sb.String()
}

// Run starts the TUI for the given report.
func Run(r *report.SessionReport, filename string) error {
	p := tea.NewProgram(New(r, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
