package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reviewdeck/internal/logtail"
)

// loadActivity reads the tail of the log file off the event loop.
func (m Model) loadActivity() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return activityMsg{}
		}
		lines, err := logtail.Read(path, LogBufferLimit)
		return activityMsg{lines: lines, err: err}
	}
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewActivity):
		m.currentView = viewDashboard
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.activity.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.activity.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.activity.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.activity.GotoBottom()
	case key.Matches(msg, m.keys.ScrollDown):
		m.activity.HalfPageDown()
	case key.Matches(msg, m.keys.ScrollUp):
		m.activity.HalfPageUp()
	}
	return m, nil
}

// updateActivityViewport re-renders the log lines, staying pinned to the
// bottom when the view was already there.
func (m *Model) updateActivityViewport() {
	follow := m.activity.AtBottom() || m.activity.TotalLineCount() == 0
	m.activity.SetContent(m.renderActivityLines())
	if follow {
		m.activity.GotoBottom()
	}
}

func (m Model) renderActivityLines() string {
	styles := m.theme.Styles()
	switch {
	case m.activityErr != "":
		return styles.DangerText.Render("Cannot read log: " + m.activityErr)
	case strings.TrimSpace(m.logPath) == "":
		return styles.MutedText.Render("Logging goes to stderr; no log file to show.")
	case len(m.activityLines) == 0:
		return styles.MutedText.Render("No activity yet.")
	}

	out := make([]string, 0, len(m.activityLines))
	for _, line := range m.activityLines {
		entry, ok := logtail.Parse(line)
		if !ok {
			out = append(out, styles.Text.Render(line))
			continue
		}
		color := lipgloss.Color(m.theme.LevelColor(entry.Level))
		out = append(out, lipgloss.NewStyle().Foreground(color).Render(entry.String()))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	title := styles.Logo.Render("reviewdeck") + "  " + styles.MutedText.Render("activity")
	if m.logPath != "" {
		title += "  " + styles.FaintText.Render(m.logPath)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Header.Width(m.width).Render(title),
		styles.Pane.Width(maxInt(m.width-2, 1)).Render(m.activity.View()),
		m.renderFooter(),
	)
}
