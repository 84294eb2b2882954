package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reviewdeck/internal/reviews"
)

type dashboardLayout struct {
	compact      bool
	bodyHeight   int
	tableWidth   int
	tableHeight  int
	detailWidth  int
	detailHeight int
	fieldWidth   int
}

// layout splits the terminal between the chrome, the page table, the detail
// pane and the configuration panel.
func (m Model) layout() dashboardLayout {
	chrome := 3 // header, tabs, footer
	if m.snapshot.Error != "" {
		chrome++
	}
	if m.snapshot.ConfigurationOpen {
		chrome += configPanelHeight
	}
	l := dashboardLayout{
		compact:    m.width < LayoutCompactWidth,
		bodyHeight: maxInt(m.height-chrome, 6),
		fieldWidth: maxInt(m.width/2-4, 10),
	}
	if l.compact {
		l.tableWidth = m.width
		l.detailWidth = m.width
		l.tableHeight = maxInt(l.bodyHeight/2, 3)
		l.detailHeight = maxInt(l.bodyHeight-l.tableHeight, 3)
	} else {
		l.tableWidth = m.width * 3 / 5
		l.detailWidth = m.width - l.tableWidth
		l.tableHeight = l.bodyHeight
		l.detailHeight = l.bodyHeight
	}
	return l
}

func (m *Model) resize() {
	l := m.layout()
	m.detail.Width = maxInt(l.detailWidth-4, 10)
	m.detail.Height = maxInt(l.detailHeight-2, 1)
	for i := range m.fields {
		m.fields[i].SetWidth(l.fieldWidth)
	}
	m.activity.Width = maxInt(m.width-2, 10)
	m.activity.Height = maxInt(m.height-4, 1)
	m.help.Width = m.width
	m.updateDetailViewport()
	m.updateActivityViewport()
}

func (m Model) renderDashboard() string {
	l := m.layout()
	styles := m.theme.Styles()

	rows := []string{m.renderHeader(), m.renderTabs()}
	if m.snapshot.Error != "" {
		rows = append(rows, lipgloss.NewStyle().Width(m.width).Render(
			styles.DangerText.Render("Error: "+truncate(m.snapshot.Error, m.width-8))))
	}

	table := styles.Pane.
		Width(maxInt(l.tableWidth-2, 1)).
		Height(maxInt(l.tableHeight-2, 1)).
		Render(m.renderPageTable(maxInt(l.tableWidth-4, 10), maxInt(l.tableHeight-2, 1)))

	detailView := m.detail
	detailView.Height = maxInt(l.detailHeight-2, 1)
	detail := styles.Pane.
		Width(maxInt(l.detailWidth-2, 1)).
		Height(maxInt(l.detailHeight-2, 1)).
		Padding(0, 1).
		Render(detailView.View())

	if l.compact {
		rows = append(rows, table, detail)
	} else {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, table, detail))
	}

	if m.snapshot.ConfigurationOpen {
		rows = append(rows, m.renderConfigPanel(l))
	}
	rows = append(rows, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{styles.Logo.Render("reviewdeck")}
	if m.apiBase != "" {
		parts = append(parts, styles.FaintText.Render(m.apiBase))
	}
	parts = append(parts, styles.MutedText.Render("sort: ")+styles.AccentText.Render(m.snapshot.SortOrder.Label()))

	switch {
	case m.snapshot.Loading:
		parts = append(parts, m.spinner.View()+styles.InfoText.Render(" syncing"))
	case m.snapshot.IsOffline():
		parts = append(parts, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.StatusColor("offline"))).
			Render(fmt.Sprintf("offline (%d failed fetches)", m.snapshot.ConsecutiveFailures)))
	case !m.snapshot.LastSynced.IsZero():
		parts = append(parts, styles.FaintText.Render("synced "+relativeAge(m.snapshot.LastSynced, m.now())))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Wikis) == 0 {
		return styles.MutedText.Render(" No wikis configured")
	}
	tabs := make([]string, 0, len(m.snapshot.Wikis))
	for _, w := range m.snapshot.Wikis {
		label := w.Label()
		if w.ID.Matches(m.snapshot.SelectedWikiID) {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m Model) renderPageTable(width, height int) string {
	styles := m.theme.Styles()
	pages := m.projection.VisiblePages

	switch {
	case m.projection.CurrentWiki == nil:
		return styles.MutedText.Render("No wiki selected.")
	case len(pages) == 0 && m.snapshot.Loading:
		return m.spinner.View() + styles.MutedText.Render(" Loading pending changes...")
	case len(pages) == 0:
		return styles.MutedText.Render("No pending changes.")
	}

	showEditor := m.width >= LayoutEditorWidth
	const idxW, ageW, revW = 3, 12, 5
	editorW := 0
	if showEditor {
		editorW = 16
	}
	titleW := maxInt(width-idxW-ageW-revW-editorW-4, 8)

	header := cell("#", idxW) + " " + cell("Title", titleW) + " " + cell("Pending", ageW) + " " + cell("Revs", revW)
	if showEditor {
		header += " " + cell("Last editor", editorW)
	}

	lines := []string{styles.AccentText.Bold(true).Render(header)}
	now := m.now()
	for i, p := range pages {
		row := cell(fmt.Sprintf("%d", i+1), idxW) + " " +
			cell(p.Title, titleW) + " " +
			cell(relativeAge(p.PendingTime(), now), ageW) + " " +
			cell(revisionCount(p), revW)
		if showEditor {
			row += " " + cell(lastEditor(p), editorW)
		}
		if i == m.selectedRow {
			lines = append(lines, styles.Selected.Render(padRight(row, width)))
		} else {
			lines = append(lines, styles.Text.Render(row))
		}
	}
	if m.projection.HasMorePages {
		lines = append(lines, styles.FaintText.Render(
			fmt.Sprintf("... %d more pending pages not shown", m.projection.HiddenPages)))
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func revisionCount(p reviews.Page) string {
	if p.RevisionsFailed {
		return "?"
	}
	return fmt.Sprintf("%d", len(p.Revisions))
}

func lastEditor(p reviews.Page) string {
	if len(p.Revisions) == 0 {
		return "-"
	}
	latest := p.Revisions[0]
	for _, r := range p.Revisions[1:] {
		if r.ParsedTimestamp().After(latest.ParsedTimestamp()) {
			latest = r
		}
	}
	if latest.UserName == "" {
		return "-"
	}
	return latest.UserName
}

func (m *Model) updateDetailViewport() {
	page, ok := m.selectedPage()
	if !ok {
		m.detail.SetContent(m.theme.Styles().MutedText.Render("Select a page to see its pending revisions."))
		return
	}
	m.detail.SetContent(m.renderPageDetail(page, maxInt(m.detail.Width, 20)))
}

func (m Model) renderPageDetail(p reviews.Page, width int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Width(width).Render(p.Title))
	b.WriteString("\n")
	meta := []string{fmt.Sprintf("page %d", p.PageID)}
	if p.StableRevID > 0 {
		meta = append(meta, fmt.Sprintf("stable r%d", p.StableRevID))
	}
	if since := p.PendingTime(); !since.IsZero() {
		meta = append(meta, "pending "+relativeAge(since, m.now()))
	}
	b.WriteString(styles.FaintText.Render(strings.Join(meta, " · ")))
	b.WriteString("\n\n")

	if p.RevisionsFailed {
		b.WriteString(styles.WarningText.Render("Revisions could not be loaded."))
		return b.String()
	}
	if len(p.Revisions) == 0 {
		b.WriteString(styles.MutedText.Render("No pending revisions."))
		return b.String()
	}

	for i, r := range p.Revisions {
		user := r.UserName
		if user == "" {
			user = "(unknown)"
		}
		line := styles.AccentText.Render(fmt.Sprintf("r%d", r.RevID)) + " " + styles.Text.Render(user)
		if ts := r.ParsedTimestamp(); !ts.IsZero() {
			line += styles.FaintText.Render(" · " + ts.Local().Format("2006-01-02 15:04"))
		}
		b.WriteString(line)
		b.WriteString("\n")

		if prof := r.EditorProfile; prof != nil {
			var flags []string
			if prof.IsBot {
				flags = append(flags, "bot")
			}
			if prof.IsAutopatrolled {
				flags = append(flags, "autopatrolled")
			}
			if prof.IsAutoreviewed {
				flags = append(flags, "autoreviewed")
			}
			if len(prof.Usergroups) > 0 {
				flags = append(flags, "groups: "+strings.Join(prof.Usergroups, ", "))
			}
			if len(flags) > 0 {
				b.WriteString(styles.MutedText.Width(width).Render("  " + strings.Join(flags, " · ")))
				b.WriteString("\n")
			}
			if prof.IsBlocked {
				b.WriteString(styles.DangerText.Render("  editor is blocked"))
				b.WriteString("\n")
			}
		}
		if c := strings.TrimSpace(r.Comment); c != "" {
			b.WriteString(styles.Text.Width(width).Render("  " + c))
			b.WriteString("\n")
		}
		if len(r.ChangeTags) > 0 {
			b.WriteString(styles.InfoText.Width(width).Render("  tags: " + strings.Join(r.ChangeTags, ", ")))
			b.WriteString("\n")
		}
		if len(r.Categories) > 0 {
			b.WriteString(styles.FaintText.Width(width).Render("  categories: " + strings.Join(r.Categories, ", ")))
			b.WriteString("\n")
		}
		if i < len(p.Revisions)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderConfigPanel(l dashboardLayout) string {
	styles := m.theme.Styles()
	title := "Configuration"
	if w := m.projection.CurrentWiki; w != nil {
		title += " · " + w.Label()
	}
	if m.editing {
		title += styles.WarningText.Render("  (editing, ctrl+s to save)")
	} else {
		title += styles.FaintText.Render("  (i to edit)")
	}

	field := func(label string, idx int) string {
		pane := styles.Pane
		if m.editing && m.fieldIdx == idx {
			pane = styles.FocusedPane
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.MutedText.Render(label),
			pane.Render(m.fields[idx].View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.AccentText.Bold(true).Render(title),
		lipgloss.JoinHorizontal(lipgloss.Top,
			field("Blocking categories", fieldBlocking),
			"  ",
			field("Auto-approved groups", fieldGroups),
		),
	)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	left := m.shortHelp()
	if m.status != "" {
		left = styles.WarningText.Render(m.status) + "  " + left
	}
	return styles.Footer.Width(m.width).Render(left)
}
