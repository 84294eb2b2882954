package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reviewdeck/internal/reviews"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// autoreviewModal shows the dry-run verdicts for one page.
type autoreviewModal struct {
	page     reviews.Page
	result   reviews.AutoreviewResponse
	viewport viewport.Model
	sized    bool
}

func newAutoreviewModal(page reviews.Page, result reviews.AutoreviewResponse) *autoreviewModal {
	return &autoreviewModal{page: page, result: result}
}

func (m *autoreviewModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape), key.Matches(k, keys.Quit), k.Type == tea.KeyEnter:
			return m, nil, true
		case key.Matches(k, keys.Down):
			m.viewport.ScrollDown(1)
			return m, nil, false
		case key.Matches(k, keys.Up):
			m.viewport.ScrollUp(1)
			return m, nil, false
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd, false
}

func (m *autoreviewModal) View(theme Theme, width, height int) string {
	modalWidth := minInt(maxInt(width-10, 40), 100)
	modalHeight := maxInt(height-6, 8)
	innerWidth := modalWidth - 6
	if !m.sized || m.viewport.Width != innerWidth {
		m.viewport = viewport.New(innerWidth, modalHeight-4)
		m.sized = true
	}
	m.viewport.Height = modalHeight - 4
	m.viewport.SetContent(renderVerdicts(theme, m.page, m.result, innerWidth))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(m.viewport.View()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func renderVerdicts(theme Theme, page reviews.Page, result reviews.AutoreviewResponse, width int) string {
	styles := theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render(truncate(page.Title, width)))
	b.WriteString("\n")
	mode := result.Mode
	if mode == "" {
		mode = "dry-run"
	}
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("page %d · mode %s", page.PageID, mode)))
	b.WriteString("\n\n")

	if len(result.Results) == 0 {
		b.WriteString(styles.MutedText.Render("No pending revisions to evaluate."))
		return b.String()
	}

	for i, verdict := range result.Results {
		badge := lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Background)).
			Background(lipgloss.Color(theme.StatusColor(verdict.Decision.Status))).
			Padding(0, 1).
			Render(strings.ToUpper(verdict.Decision.Status))
		b.WriteString(fmt.Sprintf("%s %s\n", badge, styles.AccentText.Render(fmt.Sprintf("r%d", verdict.RevID))))
		if verdict.Decision.Label != "" {
			b.WriteString(styles.Text.Render(verdict.Decision.Label))
			b.WriteString("\n")
		}
		if verdict.Decision.Reason != "" {
			b.WriteString(styles.MutedText.Width(width).Render(verdict.Decision.Reason))
			b.WriteString("\n")
		}
		for _, check := range verdict.Tests {
			marker := "✗"
			if check.Status == "passed" {
				marker = "✓"
			}
			mark := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.StatusColor(check.Status))).Render(marker)
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", mark, check.Title, styles.MutedText.Render(check.Message)))
		}
		if i < len(result.Results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
