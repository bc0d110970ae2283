package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cfdrill/internal/model"
	"github.com/verte-zerg/cfdrill/internal/stats"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	timerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	detailKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardStyle      = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	confirmStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 2)

	badgeStyles = map[stats.Badge]lipgloss.Style{
		stats.BadgeAccepted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0B0B")).Background(lipgloss.Color("#52C41A")).Padding(0, 1),
		stats.BadgeAttempted: lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0B0B")).Background(lipgloss.Color("#FF4D4F")).Padding(0, 1),
		stats.BadgePending:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#4A4A4A")).Padding(0, 1),
	}
)

const (
	minTableHeight = 3
	maxTableHeight = model.MaxProblems + 1
)

func newProblemTable() table.Model {
	t := table.New(
		table.WithColumns(problemColumns()),
		table.WithHeight(minTableHeight),
		table.WithFocused(true),
	)
	t.SetStyles(problemTableStyles())
	return t
}

func problemColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 2},
		{Title: "Problem", Width: 30},
		{Title: "Id", Width: 8},
		{Title: "Rating", Width: 6},
		{Title: "Status", Width: 9},
		{Title: "Subs", Width: 4},
		{Title: "Tags", Width: 28},
	}
}

func problemTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func problemRows(session *model.ContestSession) []table.Row {
	if session == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(session.Problems))
	for _, p := range session.Problems {
		rating := "-"
		if p.Rating != nil {
			rating = strconv.Itoa(*p.Rating)
		}
		rows = append(rows, table.Row{
			p.Key,
			p.Title,
			p.ID(),
			rating,
			string(stats.ProblemBadge(p)),
			strconv.Itoa(len(p.Submissions)),
			strings.Join(p.Tags, ", "),
		})
	}
	return rows
}

func (m *Model) resizeTable() {
	height := m.height - 12
	height = max(minTableHeight, min(height, maxTableHeight))
	m.table.SetHeight(height)
	if m.width > 0 {
		m.table.SetWidth(m.width)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.loaded {
		return mutedStyle.Render("Loading contest state…")
	}
	var body string
	session := m.snap.Session
	switch {
	case session == nil || session.Status == model.StatusIdle:
		body = renderIdle()
	case stats.ShowResults(session):
		body = m.renderResults()
	default:
		body = m.renderRunning()
	}
	parts := []string{body}
	if m.errMsg != "" {
		parts = append(parts, errorStyle.Render("Error: "+m.errMsg))
	}
	if m.status != "" {
		parts = append(parts, mutedStyle.Render(m.status))
	}
	if m.confirmEnd {
		parts = append(parts, confirmStyle.Render("Abandon this contest without saving it to history? (y/n)"))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderIdle() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("No contest running."),
		mutedStyle.Render("Start one with: cfdrill start --duration 120 --problems 4"),
		"",
	)
}

func (m *Model) renderRunning() string {
	session := m.snap.Session
	remaining := session.Remaining(m.clock.Now())
	style := timerStyle
	if stats.IsWarning(remaining) {
		style = warningStyle
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Contest running  "),
		style.Render(stats.FormatCountdown(remaining)),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		renderDetails(session.Config),
		"",
		m.table.View(),
		renderBadges(session),
		"",
	)
}

func (m *Model) renderResults() string {
	session := m.snap.Session
	title := "Contest finished"
	if session.Status != model.StatusEnded {
		title = "All problems solved"
	}
	sum := stats.Summarize(session)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Total problems", strconv.Itoa(sum.Total)),
		metricCard("Solved", strconv.Itoa(sum.Solved)),
		metricCard("Total attempts", strconv.Itoa(sum.Attempts)),
		metricCard("Success rate", fmt.Sprintf("%d%%", sum.SuccessRate)),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		renderDetails(session.Config),
		cards,
		m.table.View(),
		renderBadges(session),
		mutedStyle.Render("Start a new one with: cfdrill start"),
		"",
	)
}

func renderDetails(cfg model.ContestConfig) string {
	segments := make([]string, 0, 4)
	for _, kv := range stats.Details(cfg) {
		if kv[1] == "" {
			continue
		}
		segments = append(segments, detailKeyStyle.Render(kv[0]+": ")+kv[1])
	}
	return strings.Join(segments, "  ")
}

func renderBadges(session *model.ContestSession) string {
	badges := make([]string, 0, len(session.Problems))
	for _, p := range session.Problems {
		badge := stats.ProblemBadge(p)
		badges = append(badges, p.Key+" "+badgeStyles[badge].Render(string(badge)))
	}
	return strings.Join(badges, "  ")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
