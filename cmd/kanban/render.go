package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/chepyr/go-kanban/internal/state"
	"github.com/chepyr/go-kanban/shared/models"
)

const columnWidth = 34

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	columnStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1).
			Width(columnWidth)
)

var priorityColors = map[models.Priority]lipgloss.Color{
	models.PriorityLow:    lipgloss.Color("2"),
	models.PriorityMedium: lipgloss.Color("3"),
	models.PriorityHigh:   lipgloss.Color("1"),
}

func priorityStyle(p models.Priority) lipgloss.Style {
	style := lipgloss.NewStyle()
	if c, ok := priorityColors[p]; ok {
		style = style.Foreground(c)
	}
	return style
}

func priorityBadge(p models.Priority) string {
	return priorityStyle(p).Render("[" + string(p) + "]")
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func renderBoards(w io.Writer, boards []models.BoardSummary) {
	if len(boards) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No boards yet. Create one with `kanban boards create <name>`."))
		return
	}
	for _, b := range boards {
		fmt.Fprintf(w, "%s  %s  %s\n",
			mutedStyle.Render(shortID(b.ID)),
			headerStyle.Render(b.Name),
			mutedStyle.Render(fmt.Sprintf("%d lists, %d cards, updated %s",
				b.ListCount, b.CardCount, b.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	}
}

// renderBoard lays the lists out side by side, showing only the cards that
// pass the store's filters.
func renderBoard(w io.Writer, store *state.BoardStore) {
	board := store.Board()
	if board == nil {
		return
	}
	fmt.Fprintln(w, titleStyle.Render(board.Name)+"  "+mutedStyle.Render(shortID(board.ID)))
	if f := store.Filters(); f.Priority != "" || f.SearchQuery != "" {
		fmt.Fprintln(w, mutedStyle.Render(describeFilters(f)))
	}

	lists := store.Lists()
	if len(lists) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No lists yet. Add one with `kanban list add <title>`."))
		return
	}
	columns := make([]string, 0, len(lists))
	for _, l := range lists {
		columns = append(columns, renderColumn(l, store.VisibleCards(l.ID)))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

func renderColumn(l models.List, cards []models.Card) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(l.Title))
	b.WriteString(" " + mutedStyle.Render(shortID(l.ID)))
	for _, c := range cards {
		b.WriteString("\n")
		b.WriteString(priorityBadge(c.Priority) + " " + c.Title)
		b.WriteString("\n  " + mutedStyle.Render(shortID(c.ID)))
	}
	if len(cards) == 0 {
		b.WriteString("\n" + mutedStyle.Render("(empty)"))
	}
	return columnStyle.Render(b.String())
}

func describeFilters(f models.CardFilters) string {
	var parts []string
	if f.Priority != "" {
		parts = append(parts, "priority="+string(f.Priority))
	}
	if f.SearchQuery != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.SearchQuery))
	}
	return "filtered by " + strings.Join(parts, " ")
}

type markdownRenderer struct {
	term *glamour.TermRenderer
}

func newMarkdownRenderer() (*markdownRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &markdownRenderer{term: r}, nil
}

func (m *markdownRenderer) render(markdown string) string {
	out, err := m.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func renderCard(w io.Writer, md *markdownRenderer, list models.List, c models.Card) {
	fmt.Fprintln(w, titleStyle.Render(c.Title)+"  "+priorityBadge(c.Priority))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s in %s, updated %s",
		c.ID, list.Title, c.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	if strings.TrimSpace(c.Description) == "" {
		fmt.Fprintln(w, mutedStyle.Render("No description."))
		return
	}
	fmt.Fprint(w, md.render(c.Description))
}
