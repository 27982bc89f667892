package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/secondbrain/internal/config"
	"github.com/kingrea/secondbrain/internal/freshness"
	"github.com/kingrea/secondbrain/internal/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	hotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Padding(0, 1)
	borderColor = lipgloss.Color("#444444")
)

// TerminalReport is the full freshness report shown by the CLI.
type TerminalReport struct {
	ProjectName string
	Result      freshness.Result
	// ReadSkipped are storage faults found while reading records.
	ReadSkipped []store.Skip
	// ConfigSkipped are entity definitions and config blocks left out.
	ConfigSkipped []config.SkippedEntity
	LastCheck     time.Time
	Now           time.Time
	// Limit bounds the rows in the table; zero shows every item.
	Limit int
}

// Render returns the styled report.
func (r TerminalReport) Render() string {
	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s · freshness", r.ProjectName)))

	if !r.LastCheck.IsZero() {
		sections = append(sections, mutedStyle.Render(
			"last automatic check "+humanize.RelTime(r.LastCheck, r.Now, "ago", "from now"),
		))
	}

	items := r.Result.Items
	if len(items) == 0 {
		sections = append(sections, okStyle.Render("Everything is fresh."))
	} else {
		sections = append(sections, warnStyle.Render(fmt.Sprintf("%d item(s) may need review", len(items))))
		shown := items
		if r.Limit > 0 && len(shown) > r.Limit {
			shown = shown[:r.Limit]
		}
		sections = append(sections, r.table(shown))
		if hidden := len(items) - len(shown); hidden > 0 {
			sections = append(sections, mutedStyle.Render(fmt.Sprintf("... and %d more", hidden)))
		}
	}

	if n := len(r.Result.Skipped); n > 0 {
		sections = append(sections, mutedStyle.Render(fmt.Sprintf("%d record(s) without a usable date were ignored", n)))
	}
	if len(r.ReadSkipped)+len(r.ConfigSkipped) > 0 {
		lines := []string{warnStyle.Render("Unreadable storage:")}
		for _, skip := range r.ConfigSkipped {
			lines = append(lines, mutedStyle.Render("  "+skip.String()))
		}
		for _, skip := range r.ReadSkipped {
			lines = append(lines, mutedStyle.Render("  "+skip.String()))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (r TerminalReport) table(items []freshness.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Entity,
			item.ID,
			item.Title,
			item.Status,
			item.Date,
			strconv.Itoa(item.DaysOld),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("ENTITY", "ID", "TITLE", "STATUS", "DATE", "AGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && row >= 0 && row < len(items) && items[row].DaysOld > 90 {
				return hotStyle.Padding(0, 1)
			}
			return cellStyle
		})
	return t.Render()
}
