// internal/tui/app.go
//
// This is the interactive browser for a secondbrain project. It uses
// bubbletea, which follows The Elm Architecture:
//
// 1. Model: the snapshot of the project plus what is focused
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string
//
// The left pane lists stale records, oldest first; the right pane lists the
// latest record of each entity.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/secondbrain/internal/activity"
	"github.com/kingrea/secondbrain/internal/brain"
	"github.com/kingrea/secondbrain/internal/freshness"
	"github.com/kingrea/secondbrain/internal/report"
)

type pane int

const (
	paneStale pane = iota
	paneRecent
)

// Loader reads a fresh snapshot of the project.
type Loader func() (*brain.Snapshot, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLoader overrides how the project is read.
func WithLoader(loader Loader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loader = loader
		}
	}
}

// WithClock overrides the time used to evaluate freshness.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

type snapshotMsg struct {
	snapshot *brain.Snapshot
	err      error
	at       time.Time
}

// staleItem implements list.Item for one stale record.
type staleItem struct{ item freshness.Item }

func (i staleItem) Title() string {
	if i.item.Title != "" {
		return fmt.Sprintf("%s · %s", i.item.ID, i.item.Title)
	}
	return i.item.ID
}

func (i staleItem) Description() string {
	parts := []string{i.item.Entity, fmt.Sprintf("%d days old", i.item.DaysOld)}
	if i.item.Status != "" {
		parts = append(parts, i.item.Status)
	}
	return strings.Join(parts, " · ")
}

func (i staleItem) FilterValue() string { return i.item.Entity + " " + i.item.ID + " " + i.item.Title }

// recentItem implements list.Item for one entity's latest record.
type recentItem struct{ summary activity.Summary }

func (i recentItem) Title() string       { return i.summary.Title }
func (i recentItem) Description() string { return fmt.Sprintf("%s · %s", i.summary.Singular, i.summary.Date) }
func (i recentItem) FilterValue() string { return i.summary.Title }

// App is the browser model. In bubbletea, this holds ALL your state.
type App struct {
	loader Loader
	now    func() time.Time

	snapshot *brain.Snapshot
	result   freshness.Result
	loadedAt time.Time
	err      error

	stale  list.Model
	recent list.Model
	focus  pane
	detail bool

	statusMsg string
	width     int
	height    int
}

// NewApp creates a browser for the project containing start.
func NewApp(start string, opts ...AppOption) *App {
	stale := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	stale.Title = "Stale"
	stale.SetShowStatusBar(false)
	stale.SetShowHelp(false)
	recent := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	recent.Title = "Recent"
	recent.SetShowStatusBar(false)
	recent.SetShowHelp(false)
	recent.SetFilteringEnabled(false)

	app := &App{
		loader:    func() (*brain.Snapshot, error) { return brain.Open(start) },
		now:       time.Now,
		stale:     stale,
		recent:    recent,
		focus:     paneStale,
		statusMsg: "Loading…",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.load()
}

func (a *App) load() tea.Cmd {
	loader, now := a.loader, a.now
	return func() tea.Msg {
		snap, err := loader()
		return snapshotMsg{snapshot: snap, err: err, at: now()}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case snapshotMsg:
		a.applySnapshot(msg)
		return a, nil

	case tea.KeyMsg:
		if a.focusedList().FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "r":
			a.statusMsg = "Reloading…"
			return a, a.load()
		case "tab":
			if a.focus == paneStale {
				a.focus = paneRecent
			} else {
				a.focus = paneStale
			}
			return a, nil
		case "enter":
			a.detail = !a.detail
			return a, nil
		case "esc":
			if a.detail {
				a.detail = false
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	if a.focus == paneStale {
		a.stale, cmd = a.stale.Update(msg)
	} else {
		a.recent, cmd = a.recent.Update(msg)
	}
	return a, cmd
}

func (a *App) focusedList() *list.Model {
	if a.focus == paneRecent {
		return &a.recent
	}
	return &a.stale
}

func (a *App) resize() {
	paneWidth := max(20, a.width/2-4)
	paneHeight := max(5, a.height-8)
	a.stale.SetSize(paneWidth, paneHeight)
	a.recent.SetSize(paneWidth, paneHeight)
}

func (a *App) applySnapshot(msg snapshotMsg) {
	a.err = msg.err
	a.loadedAt = msg.at
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Could not read project: %v", msg.err)
		return
	}
	a.snapshot = msg.snapshot
	a.result = msg.snapshot.Freshness(msg.at)

	staleItems := make([]list.Item, len(a.result.Items))
	for i, item := range a.result.Items {
		staleItems[i] = staleItem{item: item}
	}
	a.stale.SetItems(staleItems)

	recent := msg.snapshot.Recent()
	recentItems := make([]list.Item, len(recent))
	for i, summary := range recent {
		recentItems[i] = recentItem{summary: summary}
	}
	a.recent.SetItems(recentItems)

	a.statusMsg = fmt.Sprintf("%d stale · %d skipped · loaded %s",
		len(a.result.Items),
		len(a.result.Skipped)+len(msg.snapshot.ReadSkipped())+len(msg.snapshot.Config.Skipped),
		humanize.RelTime(msg.at, a.now(), "ago", "from now"),
	)
}

// View renders the browser.
func (a *App) View() string {
	title := "secondbrain"
	if a.snapshot != nil {
		title = a.snapshot.Config.ProjectName()
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("◆ " + strings.ToUpper(title))

	var body string
	switch {
	case a.err != nil:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render(a.err.Error())
	case a.detail:
		body = a.renderDetail()
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			a.renderPane(a.stale.View(), a.focus == paneStale),
			a.renderPane(a.recent.View(), a.focus == paneRecent),
		)
	}

	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg + "  ·  tab switch · enter details · r reload · q quit")
	return strings.Join([]string{header, body, footer}, "\n")
}

func (a *App) renderPane(content string, focused bool) string {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(content)
}

func (a *App) renderDetail() string {
	var lines []string
	switch a.focus {
	case paneStale:
		selected, ok := a.stale.SelectedItem().(staleItem)
		if !ok {
			return "Nothing selected."
		}
		item := selected.item
		lines = append(lines,
			report.ItemLine(item),
			"",
			fmt.Sprintf("Dated %s (%s)", item.Date, humanize.RelTime(a.dateOf(item), a.loadedAt, "ago", "from now")),
		)
	case paneRecent:
		selected, ok := a.recent.SelectedItem().(recentItem)
		if !ok {
			return "Nothing selected."
		}
		lines = append(lines, selected.summary.Line(), "", "Entity: "+selected.summary.Entity)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5B8DEF")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (a *App) dateOf(item freshness.Item) time.Time {
	return a.loadedAt.AddDate(0, 0, -item.DaysOld)
}
