// # cmd/codeindex/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// item is one row of the shard list: a single indexed file and its
// symbol count.
type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	app   *App
	list  list.Model
	stats Stats
}

func initialModel(app *App) model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Indexed Shards"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{app: app, list: l}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case tickMsg:
		m.stats = m.app.Stats()

		snapshot := m.app.Indexer.Aggregator.Snapshot()
		items := make([]list.Item, 0, len(snapshot))
		for path, slab := range snapshot {
			items = append(items, item{
				title: string(path),
				desc:  fmt.Sprintf("%d symbols, %d refs", len(slab.Symbols), len(slab.Refs)),
			})
		}
		m.list.SetItems(items)
		return m, tick()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d shards | %d symbols | %s index",
		m.stats.LastUpdate.Format("15:04:05"), m.stats.ShardCount, m.stats.SymbolCount, m.stats.IndexKind))
	summary := successStyle.Render("Watching for changes")

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Background Index Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}
