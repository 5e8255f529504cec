// Package tui implements the interactive plan board: a live checklist
// of the current session's tasks with keys to start and complete work
// without leaving the terminal.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/waymark-dev/waymark/internal/session"
	"github.com/waymark-dev/waymark/internal/track"
)

var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusPending    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	statusComplete   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusBlocked    = lipgloss.NewStyle().Faint(true)

	footerStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// taskItem implements list.Item for one checklist entry.
type taskItem struct {
	id     string
	desc   string
	status track.TaskStatus
	ready  bool
}

func (i taskItem) FilterValue() string { return i.id + " " + i.desc }
func (i taskItem) Title() string       { return fmt.Sprintf("%s: %s", i.id, i.desc) }
func (i taskItem) Description() string {
	switch i.status {
	case track.StatusComplete:
		return statusComplete.Render("● complete")
	case track.StatusInProgress:
		return statusInProgress.Render("● in progress")
	default:
		if i.ready {
			return statusPending.Render("● ready")
		}
		return statusBlocked.Render("● blocked")
	}
}

type keyMap struct {
	Start    key.Binding
	Complete key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the top-level bubbletea model for the board.
type Model struct {
	session *session.Session
	list    list.Model
	lastErr error
	width   int
	height  int
}

// New builds a board over an open session.
func New(s *session.Session) *Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Waymark"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = boardTitleStyle

	m := &Model{session: s, list: l}
	m.reload()
	return m
}

// reload rebuilds the list items from the session summary.
func (m *Model) reload() {
	sum := m.session.Status()
	ready := make(map[string]bool, len(sum.Ready))
	for _, id := range sum.Ready {
		ready[id] = true
	}
	items := make([]list.Item, 0, len(sum.Items))
	for _, it := range sum.Items {
		items = append(items, taskItem{
			id:     it.TaskID,
			desc:   it.Description,
			status: it.Status,
			ready:  ready[it.TaskID],
		})
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Waymark — %s (%d/%d)", sum.PlanName, sum.Done, sum.Total)
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		// Don't intercept keys while the list's filter input is active.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.lastErr = nil
			m.reload()
			return m, nil
		case key.Matches(msg, keys.Start):
			if it, ok := m.list.SelectedItem().(taskItem); ok {
				m.lastErr = m.session.Start(it.id)
				m.reload()
			}
			return m, nil
		case key.Matches(msg, keys.Complete):
			if it, ok := m.list.SelectedItem().(taskItem); ok {
				m.lastErr = m.session.Complete(it.id)
				m.reload()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	footer := footerStyle.Render("s start • c complete • r refresh • q quit")
	if m.lastErr != nil {
		footer = errorStyle.Render("Error: "+m.lastErr.Error()) + "  " + footer
	}
	return m.list.View() + "\n" + footer
}

// Run opens the board and blocks until the user quits.
func Run(s *session.Session) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
