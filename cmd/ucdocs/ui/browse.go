// Package ui implements the interactive annotation browser.
package ui

import (
	"fmt"
	"strings"

	"ucdocs/internal/index"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	focusStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// BrowseModel is the state of the annotation browser: a filterable list of
// indexed annotations beside a rendered detail pane.
type BrowseModel struct {
	width  int
	height int

	list     list.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	focusViewport bool
	selected      string
}

// entryItem adapts index.Entry to list.Item
type entryItem struct {
	entry *index.Entry
}

func (i entryItem) Title() string {
	if i.entry.Title != "" {
		return i.entry.Title
	}
	return i.entry.ID
}

func (i entryItem) Description() string {
	if len(i.entry.Parts) == 0 {
		return i.entry.Language
	}
	first := i.entry.Parts[0]
	if len(i.entry.Parts) > 1 {
		return fmt.Sprintf("[%s] %s (%d parts)", i.entry.Language, first.File, len(i.entry.Parts))
	}
	return fmt.Sprintf("[%s] %s:%d", i.entry.Language, first.File, first.StartLine)
}

func (i entryItem) FilterValue() string {
	return i.entry.ID + " " + i.entry.Title + " " + i.entry.Language
}

// NewBrowseModel creates the browser over a built index.
func NewBrowseModel(idx *index.Index) BrowseModel {
	items := make([]list.Item, 0, len(idx.Entries))
	for _, id := range idx.EntryIDs() {
		items = append(items, entryItem{entry: idx.Entries[id]})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Annotations"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	vp := viewport.New(0, 0)
	vp.SetContent("Select an annotation to view its code.")

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)

	return BrowseModel{
		list:     l,
		viewport: vp,
		renderer: renderer,
	}
}

// Init initializes the model.
func (m BrowseModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "tab":
				m.focusViewport = !m.focusViewport
				return m, nil
			}
		}
	}

	_, isKey := msg.(tea.KeyMsg)
	updateList := !isKey || !m.focusViewport || m.list.FilterState() == list.Filtering
	updateViewport := !isKey || (m.focusViewport && m.list.FilterState() != list.Filtering)

	if updateList {
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	if updateViewport {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if sel := m.list.SelectedItem(); sel != nil {
		item := sel.(entryItem)
		if m.selected != item.entry.ID {
			m.selected = item.entry.ID
			m.viewport.SetContent(m.renderEntry(item.entry))
			m.viewport.GotoTop()
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the split layout.
func (m BrowseModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	listW, vpW := m.paneWidths()

	listPane := borderStyle.Width(listW).Render(m.list.View())
	vpPane := borderStyle.Width(vpW).Render(m.viewport.View())
	if m.focusViewport {
		vpPane = focusStyle.Width(vpW).Render(m.viewport.View())
	} else {
		listPane = focusStyle.Width(listW).Render(m.list.View())
	}

	status := statusStyle.Render("tab: switch pane   /: filter   q: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, listPane, vpPane),
		status,
	)
}

func (m *BrowseModel) setSize(width, height int) {
	m.width = width
	m.height = height

	listW, vpW := m.paneWidths()
	paneH := height - 4 // borders plus status line

	m.list.SetSize(listW, paneH)
	m.viewport.Width = vpW
	m.viewport.Height = paneH
}

func (m BrowseModel) paneWidths() (int, int) {
	listW := m.width / 3
	if listW < 30 {
		listW = 30
	}
	vpW := m.width - listW - 4
	if vpW < 20 {
		vpW = 20
	}
	return listW, vpW
}

// renderEntry formats one annotation as markdown for the detail pane.
func (m BrowseModel) renderEntry(entry *index.Entry) string {
	var b strings.Builder

	title := entry.Title
	if title == "" {
		title = entry.ID
	}
	fmt.Fprintf(&b, "# %s\n", title)
	if entry.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", entry.Notes)
	}
	for _, part := range entry.Parts {
		fmt.Fprintf(&b, "\n`%s` lines %d-%d:\n", part.File, part.StartLine, part.EndLine)
		fmt.Fprintf(&b, "\n```%s\n%s\n```\n", part.Language, part.Code)
	}

	if m.renderer == nil {
		return b.String()
	}
	out, err := m.renderer.Render(b.String())
	if err != nil {
		return b.String()
	}
	return out
}
