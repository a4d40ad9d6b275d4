// Package tui provides the interactive terminal editor through which the
// operator reassigns collected commits to target branches.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"backport.dev/backport/internal/engine"
	backporterrors "backport.dev/backport/internal/errors"
)

type editorKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Junior  key.Binding
	Senior  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Junior, k.Senior, k.Confirm, k.Cancel}
}

func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Junior, k.Senior},
		{k.Confirm, k.Cancel},
	}
}

var defaultEditorKeys = editorKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Junior: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "more junior"),
	),
	Senior: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "more senior"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c", "q", "esc"),
		key.WithHelp("q/esc", "abort"),
	),
}

type editorStyles struct {
	title  lipgloss.Style
	cursor lipgloss.Style
	sha    lipgloss.Style
	branch lipgloss.Style
	dim    lipgloss.Style
}

func newEditorStyles() editorStyles {
	return editorStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		cursor: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		sha:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		branch: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// editorModel is the bubbletea model for the commit reassignment editor. Each
// row shows one collected commit indented by its current target branch index;
// ←/→ move the commit across seniority levels.
type editorModel struct {
	branches  []string
	items     []engine.ItemView
	targets   []int
	cursor    int
	confirmed bool
	canceled  bool
	styles    editorStyles
	keys      editorKeyMap
	help      help.Model
}

func newEditorModel(view engine.EditView) editorModel {
	targets := make([]int, len(view.Items))
	for i, item := range view.Items {
		targets[i] = item.BranchIndex
	}
	return editorModel{
		branches: view.Branches,
		items:    view.Items,
		targets:  targets,
		styles:   newEditorStyles(),
		keys:     defaultEditorKeys,
		help:     help.New(),
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.canceled = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Junior):
			if m.targets[m.cursor] > 0 {
				m.targets[m.cursor]--
			}

		case key.Matches(msg, m.keys.Senior):
			if m.targets[m.cursor] < len(m.branches)-1 {
				m.targets[m.cursor]++
			}

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m editorModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Backport Commits"))
	b.WriteString("\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.cursor.Render("▸ ")
		}

		target := m.targets[i]
		b.WriteString(strings.Repeat(" ", target))
		b.WriteString(cursor)
		b.WriteString(m.styles.sha.Render(item.ShortSHA))
		b.WriteString(" ")
		b.WriteString(m.styles.branch.Render(m.branches[target]))
		b.WriteString(" ")
		b.WriteString(item.Subject)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

// reassignments returns the events for every item whose target differs from
// its collected branch index
func (m editorModel) reassignments() []engine.Reassignment {
	var events []engine.Reassignment
	for i, item := range m.items {
		if m.targets[i] != item.BranchIndex {
			events = append(events, engine.Reassignment{ItemIndex: i, BranchIndex: m.targets[i]})
		}
	}
	return events
}

// NewEditorModel creates a tea.Model for the reassignment editor
func NewEditorModel(view engine.EditView) tea.Model {
	return newEditorModel(view)
}

// Editor runs the interactive reassignment editor. It implements
// engine.Editor.
type Editor struct{}

// Edit implements engine.Editor by running the TUI and returning the
// operator's reassignment events. Aborting surfaces ErrEditAborted.
func (Editor) Edit(view engine.EditView) ([]engine.Reassignment, error) {
	m := newEditorModel(view)
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("editor failed: %w", err)
	}

	res := finalModel.(editorModel)
	if res.canceled {
		return nil, backporterrors.ErrEditAborted
	}

	return res.reassignments(), nil
}
