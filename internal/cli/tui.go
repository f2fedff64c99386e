package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/render"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive graph browser
// =============================================================================

// graphLoadedMsg carries the result of a reload.
type graphLoadedMsg struct {
	graph graph.Graph
	err   error
}

// entityDeletedMsg carries the result of a delete.
type entityDeletedMsg struct {
	id string
	ok bool
}

// browseActions are the backend operations the browser can trigger.
type browseActions struct {
	reload func(ctx context.Context) (graph.Graph, error)
	delete func(ctx context.Context, id string) bool
}

// BrowseModel is the bubbletea model for browsing entities and their
// relationships.
type BrowseModel struct {
	ctx     context.Context
	actions browseActions

	Graph   graph.Graph
	Cursor  int
	Offset  int
	Height  int
	Status  string
	Confirm bool // waiting for a second "x" to delete
}

// NewBrowseModel creates a browser over g.
func NewBrowseModel(ctx context.Context, g graph.Graph, actions browseActions) BrowseModel {
	return BrowseModel{ctx: ctx, actions: actions, Graph: g, Height: 15}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key != "x" {
			m.Confirm = false
		}
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "r":
			m.Status = "reloading…"
			return m, m.reload()
		case "x":
			if len(m.Graph.Nodes) == 0 || m.actions.delete == nil {
				return m, nil
			}
			id := m.Graph.Nodes[m.Cursor].ID
			if !m.Confirm {
				m.Confirm = true
				m.Status = fmt.Sprintf("press x again to delete %s", id)
				return m, nil
			}
			m.Confirm = false
			m.Status = "deleting " + id + "…"
			return m, m.remove(id)
		}
	case graphLoadedMsg:
		if msg.err != nil {
			m.Status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.Graph = msg.graph
		m.clampCursor()
		m.Status = fmt.Sprintf("loaded %d entities", len(m.Graph.Nodes))
	case entityDeletedMsg:
		if !msg.ok {
			m.Status = "delete failed: " + msg.id
			return m, nil
		}
		m.Status = "deleted " + msg.id
		return m, m.reload()
	case tea.WindowSizeMsg:
		m.Height = msg.Height/2 - 4
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *BrowseModel) clampCursor() {
	if m.Cursor >= len(m.Graph.Nodes) {
		m.Cursor = max(len(m.Graph.Nodes)-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

func (m BrowseModel) reload() tea.Cmd {
	if m.actions.reload == nil {
		return nil
	}
	return func() tea.Msg {
		g, err := m.actions.reload(m.ctx)
		return graphLoadedMsg{graph: g, err: err}
	}
}

func (m BrowseModel) remove(id string) tea.Cmd {
	return func() tea.Msg {
		return entityDeletedMsg{id: id, ok: m.actions.delete(m.ctx, id)}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Knowledge Graph"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  r reload  x delete  q quit"))
	b.WriteString("\n\n")

	if len(m.Graph.Nodes) == 0 {
		b.WriteString(listDimStyle.Render("  (no entities)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Graph.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Graph.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, "●", e.ID, e.Name, e.Type})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "ID", "Name", "Type").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Graph.Nodes) {
				return lipgloss.NewStyle()
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorFor(m.Graph.Nodes[idx].Type)))
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Graph.Nodes))))
	b.WriteString("\n\n")
	b.WriteString(m.detail())

	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(m.Status))
		b.WriteString("\n")
	}
	return b.String()
}

// detail describes the entity under the cursor and its relationships.
func (m BrowseModel) detail() string {
	e := m.Graph.Nodes[m.Cursor]
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(e.Label()))
	if e.Description != "" {
		b.WriteString("  " + listDimStyle.Render(e.Description))
	}
	b.WriteString("\n")

	idx := m.Graph.Index()
	name := func(id string) string {
		if i, ok := idx[id]; ok {
			return m.Graph.Nodes[i].Label()
		}
		return styleBroken.Render(id + " (missing)")
	}
	n := 0
	for _, l := range m.Graph.Links {
		switch e.ID {
		case l.Source:
			fmt.Fprintf(&b, "  %s %s %s\n", iconArrow, StyleDim.Render(l.Type), name(l.Target))
		case l.Target:
			fmt.Fprintf(&b, "  %s %s %s\n", "←", StyleDim.Render(l.Type), name(l.Source))
		default:
			continue
		}
		n++
	}
	if n == 0 {
		b.WriteString(listDimStyle.Render("  no relationships"))
		b.WriteString("\n")
	}
	return b.String()
}
