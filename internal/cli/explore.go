package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
	"github.com/matzehuels/nodel/pkg/snapshot"
)

// exploreCommand opens a snapshot in an interactive terminal view.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <snapshot>",
		Short: "Browse a snapshot and collapse or expand its groups",
		Long: `Explore lists the nodes of a snapshot in creation order.

Keys:
  ↑/k ↓/j   move
  space     collapse or expand the group under the cursor
  g         make the node under the cursor a group
  x         delete the node under the cursor
  s         save back to the snapshot file
  q         quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, r, err := c.openDiagram(path)
			if err != nil {
				return err
			}
			m := newExploreModel(s, r, func(snap nodel.Snapshot) error {
				return snapshot.WriteFile(path, snap)
			})
			m.title = path

			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if em, ok := final.(exploreModel); ok && em.dirty {
				printInfo(cmd.OutOrStdout(), "Quit with unsaved changes")
			}
			return nil
		},
	}
}

var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreHiddenStyle   = lipgloss.NewStyle().Foreground(colorDim)
	exploreGroupStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// exploreModel is the bubbletea model behind `nodel explore`. The store is
// shared between copies of the model; bubbletea runs Update on one
// goroutine.
type exploreModel struct {
	store    *nodel.Store
	renderer *nodelink.Renderer
	save     func(nodel.Snapshot) error

	title  string
	cursor int
	offset int
	height int
	dirty  bool
	status string
}

func newExploreModel(s *nodel.Store, r *nodelink.Renderer, save func(nodel.Snapshot) error) exploreModel {
	return exploreModel{store: s, renderer: r, save: save, height: 15}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

// current returns the node under the cursor, or nil for an empty diagram.
func (m exploreModel) current() *nodel.Node {
	nodes := m.store.Nodes()
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return nil
	}
	return nodes[m.cursor]
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case " ", "enter":
			m.toggle()
		case "g":
			m.group()
		case "x":
			m.remove()
		case "s":
			m.write()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *exploreModel) move(delta int) {
	n := m.store.Len()
	m.cursor = min(max(m.cursor+delta, 0), max(n-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *exploreModel) toggle() {
	n := m.current()
	if n == nil {
		return
	}
	if !n.IsGroup() {
		m.status = n.ID + " is not a group (press g to create one)"
		return
	}
	m.apply(m.store.ToggleGroup(n.ID), func() string {
		if n.Group.Collapsed {
			return "collapsed " + n.Group.Name
		}
		return "expanded " + n.Group.Name
	})
}

func (m *exploreModel) group() {
	n := m.current()
	if n == nil {
		return
	}
	name := n.Data.String("name")
	if name == "" {
		name = n.ID
	}
	name += " group"
	m.apply(m.store.CreateGroup(n.ID, name), func() string {
		return fmt.Sprintf("created %s with %d ends", name, len(n.Group.Ends))
	})
}

func (m *exploreModel) remove() {
	n := m.current()
	if n == nil {
		return
	}
	id := n.ID
	m.apply(m.store.DeleteNode(id), func() string { return "deleted " + id })
	m.move(0)
}

func (m *exploreModel) write() {
	if err := m.save(m.store.Snapshot()); err != nil {
		m.status = "save failed: " + err.Error()
		return
	}
	m.dirty = false
	m.status = "saved"
}

// apply records the outcome of a mutation in the status line.
func (m *exploreModel) apply(err error, ok func() string) {
	if err != nil {
		m.status = nerrors.UserMessage(err)
		return
	}
	m.dirty = true
	m.status = ok()
}

func (m exploreModel) View() string {
	var b strings.Builder

	title := m.title
	if title == "" {
		title = "diagram"
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  space collapse/expand  g group  x delete  s save  q quit"))
	b.WriteString("\n\n")

	nodes := m.store.Nodes()
	if len(nodes) == 0 {
		b.WriteString(StyleDim.Render("  (no nodes)"))
		b.WriteString("\n")
		return b.String()
	}

	g := m.store.Graph()
	visible := make(map[string]bool)
	for _, n := range g.Visible() {
		visible[n.ID] = true
	}

	end := min(m.offset+m.height, len(nodes))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, n.ID, m.renderer.Label(n), n.Template, groupMarker(n), formatRelations(n.Children)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Label", "Template", "Group", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.offset + row
			if idx >= len(nodes) {
				return lipgloss.NewStyle()
			}
			n := nodes[idx]
			switch {
			case idx == m.cursor:
				return exploreSelectedStyle
			case !visible[n.ID]:
				return exploreHiddenStyle
			case n.IsGroup() && col == 4:
				return exploreGroupStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d] %d visible", m.cursor+1, len(nodes), len(visible))))
	if m.status != "" {
		b.WriteString("\n  ")
		b.WriteString(StyleHighlight.Render(m.status))
	}
	return b.String()
}

func groupMarker(n *nodel.Node) string {
	switch {
	case !n.IsGroup():
		return ""
	case n.Group.Collapsed:
		return "▸ " + n.Group.Name
	default:
		return "▾ " + n.Group.Name
	}
}
