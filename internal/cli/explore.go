package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/treescope/treescope/pkg/scene"
	"github.com/treescope/treescope/pkg/tree"
)

// World pixels per terminal cell. Cells are roughly twice as tall as
// they are wide, so the vertical step is doubled to keep circles round.
const (
	cellW = 24.0
	cellH = 48.0
)

// exploreCommand creates the explore command: an interactive terminal
// viewer over the same controller the HTTP sessions use.
func (c *CLI) exploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [tree.json]",
		Short: "Explore the tree interactively in the terminal",
		Long: `Explore the tree interactively in the terminal.

The view starts with the root at the center and every cluster
collapsed. Move the crosshair onto a cluster marker and press enter to
expand it in place; zooming in far enough expands the cluster under the
crosshair automatically, and zooming out folds it back up.

Keys:
  arrows / hjkl   move the crosshair
  H J K L         pan the view
  enter / space   toggle the cluster under the crosshair
  + / -           zoom at the crosshair
  r               reset view and collapse everything
  q               quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			t, err := c.loadTree(input)
			if err != nil {
				return err
			}
			model := newExploreModel(t)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
	return cmd
}

// Explorer glyphs.
const (
	glyphNode    = "●"
	glyphCluster = "◎"
	glyphHovered = "◉"
	glyphCursor  = "+"
)

var (
	exploreNodeStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	exploreClusterStyle = lipgloss.NewStyle().Foreground(colorYellow)
	exploreExtinctStyle = lipgloss.NewStyle().Foreground(colorDim)
	exploreHoverStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	exploreCursorStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// exploreModel is the bubbletea model wrapping a scene controller. All
// events funnel through the controller; the model only translates
// between terminal cells and screen pixels.
type exploreModel struct {
	ctl  *scene.Controller
	cols int // grid width in cells
	rows int // grid height in cells
	curX int // crosshair cell
	curY int
}

func newExploreModel(t *tree.Tree) *exploreModel {
	m := &exploreModel{
		ctl:  scene.NewController(t),
		cols: 80,
		rows: 20,
	}
	m.centerView()
	return m
}

// centerView pans the world origin to the middle of the grid and parks
// the crosshair there.
func (m *exploreModel) centerView() {
	m.ctl.View().Reset()
	m.ctl.View().Pan(float64(m.cols)*cellW/2, float64(m.rows)*cellH/2)
	m.curX = m.cols / 2
	m.curY = m.rows / 2
}

// cellToScreen maps the center of a terminal cell to screen pixels.
func cellToScreen(cx, cy int) (float64, float64) {
	return float64(cx)*cellW + cellW/2, float64(cy)*cellH + cellH/2
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height - 4 // header + status lines
		if m.rows < 5 {
			m.rows = 5
		}
		m.centerView()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case "up", "k":
			m.moveCursor(0, -1)
		case "down", "j":
			m.moveCursor(0, 1)
		case "left", "h":
			m.moveCursor(-1, 0)
		case "right", "l":
			m.moveCursor(1, 0)

		case "K":
			m.ctl.View().Pan(0, cellH*2)
		case "J":
			m.ctl.View().Pan(0, -cellH*2)
		case "H":
			m.ctl.View().Pan(cellW*4, 0)
		case "L":
			m.ctl.View().Pan(-cellW*4, 0)

		case "enter", " ":
			if id := m.nodeAtCursor(); id != scene.NoNode {
				m.ctl.ToggleNode(id)
			}

		case "+", "=":
			sx, sy := cellToScreen(m.curX, m.curY)
			m.ctl.Wheel(1, sx, sy)
		case "-":
			sx, sy := cellToScreen(m.curX, m.curY)
			m.ctl.Wheel(-1, sx, sy)

		case "r":
			m.ctl.Reset()
			m.centerView()
		}

		m.syncPointer()
	}
	return m, nil
}

// nodeAtCursor returns the visible node drawn in the crosshair's cell.
// A terminal cell covers far more world area than a node's hit
// rectangle, so cell identity is the hit test here, not pixel distance.
func (m *exploreModel) nodeAtCursor() int {
	screenW := float64(m.cols) * cellW
	screenH := float64(m.rows) * cellH
	for _, id := range m.ctl.VisibleNodes(screenW, screenH, cellW*2) {
		p, ok := m.ctl.Position(id)
		if !ok {
			continue
		}
		sx, sy := m.ctl.View().WorldToScreen(p.X, p.Y)
		if int(sx/cellW) == m.curX && int(sy/cellH) == m.curY {
			return id
		}
	}
	return scene.NoNode
}

// syncPointer feeds the controller a pointer position matching the
// crosshair, snapped onto the exact node center when the crosshair's
// cell holds one so hover-directed zoom works at terminal resolution.
func (m *exploreModel) syncPointer() {
	if id := m.nodeAtCursor(); id != scene.NoNode {
		if p, ok := m.ctl.Position(id); ok {
			sx, sy := m.ctl.View().WorldToScreen(p.X, p.Y)
			m.ctl.PointerMoved(sx, sy)
			return
		}
	}
	sx, sy := cellToScreen(m.curX, m.curY)
	m.ctl.PointerMoved(sx, sy)
}

func (m *exploreModel) moveCursor(dx, dy int) {
	m.curX = clamp(m.curX+dx, 0, m.cols-1)
	m.curY = clamp(m.curY+dy, 0, m.rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m *exploreModel) View() string {
	grid := make([][]string, m.rows)
	for i := range grid {
		grid[i] = make([]string, m.cols)
		for j := range grid[i] {
			grid[i][j] = " "
		}
	}

	screenW := float64(m.cols) * cellW
	screenH := float64(m.rows) * cellH
	hovered := m.ctl.Hovered()

	for _, id := range m.ctl.VisibleNodes(screenW, screenH, cellW*2) {
		p, ok := m.ctl.Position(id)
		if !ok {
			continue
		}
		sx, sy := m.ctl.View().WorldToScreen(p.X, p.Y)
		cx, cy := int(sx/cellW), int(sy/cellH)
		if cx < 0 || cx >= m.cols || cy < 0 || cy >= m.rows {
			continue
		}
		grid[cy][cx] = m.renderNode(id, id == hovered)
	}

	if grid[m.curY][m.curX] == " " {
		grid[m.curY][m.curX] = exploreCursorStyle.Render(glyphCursor)
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("TreeScope"))
	b.WriteString(StyleDim.Render("  arrows move · enter toggle · +/- zoom · r reset · q quit"))
	b.WriteString("\n\n")
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())

	return b.String()
}

// renderNode picks the glyph and style for one visible node.
func (m *exploreModel) renderNode(id int, hovered bool) string {
	collapsed := m.ctl.Clusters().IsCluster(id) && !m.ctl.Clusters().IsExpanded(id)

	if hovered {
		return exploreHoverStyle.Render(glyphHovered)
	}
	if collapsed {
		return exploreClusterStyle.Render(glyphCluster)
	}
	if n, ok := m.ctl.Tree().Node(id); ok && n.Extinct {
		return exploreExtinctStyle.Render(glyphNode)
	}
	return exploreNodeStyle.Render(glyphNode)
}

func (m *exploreModel) statusLine() string {
	parts := []string{
		fmt.Sprintf("%d visible", m.ctl.VisibleCount()),
		fmt.Sprintf("zoom %.2f", m.ctl.View().Zoom()),
	}

	if id := m.ctl.Hovered(); id != scene.NoNode {
		if n, ok := m.ctl.Tree().Node(id); ok {
			label := n.Name
			if m.ctl.Clusters().IsCluster(id) && !m.ctl.Clusters().IsExpanded(id) {
				label = fmt.Sprintf("%s (+%d)", n.Name, m.ctl.Tree().DescendantCount(id))
			}
			parts = append(parts, StyleHighlight.Render(label))
		}
	}

	return StyleDim.Render(strings.Join(parts, " · "))
}
