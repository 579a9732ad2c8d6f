package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	canvasHiddenStyle = lipgloss.NewStyle().Foreground(colorDim)
	canvasGroupStyle  = lipgloss.NewStyle().Foreground(colorBlue)
)

const yawStep = math.Pi / 12

// =============================================================================
// WatchModel - Live simulation view
// =============================================================================

type tickMsg time.Time

type loadedMsg scene.Report

// WatchModel is the bubbletea model for `flowspace watch`. It owns the
// simulator: ticks and isolation toggles both run in Update.
type WatchModel struct {
	Scene *scene.Scene
	Sim   *physics.Simulator
	FPS   int

	Selected int // flowchart index in the scene snapshot
	Cursor   int // leaf index within the selected flowchart
	Yaw      float64
	Width    int
	Height   int
	Paused   bool

	report   *scene.Report
	reports  <-chan scene.Report
	tickTime time.Duration
	lastErr  error
}

// NewWatchModel creates a watch model. reports may be nil.
func NewWatchModel(sc *scene.Scene, sim *physics.Simulator, fps int, reports <-chan scene.Report) WatchModel {
	if fps <= 0 {
		fps = 30
	}
	return WatchModel{Scene: sc, Sim: sim, FPS: fps, Width: 80, Height: 24, reports: reports}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.FPS), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitReport(ch <-chan scene.Report) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return loadedMsg(r)
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), waitReport(m.reports))
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.Paused {
			started := time.Now()
			m.Sim.Tick(time.Time(msg), m.Scene.Snapshot())
			m.tickTime = time.Since(started)
		}
		return m, m.tick()
	case loadedMsg:
		r := scene.Report(msg)
		m.report = &r
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m WatchModel) key(k string) (tea.Model, tea.Cmd) {
	charts := m.Scene.Snapshot()
	switch k {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		if len(charts) > 0 {
			m.Selected = (m.Selected + 1) % len(charts)
			m.Cursor = 0
		}
	case "shift+tab":
		if len(charts) > 0 {
			m.Selected = (m.Selected + len(charts) - 1) % len(charts)
			m.Cursor = 0
		}
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if fc := m.current(charts); fc != nil && m.Cursor < len(fc.Leaves)-1 {
			m.Cursor++
		}
	case "enter", "i":
		if fc := m.current(charts); fc != nil && m.Cursor < len(fc.Leaves) {
			m.lastErr = fc.Isolate(fc.Leaves[m.Cursor].Vertex.ID)
		}
	case "a":
		if fc := m.current(charts); fc != nil {
			fc.ShowAll()
		}
	case "left", "h":
		m.Yaw -= yawStep
		m.Sim.SetView(yaw(m.Yaw))
	case "right", "l":
		m.Yaw += yawStep
		m.Sim.SetView(yaw(m.Yaw))
	case " ":
		m.Paused = !m.Paused
	}
	return m, nil
}

func (m WatchModel) current(charts []*flowchart.Flowchart) *flowchart.Flowchart {
	if m.Selected < 0 || m.Selected >= len(charts) {
		return nil
	}
	return charts[m.Selected]
}

func yaw(a float64) quat.Number {
	return quat.Number{Real: math.Cos(a / 2), Jmag: math.Sin(a / 2)}
}

func (m WatchModel) View() string {
	var b strings.Builder
	charts := m.Scene.Snapshot()

	status := fmt.Sprintf("tick %d · %s/tick", m.Sim.Ticks(), m.tickTime.Round(time.Microsecond))
	if m.Paused {
		status += " · paused"
	}
	b.WriteString(StyleTitle.Render("flowspace watch") + "  " + listDimStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab flowchart  ↑/↓ node  ⏎ isolate  a show all  ←/→ rotate  space pause  q quit"))
	b.WriteString("\n\n")

	if len(charts) == 0 {
		b.WriteString(listDimStyle.Render("  loading..."))
		return b.String()
	}
	b.WriteString(m.chartTable(charts))
	b.WriteString("\n")

	if fc := m.current(charts); fc != nil {
		h := max(m.Height-len(charts)-12, 6)
		b.WriteString(Canvas(fc, yaw(m.Yaw), m.Width-2, h, m.Cursor))
		b.WriteString("\n")
		if m.Cursor < len(fc.Leaves) {
			l := fc.Leaves[m.Cursor]
			b.WriteString(listSelectedStyle.Render("▸ "+l.Vertex.ID) + " " + listDimStyle.Render(l.Vertex.Text))
		}
	}
	if m.lastErr != nil {
		b.WriteString("\n" + StyleWarning.Render(m.lastErr.Error()))
	}
	if m.report != nil && len(m.report.Failures) > 0 {
		b.WriteString("\n" + StyleWarning.Render(fmt.Sprintf("%d blocks failed to load", len(m.report.Failures))))
	}
	return b.String()
}

func (m WatchModel) chartTable(charts []*flowchart.Flowchart) string {
	rows := make([][]string, 0, len(charts))
	for i, fc := range charts {
		cursor := "  "
		if i == m.Selected {
			cursor = "▸ "
		}
		isolated := fc.Isolated()
		if isolated == "" {
			isolated = "-"
		}
		rows = append(rows, []string{
			cursor,
			fc.Name,
			fmt.Sprint(fc.NodeCount()),
			fmt.Sprint(fc.SubgraphCount()),
			fmt.Sprint(fc.EdgeCount()),
			fmt.Sprintf("%.3f", physics.Energy(fc)),
			isolated,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Flowchart", "Nodes", "Groups", "Edges", "Energy", "Isolated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == m.Selected {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// =============================================================================
// Canvas
// =============================================================================

// Canvas projects a flowchart onto a w×h character grid seen through view.
// Leaves are drawn as the first letter of their id, subgraph centers as ◌,
// and hidden leaves as a dot. The leaf at cursor is highlighted.
func Canvas(fc *flowchart.Flowchart, view quat.Number, w, h, cursor int) string {
	if w < 4 || h < 2 {
		return ""
	}
	inv := quat.Inv(view)
	proj := make([]r3.Vec, len(fc.Bodies))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range fc.Bodies {
		if fc.Bodies[i].Kind == flowchart.KindRoot {
			continue
		}
		p := physics.Rotate(inv, fc.Bodies[i].Position)
		proj[i] = p
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	grid := make([][]string, h)
	for r := range grid {
		grid[r] = make([]string, w)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	if math.IsInf(minX, 1) {
		return joinGrid(grid)
	}

	// Preserve aspect: terminal cells are about twice as tall as wide.
	span := math.Max(math.Max(maxX-minX, (maxY-minY)*2), 1e-9)
	cell := func(p r3.Vec) (int, int) {
		col := int((p.X - minX) / span * float64(w-1))
		row := int((maxY - p.Y) * 2 / span * float64(h-1))
		return min(max(row, 0), h-1), min(max(col, 0), w-1)
	}

	for _, c := range fc.Containers[1:] {
		r, col := cell(proj[c.Body])
		grid[r][col] = canvasGroupStyle.Render("◌")
	}
	for i, l := range fc.Leaves {
		b := fc.Body(l.Body)
		r, col := cell(proj[l.Body])
		glyph := string([]rune(b.ID + "?")[0])
		switch {
		case i == cursor:
			grid[r][col] = listSelectedStyle.Render(glyph)
		case !b.Visible:
			grid[r][col] = canvasHiddenStyle.Render("·")
		default:
			grid[r][col] = glyph
		}
	}
	return joinGrid(grid)
}

func joinGrid(grid [][]string) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
