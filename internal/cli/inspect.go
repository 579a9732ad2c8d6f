package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/pipeline"
)

var (
	styleSubgraph  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleArchetype = lipgloss.NewStyle().Foreground(colorYellow)
	styleBranch    = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command, which prints the containment
// hierarchy of every flowchart in a document without simulating it.
func (c *CLI) inspectCommand() *cobra.Command {
	var edges bool

	cmd := &cobra.Command{
		Use:   "inspect <document>",
		Short: "Print the subgraph hierarchy of each flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions(args[0])
			sc, report, err := pipeline.Load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, fc := range sc.Snapshot() {
				writeHierarchy(out, fc, edges)
			}
			printFailures(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&edges, "edges", false, "list edges below each flowchart")
	return cmd
}

// writeHierarchy renders one flowchart as a tree rooted at its name.
func writeHierarchy(w io.Writer, fc *flowchart.Flowchart, edges bool) {
	name := fc.Name
	if name == "" {
		name = fmt.Sprintf("flowchart #%d", fc.Index)
	}
	t := subtree(fc, fc.Root()).
		Root(StyleTitle.Render(name)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styleBranch)
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d nodes · %d subgraphs · %d edges",
		fc.NodeCount(), fc.SubgraphCount(), fc.EdgeCount())))

	if edges {
		for i := range fc.Edges {
			fmt.Fprintln(w, "  "+edgeLine(fc, &fc.Edges[i]))
		}
	}
	fmt.Fprintln(w)
}

func subtree(fc *flowchart.Flowchart, c *flowchart.Container) *tree.Tree {
	t := tree.New()
	for _, id := range c.Children {
		b := fc.Body(id)
		if child, ok := fc.ContainerOf(id); ok {
			t.Child(subtree(fc, child).Root(subgraphLabel(child, b)))
			continue
		}
		t.Child(leafLabel(fc.Leaves[b.Ref]))
	}
	return t
}

func subgraphLabel(c *flowchart.Container, b *flowchart.Body) string {
	label := b.ID
	if c.Record != nil && c.Record.Title != "" && c.Record.Title != b.ID {
		label = fmt.Sprintf("%s (%s)", c.Record.Title, b.ID)
	}
	return styleSubgraph.Render(label)
}

func leafLabel(l flowchart.LeafNode) string {
	label := l.Vertex.ID
	if text := strings.TrimSpace(l.Vertex.Text); text != "" && text != l.Vertex.ID {
		label = fmt.Sprintf("%s %s", label, StyleDim.Render(text))
	}
	if l.Archetype.Name != "" {
		label += " " + styleArchetype.Render("["+l.Archetype.Name+"]")
	}
	return label
}

func edgeLine(fc *flowchart.Flowchart, e *flowchart.Edge) string {
	arrow := "──▶"
	switch {
	case e.Double():
		arrow = "◀─▶"
	case e.Record.Arrow == flowchart.ArrowOpen:
		arrow = "───"
	}
	if e.Record.Stroke == flowchart.StrokeDotted {
		arrow = strings.ReplaceAll(arrow, "─", "┄")
	}
	line := fmt.Sprintf("%s %s %s", fc.Body(e.A).ID, StyleDim.Render(arrow), fc.Body(e.B).ID)
	if e.Record.Text != "" {
		line += " " + StyleDim.Render(fmt.Sprintf("%q", e.Record.Text))
	}
	return line + StyleDim.Render(fmt.Sprintf("  rest %.1f", e.RestLength))
}
