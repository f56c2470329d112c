package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
)

type inspectOpts struct {
	edges bool
}

// inspectCommand prints a summary and tables of a snapshot file.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Summarize the nodes, groups, and edges of a snapshot",
		Long: `Inspect loads a snapshot file (.json, .yaml) and prints its nodes with their
relations and group state. Use --edges to also list the drawn edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, r, err := c.openDiagram(args[0])
			if err != nil {
				return err
			}
			return writeInspect(cmd.OutOrStdout(), args[0], s, r, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.edges, "edges", false, "list visible edges")
	return cmd
}

func writeInspect(w io.Writer, path string, s *nodel.Store, r *nodelink.Renderer, opts inspectOpts) error {
	g := s.Graph()
	edges := g.Edges()

	fmt.Fprintln(w, StyleTitle.Render(path))
	printKeyValue(w, "Nodes", strconv.Itoa(s.Len()))
	printKeyValue(w, "Visible", strconv.Itoa(len(s.VisibleNodes())))
	printKeyValue(w, "Groups", strconv.Itoa(len(s.Groups())))
	printKeyValue(w, "Heads", joinIDs(s.Heads()))
	printKeyValue(w, "Leaves", joinIDs(s.Leaves()))
	printKeyValue(w, "Edges", strconv.Itoa(len(edges)))
	fmt.Fprintln(w)

	rows := make([][]string, 0, s.Len())
	for _, n := range s.Nodes() {
		rows = append(rows, []string{
			n.ID,
			n.Template,
			r.Label(n),
			fmt.Sprintf("%s,%s", nodel.FormatValue(n.X), nodel.FormatValue(n.Y)),
			formatRelations(n.Parents),
			formatRelations(n.Children),
			formatGroup(n),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Template", "Label", "Pos", "Parents", "Children", "Group"}, rows))

	if opts.edges && len(edges) > 0 {
		fmt.Fprintln(w)
		erows := make([][]string, 0, len(edges))
		for _, e := range edges {
			style := "solid"
			if e.Dashed {
				style = "dashed"
			}
			erows = append(erows, []string{e.From, e.To, e.Type, style})
		}
		fmt.Fprintln(w, renderTable([]string{"From", "To", "Type", "Style"}, erows))
	}
	return nil
}

func joinIDs(nodes []*nodel.Node) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return orDash(strings.Join(ids, ", "))
}

// formatRelations renders relations as "type:id id; type:id".
func formatRelations(r nodel.Relations) string {
	var parts []string
	for _, t := range r.Types() {
		ids := r.IDs(t)
		if len(ids) == 0 {
			continue
		}
		parts = append(parts, t+":"+strings.Join(ids, " "))
	}
	return orDash(strings.Join(parts, "; "))
}

func formatGroup(n *nodel.Node) string {
	if !n.IsGroup() {
		return orDash("")
	}
	state := "expanded"
	if n.Group.Collapsed {
		state = "collapsed"
	}
	return fmt.Sprintf("%s (%s, ends %s)", n.Group.Name, state, orDash(strings.Join(n.Group.Ends, " ")))
}
