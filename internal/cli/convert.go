package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/snapshot"
)

// convertCommand rewrites a snapshot in the format implied by the output
// extension.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a snapshot between JSON and YAML",
		Example: `  nodel convert diagram.json diagram.yaml
  nodel convert fixture.yml fixture.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := snapshot.WriteFile(args[1], snap); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("snapshot converted", "in", args[0], "out", args[1], "nodes", len(snap))
			out := cmd.OutOrStdout()
			printSuccess(out, "Converted %d nodes", len(snap))
			printFile(out, args[1])
			return nil
		},
	}
}
