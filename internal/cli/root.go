package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/buildinfo"
)

// Execute runs the nodel CLI with args and returns an error if any command
// fails. The logger starts at info level and switches to debug with
// --verbose (-v); commands find it on their context via loggerFromContext.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		return preRun(cmd, args)
	}

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// versionCommand prints the build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
