package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheDirFromConfig resolves the file cache directory.
func (c *CLI) cacheDirFromConfig() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return renderCacheDir(cfg.Cache)
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders from the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dir, err := c.cacheDirFromConfig()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(out, "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}

			printSuccess(out, "Cleared %d cached entries", count)
			printDetail(out, "Directory: %s", dir)
			if count > 0 {
				printNextStep(out, "Render again", "nodel render <snapshot>")
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDirFromConfig()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
