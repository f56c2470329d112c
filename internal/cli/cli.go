// Package cli implements the nodel command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/buildinfo"
	"github.com/matzehuels/nodel/pkg/config"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
	"github.com/matzehuels/nodel/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nodel"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Nodel edits diagrams of typed nodes and collapsible groups",
		Long:         `Nodel keeps diagrams of typed nodes, typed relations, and collapsible groups. It serves them over HTTP, renders them with Graphviz, and lets you browse them in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+config.EnvPath+" or "+defaultConfigHint()+")")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	path, required := config.Resolve(c.configPath)
	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", path, "storage", cfg.Storage.Backend, "cache", cfg.Cache.Backend)
	c.cfg = &cfg
	return cfg, nil
}

// openDiagram reads the snapshot at path into a store drawn by a renderer
// built from the render config.
func (c *CLI) openDiagram(path string) (*nodel.Store, *nodelink.Renderer, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	r := nodelink.New(cfg.Render, nodelink.WithLogger(c.Logger))
	s := nodel.NewStore(r, nodel.WithLogger(c.Logger))
	if err := s.Load(snap); err != nil {
		return nil, nil, err
	}
	return s, r, nil
}

func defaultConfigHint() string {
	if p, err := config.DefaultPath(); err == nil {
		return p
	}
	return "config.toml"
}

// =============================================================================
// Cache Helpers
// =============================================================================

// cacheDir returns the render cache directory ($XDG_CACHE_HOME/nodel or
// ~/.cache/nodel).
func cacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// renderCacheDir prefers the configured cache directory.
func renderCacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return config.ExpandHome(cfg.Dir), nil
	}
	return cacheDir()
}
