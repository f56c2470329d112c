package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/pkg/cache"
	"github.com/matzehuels/nodel/pkg/config"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
	"github.com/matzehuels/nodel/pkg/snapshot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file path; "-" writes to stdout
	format  string  // dot, svg or png; inferred from output when empty
	noCache bool    // bypass the render cache
	panX    float64 // viewport offset
	panY    float64
	scale   float64 // viewport zoom
}

// renderCommand renders a snapshot file with Graphviz.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: 1}

	cmd := &cobra.Command{
		Use:   "render <snapshot>",
		Short: "Render a snapshot to DOT, SVG, or PNG",
		Long: `Render draws the visible part of a snapshot: collapsed groups hide their
members, and edges into hidden nodes are dashed onto the group that hides them.

SVG and PNG output is cached by snapshot content and render settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or - for stdout (default <snapshot>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg (default), png")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the render cache")
	cmd.Flags().Float64Var(&opts.panX, "pan-x", 0, "horizontal viewport offset")
	cmd.Flags().Float64Var(&opts.panY, "pan-y", 0, "vertical viewport offset")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "viewport scale")

	return cmd
}

// resolveRenderTarget picks the format and output path for input.
func resolveRenderTarget(input string, opts renderOpts) (render.Format, string, error) {
	var (
		format render.Format
		err    error
	)
	switch {
	case opts.format != "":
		format, err = render.ParseFormat(opts.format)
	case opts.output != "" && opts.output != "-":
		format, err = render.FormatFromPath(opts.output)
	default:
		format = render.FormatSVG
	}
	if err != nil {
		return "", "", err
	}

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(format)
	}
	return format, output, nil
}

func (c *CLI) runRender(ctx context.Context, stdout, stderr io.Writer, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	format, output, err := resolveRenderTarget(input, opts)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	s, r, err := c.openDiagram(input)
	if err != nil {
		return err
	}
	r.Pan(opts.panX, opts.panY)
	r.SetScale(opts.scale)

	g := s.Graph()
	dot := r.ToDOT(g)

	out, cached, err := renderThroughCache(ctx, stderr, cfg.Cache, opts.noCache, s.Snapshot(), r, dot, format)
	if err != nil {
		return err
	}

	if output == "-" {
		_, err := stdout.Write(out)
		return err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	prog.done("Rendered " + filepath.Base(output))
	printSuccess(stdout, "Rendered %s", input)
	printStats(stdout, len(g.Visible()), len(g.Edges()), cached)
	printFile(stdout, output)
	return nil
}

// renderThroughCache renders dot, serving SVG and PNG from the configured
// cache when possible. Cache errors are logged and otherwise ignored. A
// spinner runs on progress while Graphviz works.
func renderThroughCache(ctx context.Context, progress io.Writer, cfg config.CacheConfig, noCache bool, snap nodel.Snapshot, r *nodelink.Renderer, dot string, format render.Format) ([]byte, bool, error) {
	if format == render.FormatDOT {
		return []byte(dot), false, nil
	}
	logger := loggerFromContext(ctx)

	c := cache.Cache(cache.NewNullCache())
	if !noCache {
		opened, err := cache.Open(ctx, cfg)
		if err != nil {
			logger.Warn("render cache unavailable", "err", err)
		} else {
			c = opened
		}
	}
	defer c.Close()

	hash, err := snapshot.Hash(snap)
	if err != nil {
		return nil, false, err
	}
	key := cache.NewDefaultKeyer().RenderKey(hash, cache.RenderKeyOpts{Format: string(format), ConfigHash: r.ConfigHash()})
	if data, hit, err := c.Get(ctx, key); err != nil {
		logger.Warn("render cache read failed", "err", err)
	} else if hit {
		logger.Debug("render cache hit", "format", format)
		return data, true, nil
	}

	spin := newSpinnerWithContext(ctx, progress, "Rendering "+string(format)+"...")
	spin.Start()
	out, err := nodelink.Render(ctx, dot, format)
	spin.Stop()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, out, cfg.TTL.Duration); err != nil {
		logger.Warn("render cache write failed", "err", err)
	}
	return out, false, nil
}
