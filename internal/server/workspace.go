package server

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodel/pkg/config"
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
)

// Diagram is one open diagram and the renderer drawing it.
type Diagram struct {
	Name     string
	Store    *nodel.Store
	Renderer *nodelink.Renderer
}

// Workspace owns the open diagrams. All access goes through Do, which holds
// the workspace lock for the duration of the callback.
type Workspace struct {
	mu       sync.Mutex
	diagrams map[string]*Diagram
	render   config.RenderConfig
	logger   *log.Logger
	newID    func() string
}

// NewWorkspace creates an empty workspace whose diagrams use the templates
// in cfg.
func NewWorkspace(cfg config.RenderConfig, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Default()
	}
	return &Workspace{
		diagrams: make(map[string]*Diagram),
		render:   cfg,
		logger:   logger,
	}
}

// Do runs fn on the diagram called name, creating an empty one first if it
// is not open. fn must not retain d after returning.
func (w *Workspace) Do(name string, fn func(d *Diagram) error) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.diagrams[name]
	if !ok {
		d = w.newDiagram(name)
		w.diagrams[name] = d
	}
	return fn(d)
}

func (w *Workspace) newDiagram(name string) *Diagram {
	logger := w.logger.With("diagram", name)
	r := nodelink.New(w.render, nodelink.WithLogger(logger))
	opts := []nodel.Option{nodel.WithLogger(logger)}
	if w.newID != nil {
		opts = append(opts, nodel.WithIDGenerator(w.newID))
	}
	w.logger.Debug("opened diagram", "diagram", name)
	return &Diagram{Name: name, Store: nodel.NewStore(r, opts...), Renderer: r}
}

// Close drops the diagram called name. It reports whether it was open.
func (w *Workspace) Close(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.diagrams[name]
	delete(w.diagrams, name)
	return ok
}

// Names returns the open diagram names, sorted.
func (w *Workspace) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.diagrams))
	for name := range w.diagrams {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
