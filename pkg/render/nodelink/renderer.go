package nodelink

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodel/pkg/cache"
	"github.com/matzehuels/nodel/pkg/config"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// Defaults used for relation types without a configured style.
const (
	DefaultConnectionColor = "#ad00d9"
	DefaultConnectionLabel = ""
)

// Viewport is the pan offset and zoom applied to node positions.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Renderer implements [nodel.Renderer] on top of a set of templates.
//
// Like the store it serves, a Renderer is not safe for concurrent use.
type Renderer struct {
	cfg       config.RenderConfig
	templates map[string]config.Template
	logger    *log.Logger
	view      Viewport

	last  string
	draws int
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger that receives template diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer for the templates and relation styles in cfg.
func New(cfg config.RenderConfig, opts ...Option) *Renderer {
	r := &Renderer{
		cfg:       cfg,
		templates: make(map[string]config.Template, len(cfg.Templates)),
		logger:    log.Default(),
		view:      Viewport{Scale: 1},
	}
	for _, t := range cfg.Templates {
		r.templates[t.Name] = t
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Verify reports whether the existence of template equals exists. Empty
// template names never verify.
func (r *Renderer) Verify(template string, exists bool) bool {
	if template == "" {
		r.logger.Error("empty template name")
		return false
	}
	if _, ok := r.templates[template]; ok != exists {
		if exists {
			r.logger.Error("couldn't find template", "template", template)
		} else {
			r.logger.Error("found template", "template", template)
		}
		return false
	}
	return true
}

// Draw converts the visible diagram to DOT and keeps it as the latest drawing.
func (r *Renderer) Draw(g nodel.Graph) {
	r.last = r.ToDOT(g)
	r.draws++
	r.logger.Debug("drew diagram", "visible", len(g.Visible()), "draws", r.draws)
}

// Last returns the DOT source of the latest draw, or "" before the first.
func (r *Renderer) Last() string { return r.last }

// Draws returns the number of draws received.
func (r *Renderer) Draws() int { return r.draws }

// Templates returns the configured template names in configuration order.
func (r *Renderer) Templates() []string {
	names := make([]string, 0, len(r.cfg.Templates))
	for _, t := range r.cfg.Templates {
		names = append(names, t.Name)
	}
	return names
}

// DefaultTemplate returns the template used when a caller names none.
func (r *Renderer) DefaultTemplate() string { return r.cfg.DefaultTemplate }

// =============================================================================
// Labels and relation styles
// =============================================================================

// Label fills the {key} placeholders of the node's template label. A
// collapsed group is labelled from its group fields, any other node from its
// data. Nodes whose template has no label are labelled with their id.
func (r *Renderer) Label(n *nodel.Node) string {
	t, ok := r.templates[n.Template]
	if !ok || t.Label == "" {
		return n.ID
	}
	label := t.Label
	for key, value := range labelVars(n) {
		label = strings.ReplaceAll(label, "{"+key+"}", value)
	}
	return label
}

func labelVars(n *nodel.Node) map[string]string {
	if n.IsCollapsedGroup(true) {
		return map[string]string{
			"name":      n.Group.Name,
			"collapsed": strconv.FormatBool(n.Group.Collapsed),
			"ends":      strings.Join(n.Group.Ends, ","),
		}
	}
	vars := make(map[string]string, n.Data.Len())
	for _, k := range n.Data.Keys() {
		vars[k] = n.Data.String(k)
	}
	return vars
}

// ConnectionColor returns the stroke colour for relType.
func (r *Renderer) ConnectionColor(relType string) string {
	if s, ok := r.cfg.Relations[relType]; ok && s.Color != "" {
		return s.Color
	}
	return DefaultConnectionColor
}

// ConnectionLabel returns the edge label for relType.
func (r *Renderer) ConnectionLabel(relType string) string {
	if s, ok := r.cfg.Relations[relType]; ok {
		return s.Label
	}
	return DefaultConnectionLabel
}

// =============================================================================
// Viewport
// =============================================================================

// Viewport returns the current pan and zoom.
func (r *Renderer) Viewport() Viewport { return r.view }

// Pan moves the view by (dx, dy).
func (r *Renderer) Pan(dx, dy float64) {
	r.view.X += dx
	r.view.Y += dy
}

// Recenter resets the pan offset.
func (r *Renderer) Recenter() { r.view.X, r.view.Y = 0, 0 }

// SetScale sets the zoom factor. Non-positive factors are ignored.
func (r *Renderer) SetScale(scale float64) {
	if scale > 0 {
		r.view.Scale = scale
	}
}

// AdjustScale changes the zoom factor by delta, keeping it positive.
func (r *Renderer) AdjustScale(delta float64) { r.SetScale(r.view.Scale + delta) }

// ResetScale restores a zoom factor of 1.
func (r *Renderer) ResetScale() { r.view.Scale = 1 }

// ConfigHash identifies everything besides the diagram that changes the
// rendered output. It is part of the render cache key.
func (r *Renderer) ConfigHash() string {
	data, err := json.Marshal(struct {
		Render config.RenderConfig `json:"render"`
		View   Viewport            `json:"view"`
	}{r.cfg, r.view})
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

var _ nodel.Renderer = (*Renderer)(nil)
