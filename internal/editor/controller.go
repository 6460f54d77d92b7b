package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/render"
	"github.com/roach88/chordkit/internal/surface"
)

// ErrNoResolver is returned by Lookup when the controller has no resolver.
var ErrNoResolver = errors.New("editor: no autofill resolver configured")

// Resolver finds a diagram for a chord name within an item.
type Resolver interface {
	Resolve(ctx context.Context, itemID, name string) (diagram.Diagram, error)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithResolver sets the autofill resolver.
func WithResolver(r Resolver) ControllerOption {
	return func(c *Controller) { c.resolver = r }
}

// WithSequencer replaces the logical clock used to order autofill requests.
func WithSequencer(s Sequencer) ControllerOption {
	return func(c *Controller) { c.seq = s }
}

// WithTokens replaces the request token generator.
func WithTokens(g TokenGenerator) ControllerOption {
	return func(c *Controller) { c.tokens = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithMargins fixes the mapper margins instead of deriving them from the
// mounted layout.
func WithMargins(m fretmap.Margins) ControllerOption {
	return func(c *Controller) { c.margins = &m }
}

// WithStyle sets the style passed to the render surface.
func WithStyle(st render.Style) ControllerOption {
	return func(c *Controller) { c.style = st }
}

// WithOnChange registers fn to run after a pointer event changes what is on
// screen.
func WithOnChange(fn func()) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

// Request identifies one autofill lookup.
type Request struct {
	Seq    int64
	Token  string
	ItemID string
	Name   string

	revision int64
}

// Result is the outcome of Lookup.
type Result struct {
	Request Request
	Diagram diagram.Diagram
	Err     error
}

// Controller routes pointer input and autofill results into a Session.
type Controller struct {
	session *Session
	host    *surface.Host
	style   render.Style

	layout       surface.Layout
	margins      *fretmap.Margins
	viewW, viewH float64

	resolver Resolver
	seq      Sequencer
	tokens   TokenGenerator
	logger   *slog.Logger
	onChange func()

	pending int64
}

// NewController wraps session. host may be nil when the caller supplies the
// layout itself through SetLayout.
func NewController(session *Session, host *surface.Host, opts ...ControllerOption) *Controller {
	c := &Controller{
		session: session,
		host:    host,
		style:   render.DefaultStyle,
		seq:     NewClock(),
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session being driven.
func (c *Controller) Session() *Session { return c.session }

// Refresh redraws the current diagram on the host. The previous drawing's
// listener is released before the new one is bound.
func (c *Controller) Refresh() (surface.Mounted, error) {
	if c.host == nil {
		return surface.Mounted{}, errors.New("editor: no surface host")
	}
	d := c.session.Diagram()
	m, err := c.host.Mount(render.ConfigFor(d, c.style), render.ToChordData(d), c.listen)
	if err != nil {
		c.logger.Warn("redraw failed", "error", err)
		return surface.Mounted{}, err
	}
	c.layout = m.Layout
	return m, nil
}

// SetLayout records the layout of the drawing pointer events refer to.
func (c *Controller) SetLayout(l surface.Layout) { c.layout = l }

// Layout returns the layout of the current drawing.
func (c *Controller) Layout() surface.Layout { return c.layout }

// SetViewport sets the on-screen size of the drawing. Zero means the drawing
// is shown at its intrinsic size.
func (c *Controller) SetViewport(width, height float64) {
	c.viewW, c.viewH = width, height
}

// Geometry returns the mapper geometry for the current drawing and viewport.
func (c *Controller) Geometry() fretmap.Geometry {
	w, h := c.viewW, c.viewH
	if w == 0 {
		w = c.layout.Width
	}
	if h == 0 {
		h = c.layout.Height
	}
	d := c.session.Diagram()
	return c.layout.Geometry(w, h, d.NumStrings(), d.NumFrets())
}

// Margins returns the mapper margins in use.
func (c *Controller) Margins() fretmap.Margins {
	if c.margins != nil {
		return *c.margins
	}
	return c.layout.Margins()
}

// Map converts an on-screen point to a board hit.
func (c *Controller) Map(p fretmap.Point) fretmap.Hit {
	return fretmap.Map(p, c.Geometry(), c.Margins())
}

// Handle applies one pointer event and reports whether the diagram or the
// drag highlight changed.
func (c *Controller) Handle(ev surface.PointerEvent) bool {
	s := c.session
	rev := s.Revision()
	before, hadSpan := s.Highlight()
	hit := c.Map(ev.Point)

	switch ev.Kind {
	case surface.PointerPress:
		s.Press(hit)
	case surface.PointerMove:
		s.Motion(hit)
	case surface.PointerRelease:
		s.Release(hit)
	}

	after, hasSpan := s.Highlight()
	changed := s.Revision() != rev || hadSpan != hasSpan || before != after
	if changed {
		c.logger.Debug("pointer applied", "kind", ev.Kind.String(), "hit", hit.Kind.String(), "string", hit.String, "fret", hit.Fret)
	}
	return changed
}

func (c *Controller) listen(ev surface.PointerEvent) {
	if c.Handle(ev) && c.onChange != nil {
		c.onChange()
	}
}

// Loading reports whether an autofill lookup is in flight.
func (c *Controller) Loading() bool { return c.pending != 0 }

// BeginAutofill starts a lookup for name and makes it the latest request.
// Any earlier request still in flight becomes stale.
func (c *Controller) BeginAutofill(itemID, name string) Request {
	req := Request{
		Seq:      c.seq.Next(),
		Token:    c.tokens.Generate(),
		ItemID:   itemID,
		Name:     strings.TrimSpace(name),
		revision: c.session.Revision(),
	}
	c.pending = req.Seq
	c.logger.Debug("autofill started", "token", req.Token, "seq", req.Seq, "item_id", itemID, "name", req.Name)
	return req
}

// Lookup runs the resolver for req. It does not touch the session, so it may
// run on another goroutine while editing continues.
func (c *Controller) Lookup(ctx context.Context, req Request) Result {
	if c.resolver == nil {
		return Result{Request: req, Err: ErrNoResolver}
	}
	d, err := c.resolver.Resolve(ctx, req.ItemID, req.Name)
	return Result{Request: req, Diagram: d, Err: err}
}

// Apply installs a lookup result. Results from a superseded request, results
// that arrive after the diagram was edited, and failed lookups leave the
// diagram untouched. The section metadata of the diagram being edited is
// kept. It reports whether the diagram changed.
func (c *Controller) Apply(res Result) bool {
	req := res.Request
	log := c.logger.With("token", req.Token, "seq", req.Seq, "name", req.Name)
	if req.Seq != c.pending {
		log.Debug("autofill result dropped", "reason", "superseded")
		return false
	}
	c.pending = 0
	if res.Err != nil {
		log.Info("autofill failed", "error", res.Err)
		return false
	}
	if c.session.Revision() != req.revision {
		log.Debug("autofill result dropped", "reason", "edited")
		return false
	}

	cur := c.session.Diagram().Header
	h := res.Diagram.Header
	h.SectionID = cur.SectionID
	h.SectionLabel = cur.SectionLabel
	h.SectionRepeatCount = cur.SectionRepeatCount
	changed := c.session.Replace(res.Diagram.WithHeader(h))
	log.Debug("autofill applied", "changed", changed)
	return changed
}

// Autofill runs a lookup synchronously and applies it.
func (c *Controller) Autofill(ctx context.Context, itemID, name string) (bool, error) {
	res := c.Lookup(ctx, c.BeginAutofill(itemID, name))
	return c.Apply(res), res.Err
}
