package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/editor"
	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/library"
	"github.com/roach88/chordkit/internal/surface"
	"github.com/roach88/chordkit/internal/testutil"
)

// offBoard is a point left of and above every drawing.
var offBoard = fretmap.Point{X: -10, Y: -10}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the editor and surface.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithLibrary sets the chord library autofill steps search.
func WithLibrary(lib *library.Library) Option {
	return func(h *Harness) { h.lib = lib }
}

// Harness runs scenarios. Each run gets a fresh session, surface host, clock
// and token generator.
type Harness struct {
	logger *slog.Logger
	lib    *library.Library
}

// New returns a Harness. Logging is discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	return New().Run(ctx, s)
}

// run is the per-scenario state.
type run struct {
	ctl    *editor.Controller
	host   *surface.Host
	result *Result
}

// Run executes the scenario. Step and expectation failures are reported in
// the result; the error is for scenarios that cannot start.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	start, err := s.initial()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: initial diagram: %w", s.Name, err)
	}

	lib := h.lib
	if lib == nil {
		if lib, err = library.Default(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	resolver := autofill.New(library.Source{Library: lib}, autofill.WithLogger(h.logger))

	host := surface.NewHost(surface.NewSVG(), h.logger)
	ctl := editor.NewController(editor.NewSession(start), host,
		editor.WithResolver(resolver),
		editor.WithSequencer(testutil.NewDeterministicClock()),
		editor.WithTokens(testutil.NewFixedTokens()),
		editor.WithLogger(h.logger),
	)
	if s.Viewport != nil {
		ctl.SetViewport(s.Viewport.Width, s.Viewport.Height)
	}
	if _, err := ctl.Refresh(); err != nil {
		return nil, fmt.Errorf("scenario %s: mount: %w", s.Name, err)
	}

	r := &run{ctl: ctl, host: host, result: NewResult()}
	for i, step := range s.Steps {
		changed, err := r.step(ctx, step)
		if err != nil {
			r.result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Action(), err))
		}
		if _, err := ctl.Refresh(); err != nil {
			r.result.AddError(fmt.Sprintf("step %d (%s): redraw: %v", i, step.Action(), err))
		}
		if n := host.Active(); n != 1 {
			r.result.AddError(fmt.Sprintf("step %d (%s): %d live listeners after redraw, want 1", i, step.Action(), n))
		}
		sess := ctl.Session()
		r.result.Trace = append(r.result.Trace, StepTrace{
			Index:    i,
			Action:   step.Action(),
			Changed:  changed,
			Revision: sess.Revision(),
			Grid:     sess.Grid().String(),
		})
	}

	r.result.Final = ctl.Session().Diagram()
	for _, msg := range checkExpect(s.Expect, ctl.Session()) {
		r.result.AddError(msg)
	}
	host.Unmount()
	return r.result, nil
}

func (r *run) step(ctx context.Context, st Step) (bool, error) {
	sess := r.ctl.Session()
	rev := sess.Revision()
	_, hadSpan := sess.Highlight()

	switch {
	case st.Mode != "":
		m, err := editor.ParseMode(st.Mode)
		if err != nil {
			return false, err
		}
		sess.SetMode(m)
	case st.Click != nil:
		p := r.point(*st.Click)
		r.dispatch(surface.PointerPress, p)
		r.dispatch(surface.PointerRelease, p)
	case st.Press != nil:
		r.dispatch(surface.PointerPress, r.point(*st.Press))
	case st.Move != nil:
		r.dispatch(surface.PointerMove, r.point(*st.Move))
	case st.Release != nil:
		r.dispatch(surface.PointerRelease, r.point(*st.Release))
	case st.Nut != 0:
		p := r.point(CellRef{String: st.Nut, Fret: 0})
		r.dispatch(surface.PointerPress, p)
		r.dispatch(surface.PointerRelease, p)
	case st.Key != "":
		sess.Key(st.Key)
	case st.Resize != nil:
		policy, err := diagram.ParseResizePolicy(st.Resize.Policy)
		if err != nil {
			return false, err
		}
		err = sess.Resize(st.Resize.Strings, st.Resize.Frets, policy)
		switch {
		case st.Resize.Rejected && err == nil:
			return sess.Revision() != rev, fmt.Errorf("resize to %dx%d was accepted, want rejected", st.Resize.Strings, st.Resize.Frets)
		case !st.Resize.Rejected && err != nil:
			return false, err
		}
	case st.Autofill != "":
		if _, err := r.ctl.Autofill(ctx, "", st.Autofill); err != nil {
			return false, err
		}
	case st.Undo:
		sess.Undo()
	case st.Redo:
		sess.Redo()
	}

	_, hasSpan := sess.Highlight()
	return sess.Revision() != rev || hadSpan != hasSpan, nil
}

// point converts a cell reference to an on-screen point for the current
// drawing.
func (r *run) point(c CellRef) fretmap.Point {
	if c.Off {
		return offBoard
	}
	return fretmap.Center(c.String, c.Fret, r.ctl.Geometry(), r.ctl.Margins())
}

func (r *run) dispatch(kind surface.PointerKind, p fretmap.Point) {
	if n := r.host.Dispatch(surface.PointerEvent{Kind: kind, Point: p}); n != 1 {
		r.result.AddError(fmt.Sprintf("%s delivered to %d listeners, want 1", kind, n))
	}
}
