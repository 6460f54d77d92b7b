package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/surface"
	"github.com/roach88/chordkit/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mounted returns a controller drawn on an SVG host and shown at half size.
func mounted(t *testing.T, d diagram.Diagram, opts ...ControllerOption) (*Controller, *surface.Host) {
	t.Helper()
	host := surface.NewHost(surface.NewSVG(), quietLogger())
	opts = append([]ControllerOption{WithLogger(quietLogger())}, opts...)
	c := NewController(NewSession(d), host, opts...)
	m, err := c.Refresh()
	require.NoError(t, err)
	c.SetViewport(m.Layout.Width/2, m.Layout.Height/2)
	return c, host
}

func point(c *Controller, s, fret int) fretmap.Point {
	return fretmap.Center(s, fret, c.Geometry(), c.Margins())
}

func TestController_MapUsesMountedLayout(t *testing.T) {
	c, _ := mounted(t, diagram.Empty())

	assert.Equal(t, surface.Layout{Width: 320, Height: 350, Left: 40, Right: 280, Top: 70, Bottom: 320}, c.Layout())
	assert.InDelta(t, 0.125, c.Margins().Horizontal, 1e-9)
	assert.Equal(t, fretmap.Cell(3, 2), c.Map(point(c, 3, 2)))
	assert.Equal(t, fretmap.Nut(6), c.Map(point(c, 6, 0)))
	assert.Equal(t, fretmap.Hit{}, c.Map(fretmap.Point{X: 5, Y: 100}))
}

func TestController_ClickThroughHost(t *testing.T) {
	var redraws int
	var c *Controller
	c, host := mounted(t, diagram.Empty(), WithOnChange(func() {
		redraws++
		_, err := c.Refresh()
		require.NoError(t, err)
	}))

	p := point(c, 3, 1)
	assert.Equal(t, 1, host.Dispatch(surface.PointerEvent{Kind: surface.PointerPress, Point: p}))
	assert.Equal(t, 1, host.Dispatch(surface.PointerEvent{Kind: surface.PointerRelease, Point: p}))

	assert.Equal(t, []diagram.Finger{{String: 3, Fret: 1}}, c.Session().Diagram().Fingers())
	assert.Equal(t, 1, redraws)
	assert.Equal(t, 1, host.Active(), "redraw keeps exactly one listener bound")
	assert.Equal(t, 2, host.Mounts())
}

func TestController_DragGesture(t *testing.T) {
	c, host := mounted(t, diagram.Empty())
	c.Session().SetMode(ModeBarres)

	send := func(kind surface.PointerKind, p fretmap.Point) bool {
		return c.Handle(surface.PointerEvent{Kind: kind, Point: p})
	}
	assert.False(t, send(surface.PointerPress, point(c, 2, 3)))
	assert.False(t, send(surface.PointerMove, point(c, 3, 3)), "two strings: nothing visible")
	assert.True(t, send(surface.PointerMove, point(c, 5, 3)))
	assert.True(t, send(surface.PointerRelease, fretmap.Point{X: -10, Y: -10}))

	assert.Equal(t, []diagram.Barre{{FromString: 5, ToString: 2, Fret: 3, Label: "1"}}, c.Session().Diagram().Barres())
	assert.Equal(t, 1, host.Active())
}

func TestController_UnmountedIsNoHit(t *testing.T) {
	c := NewController(NewSession(diagram.Empty()), nil, WithLogger(quietLogger()))
	assert.Equal(t, fretmap.Hit{}, c.Map(fretmap.Point{X: 10, Y: 10}))
	assert.False(t, c.Handle(surface.PointerEvent{Kind: surface.PointerPress, Point: fretmap.Point{X: 10, Y: 10}}))

	_, err := c.Refresh()
	assert.Error(t, err)
}

type stubResolver struct {
	byName map[string]diagram.Diagram
	err    error
}

func (r stubResolver) Resolve(_ context.Context, _ string, name string) (diagram.Diagram, error) {
	if r.err != nil {
		return diagram.Diagram{}, r.err
	}
	d, ok := r.byName[name]
	if !ok {
		return diagram.Diagram{}, errors.New("not found")
	}
	return d, nil
}

func autofillController(r Resolver) *Controller {
	start := diagram.Empty().WithHeader(diagram.Header{
		Title:              "draft",
		StartingFret:       1,
		Tuning:             diagram.DefaultTuning(6),
		SectionID:          "sec-1",
		SectionLabel:       "Verse",
		SectionRepeatCount: "2",
	})
	return NewController(NewSession(start), nil,
		WithResolver(r),
		WithSequencer(testutil.NewDeterministicClock()),
		WithTokens(testutil.NewFixedTokens("req-1", "req-2")),
		WithLogger(quietLogger()),
	)
}

func TestController_AutofillKeepsSection(t *testing.T) {
	c := autofillController(stubResolver{byName: map[string]diagram.Diagram{"Am": testutil.AMinor()}})

	changed, err := c.Autofill(context.Background(), "item-1", " Am ")
	require.NoError(t, err)
	require.True(t, changed)

	d := c.Session().Diagram()
	assert.Equal(t, "Am", d.Title)
	assert.Equal(t, "sec-1", d.SectionID)
	assert.Equal(t, "Verse", d.SectionLabel)
	assert.Equal(t, "2", d.SectionRepeatCount)
	assert.Equal(t, testutil.AMinor().Fingers(), d.Fingers())
	assert.False(t, c.Loading())
}

func TestController_AutofillSuperseded(t *testing.T) {
	c := autofillController(stubResolver{byName: map[string]diagram.Diagram{
		"Am": testutil.AMinor(),
		"F":  testutil.FMajor(),
	}})
	ctx := context.Background()

	first := c.BeginAutofill("item-1", "Am")
	second := c.BeginAutofill("item-1", "F")
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "req-2", second.Token)
	assert.True(t, c.Loading())

	assert.True(t, c.Apply(c.Lookup(ctx, second)))
	assert.False(t, c.Loading())
	assert.False(t, c.Apply(c.Lookup(ctx, first)), "older request arrives last and is dropped")
	assert.Equal(t, "F", c.Session().Diagram().Title)
}

func TestController_AutofillAfterEditIsDropped(t *testing.T) {
	c := autofillController(stubResolver{byName: map[string]diagram.Diagram{"Am": testutil.AMinor()}})

	req := c.BeginAutofill("item-1", "Am")
	c.Session().Hit(fretmap.Cell(1, 1))
	res := c.Lookup(context.Background(), req)

	assert.False(t, c.Apply(res))
	assert.False(t, c.Loading())
	assert.Equal(t, "draft", c.Session().Diagram().Title)
}

func TestController_AutofillFailureLeavesDiagram(t *testing.T) {
	c := autofillController(stubResolver{err: errors.New("backend down")})
	before := c.Session().Diagram()

	changed, err := c.Autofill(context.Background(), "item-1", "Am")
	assert.Error(t, err)
	assert.False(t, changed)
	assert.False(t, c.Loading())
	assert.True(t, diagram.Equal(before, c.Session().Diagram()))

	c = NewController(NewSession(diagram.Empty()), nil, WithLogger(quietLogger()))
	_, err = c.Autofill(context.Background(), "item-1", "Am")
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestClock(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
	assert.Equal(t, int64(42), c.Current())

	tok := UUIDv7Generator{}.Generate()
	assert.Len(t, tok, 36)
	assert.NotEqual(t, tok, UUIDv7Generator{}.Generate())
}
