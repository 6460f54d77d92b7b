package surface

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/render"
)

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer, render.Config, render.ChordData) (Layout, error) {
	return Layout{}, errors.New("not laid out")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHostRemountDeliversOnce(t *testing.T) {
	cfg, data := amChord(t)
	h := NewHost(&Text{}, quietLogger())

	var first, second int
	_, err := h.Mount(cfg, data, func(PointerEvent) { first++ })
	require.NoError(t, err)
	m, err := h.Mount(cfg, data, func(PointerEvent) { second++ })
	require.NoError(t, err)
	assert.NotEmpty(t, m.Output)
	assert.Equal(t, TextLayout(6, 5), m.Layout)

	n := h.Dispatch(PointerEvent{Kind: PointerPress, Point: fretmap.Point{X: 1, Y: 1}})
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, h.Active())
	assert.Equal(t, 2, h.Mounts())
}

func TestHostUnmount(t *testing.T) {
	cfg, data := amChord(t)
	h := NewHost(&Text{}, quietLogger())

	calls := 0
	_, err := h.Mount(cfg, data, func(PointerEvent) { calls++ })
	require.NoError(t, err)

	h.Unmount()
	h.Unmount()
	assert.Equal(t, 0, h.Dispatch(PointerEvent{Kind: PointerRelease}))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, h.Active())
}

func TestHostFailedMountReleasesPrevious(t *testing.T) {
	cfg, data := amChord(t)
	h := NewHost(failingRenderer{}, quietLogger())
	h.listeners[99] = func(PointerEvent) {}
	h.current = &Registration{host: h, id: 99}

	_, err := h.Mount(cfg, data, func(PointerEvent) {})
	require.Error(t, err)
	assert.Equal(t, 0, h.Active())
}

func TestRegistrationReleaseIdempotent(t *testing.T) {
	var r *Registration
	r.Release()
	(&Registration{}).Release()
}

func TestPointerKindString(t *testing.T) {
	assert.Equal(t, "press", PointerPress.String())
	assert.Equal(t, "move", PointerMove.String())
	assert.Equal(t, "release", PointerRelease.String())
}
