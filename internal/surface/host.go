package surface

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/render"
)

// PointerKind is the phase of a pointer or touch event.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerMove
	PointerRelease
)

func (k PointerKind) String() string {
	switch k {
	case PointerPress:
		return "press"
	case PointerMove:
		return "move"
	case PointerRelease:
		return "release"
	default:
		return fmt.Sprintf("pointer(%d)", int(k))
	}
}

// PointerEvent is a pointer or touch event in the surface's on-screen pixel
// space. Touch input sends the same sequence, with PointerMove carrying the
// position under the touch point.
type PointerEvent struct {
	Kind  PointerKind
	Point fretmap.Point
}

// Listener receives pointer events for one mounted drawing.
type Listener func(PointerEvent)

// Registration is the listener binding for one mounted drawing. Release is
// idempotent.
type Registration struct {
	host *Host
	id   uint64
}

// Release detaches the listener.
func (r *Registration) Release() {
	if r == nil || r.host == nil {
		return
	}
	r.host.release(r.id)
}

// Mounted is the result of mounting a drawing on a Host.
type Mounted struct {
	Layout Layout
	Output []byte
}

// Host owns the drawing surface and the listener attached to it. Every Mount
// releases the previous registration before acquiring a new one, so a
// pointer event is never delivered to a stale drawing.
//
// The Renderer is injected once at construction; nothing reaches for a
// global drawing library.
type Host struct {
	renderer Renderer
	logger   *slog.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	current   *Registration
	mounts    int
}

// NewHost returns a Host drawing with r. A nil logger uses slog.Default().
func NewHost(r Renderer, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{renderer: r, logger: logger, listeners: make(map[uint64]Listener)}
}

// Mount draws cfg/data and binds l to the new drawing, releasing whatever
// was bound before. If drawing fails the previous binding is still released
// and nothing is bound.
func (h *Host) Mount(cfg render.Config, data render.ChordData, l Listener) (Mounted, error) {
	h.mu.Lock()
	prev := h.current
	h.current = nil
	h.mu.Unlock()
	prev.Release()

	var buf bytes.Buffer
	layout, err := h.renderer.Render(&buf, cfg, data)
	if err != nil {
		return Mounted{}, fmt.Errorf("mount: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	reg := &Registration{host: h, id: h.nextID}
	if l != nil {
		h.listeners[reg.id] = l
	}
	h.current = reg
	h.mounts++
	h.logger.Debug("surface mounted", "registration", reg.id, "width", layout.Width, "height", layout.Height)
	return Mounted{Layout: layout, Output: buf.Bytes()}, nil
}

// Unmount releases the current binding.
func (h *Host) Unmount() {
	h.mu.Lock()
	prev := h.current
	h.current = nil
	h.mu.Unlock()
	prev.Release()
}

// Dispatch delivers ev to every bound listener and reports how many received
// it. With correct Mount/Unmount pairing this is at most one.
func (h *Host) Dispatch(ev PointerEvent) int {
	h.mu.Lock()
	ls := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		ls = append(ls, l)
	}
	h.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
	return len(ls)
}

// Active returns the number of bound listeners.
func (h *Host) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Mounts returns how many drawings have been mounted.
func (h *Host) Mounts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mounts
}

func (h *Host) release(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		h.logger.Debug("surface listener released", "registration", id)
	}
}
