package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/editor"
	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/surface"
)

// The board is drawn below the header and a blank line, indented by two
// columns. Mouse positions are relative to the whole screen.
const (
	boardTop  = 2
	boardLeft = 2
)

// clipboardWrite is the system clipboard writer; tests replace it.
var clipboardWrite = clipboard.WriteAll

// Option configures a Model.
type Option func(*Model)

// WithItemID sets the item whose saved charts autofill searches first.
func WithItemID(id string) Option {
	return func(m *Model) { m.itemID = id }
}

// WithResolver enables chord-name lookup.
func WithResolver(r editor.Resolver) Option {
	return func(m *Model) { m.resolver = r }
}

// WithLogger sets the logger. It must not write to the terminal the editor
// runs in.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Target identifies what a save writes to. A zero ChartID means a new chart.
type Target struct {
	ChartID int64
}

// IsNew reports whether saving creates a chart rather than updating one.
func (t Target) IsNew() bool { return t.ChartID == 0 }

// WithTarget sets the chart the session edits.
func WithTarget(t Target) Option {
	return func(m *Model) { m.target = t }
}

// WithOnSave is called with the diagram and the edit target when the user
// saves. A returned error keeps the editor open and is shown in the status
// line.
func WithOnSave(fn func(diagram.Diagram, Target) error) Option {
	return func(m *Model) { m.onSave = fn }
}

// WithOnCancel is called when the user closes without saving.
func WithOnCancel(fn func()) Option {
	return func(m *Model) { m.onCancel = fn }
}

// WithClipboard replaces the clipboard writer used by the yank key.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.clip = fn }
}

// WithContext sets the context autofill lookups run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// autofillMsg carries a finished lookup back to the UI loop.
type autofillMsg struct {
	res editor.Result
}

// Model is the bubbletea model for one editing session.
type Model struct {
	ctx      context.Context
	ctl      *editor.Controller
	host     *surface.Host
	text     *surface.Text
	board    []string
	itemID   string
	target   Target
	resolver editor.Resolver
	logger   *slog.Logger
	onSave   func(diagram.Diagram, Target) error
	onCancel func()
	clip     func(string) error

	input    textinput.Model
	typing   bool
	spinner  spinner.Model
	latest   int64
	status   string
	failed   bool
	saved    bool
	quitting bool
}

// New returns a Model editing d.
func New(d diagram.Diagram, opts ...Option) *Model {
	m := &Model{
		ctx:    context.Background(),
		text:   &surface.Text{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clip:   clipboardWrite,
	}
	for _, opt := range opts {
		opt(m)
	}

	ti := textinput.New()
	ti.Placeholder = "chord name, e.g. Am7"
	ti.CharLimit = 32
	ti.Width = 24
	ti.Prompt = "/ "
	m.input = ti
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.host = surface.NewHost(m.text, m.logger)
	ctlOpts := []editor.ControllerOption{editor.WithLogger(m.logger)}
	if m.resolver != nil {
		ctlOpts = append(ctlOpts, editor.WithResolver(m.resolver))
	}
	m.ctl = editor.NewController(editor.NewSession(d), m.host, ctlOpts...)
	m.redraw()
	return m
}

// Diagram returns the diagram being edited.
func (m *Model) Diagram() diagram.Diagram { return m.ctl.Session().Diagram() }

// Target returns the chart the session edits.
func (m *Model) Target() Target { return m.target }

// Saved reports whether the session ended with a save.
func (m *Model) Saved() bool { return m.saved }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil
	case tea.KeyMsg:
		if m.typing {
			return m.typingKey(msg)
		}
		return m.key(msg)
	case autofillMsg:
		m.finishAutofill(msg.res)
		return m, nil
	case spinner.TickMsg:
		if !m.ctl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	var kind surface.PointerKind
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		kind = surface.PointerPress
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonLeft:
		kind = surface.PointerMove
	case msg.Action == tea.MouseActionRelease:
		kind = surface.PointerRelease
	default:
		return
	}
	// Aim at the middle of the terminal cell.
	p := fretmap.Point{X: float64(msg.X-boardLeft) + 0.5, Y: float64(msg.Y-boardTop) + 0.5}
	rev := m.ctl.Session().Revision()
	m.host.Dispatch(surface.PointerEvent{Kind: kind, Point: p})
	if m.ctl.Session().Revision() != rev {
		m.setStatus("")
	}
	m.redraw()
}

func (m *Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.ctl.Session()
	switch k := msg.String(); k {
	case "q", "ctrl+c":
		m.quitting = true
		if m.onCancel != nil {
			m.onCancel()
		}
		return m, tea.Quit
	case "ctrl+s":
		if m.onSave != nil {
			if err := m.onSave(sess.Diagram(), m.target); err != nil {
				m.setError(fmt.Sprintf("save failed: %v", err))
				return m, nil
			}
		}
		m.saved = true
		m.quitting = true
		return m, tea.Quit
	case "d":
		m.setMode(editor.ModeDots)
	case "f":
		m.setMode(editor.ModeFingers)
	case "b":
		m.setMode(editor.ModeBarres)
	case "u":
		if !sess.Undo() {
			m.setStatus("nothing to undo")
		}
	case "r":
		if !sess.Redo() {
			m.setStatus("nothing to redo")
		}
	case "y":
		data, err := sess.Diagram().MarshalJSON()
		if err == nil {
			err = m.clip(string(data))
		}
		if err != nil {
			m.setError(fmt.Sprintf("copy failed: %v", err))
		} else {
			m.setStatus("diagram JSON copied")
		}
	case "/":
		if m.resolver == nil {
			m.setError("chord lookup is not configured")
			return m, nil
		}
		if m.ctl.Loading() {
			m.setStatus("lookup in progress")
			return m, nil
		}
		m.typing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case "esc":
		sess.Key("esc")
		m.setStatus("")
	default:
		if sess.Key(k) {
			m.setStatus("")
		}
	}
	m.redraw()
	return m, nil
}

func (m *Model) typingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.typing = false
		m.input.Blur()
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			return m, nil
		}
		return m, tea.Batch(m.startAutofill(name), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startAutofill begins a lookup and returns the command that runs it off the
// UI loop. A newer lookup supersedes this one.
func (m *Model) startAutofill(name string) tea.Cmd {
	req := m.ctl.BeginAutofill(m.itemID, name)
	m.latest = req.Seq
	m.setStatus(fmt.Sprintf("looking up %s", req.Name))
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return autofillMsg{res: ctl.Lookup(ctx, req)}
	}
}

func (m *Model) finishAutofill(res editor.Result) {
	changed := m.ctl.Apply(res)
	switch {
	case res.Request.Seq != m.latest:
		return
	case res.Err != nil:
		m.setError(fmt.Sprintf("%s: %v", res.Request.Name, res.Err))
	case changed:
		m.setStatus(fmt.Sprintf("filled %s", res.Request.Name))
	default:
		m.setStatus(fmt.Sprintf("%s not applied", res.Request.Name))
	}
	m.redraw()
}

func (m *Model) setMode(mode editor.Mode) {
	m.ctl.Session().SetMode(mode)
	m.setStatus(mode.String() + " mode")
}

func (m *Model) setStatus(s string) { m.status, m.failed = s, false }
func (m *Model) setError(s string)  { m.status, m.failed = s, true }

// redraw remounts the board so the host's listener always belongs to what is
// on screen.
func (m *Model) redraw() {
	if span, ok := m.ctl.Session().Highlight(); ok {
		m.text.Highlight = &span
	} else {
		m.text.Highlight = nil
	}
	mounted, err := m.ctl.Refresh()
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.board = strings.Split(strings.TrimRight(string(mounted.Output), "\n"), "\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	d := m.ctl.Session().Diagram()
	title := d.Title
	if title == "" {
		title = "untitled"
	}
	header := []string{titleStyle.Render(title)}
	for _, mode := range []editor.Mode{editor.ModeDots, editor.ModeFingers, editor.ModeBarres} {
		style := modeStyle
		if mode == m.ctl.Session().Mode() {
			style = activeModeStyle
		}
		header = append(header, style.Render(mode.String()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n\n")

	pad := strings.Repeat(" ", boardLeft)
	for _, line := range m.board {
		b.WriteString(pad + boardStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.ctl.Loading():
		b.WriteString(m.spinner.View() + " " + statusStyle.Render(m.status))
	case m.failed:
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.typing {
		b.WriteString(m.input.View() + "\n")
	}
	b.WriteString(helpStyle.Render("d/f/b mode · 1-5 finger · u/r undo/redo · / lookup · y copy · ctrl+s save · q quit"))
	return b.String()
}

// Run shows the editor until the user saves or quits. It returns the final
// diagram and whether it was saved.
func Run(ctx context.Context, d diagram.Diagram, opts ...Option) (diagram.Diagram, bool, error) {
	m := New(d, append(opts, WithContext(ctx))...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return m.Diagram(), false, err
	}
	return m.Diagram(), m.Saved(), nil
}
