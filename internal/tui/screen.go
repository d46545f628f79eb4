package tui

import (
	"context"
	"fmt"
	"log/slog"

	"tempo-cli/internal/config"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScreenID identifies one pushed screen for the lifetime of the program.
type ScreenID int

// Env is what the navigator hands to every screen it builds.
type Env struct {
	ID       ScreenID
	Ctx      context.Context
	Close    func()
	OnTop    func() bool
	InFlight func() int
	Spinner  func() string
	Today    func() model.Date

	Gateway *gateway.Gateway
	Tempo   gateway.TempoAPI
	Jira    gateway.JiraAPI
	Config  config.Config
	Log     *slog.Logger
}

// Envelope addresses a message to one screen. The navigator drops envelopes whose
// screen is no longer on the stack.
type Envelope struct {
	To  ScreenID
	Msg tea.Msg
}

// deliver wraps the messages built by wrap into an Envelope for id.
func deliver[T any](id ScreenID, wrap func(gateway.Result[T]) tea.Msg) func(gateway.Result[T]) tea.Msg {
	return func(r gateway.Result[T]) tea.Msg {
		return Envelope{To: id, Msg: wrap(r)}
	}
}

type navKind int

const (
	navDone navKind = iota
	navPush
	navInvoke
)

// ScreenFactory builds a screen. Screen-specific arguments are captured by the closure;
// the navigator supplies the Env.
type ScreenFactory func(env Env) Screen

// Action is a deferred step whose result the navigator interprets again.
type Action func() Nav

// Nav tells the navigator what to do after a screen handled input.
type Nav struct {
	kind    navKind
	factory ScreenFactory
	action  Action
	cmd     tea.Cmd
}

func Done() Nav                { return Nav{kind: navDone} }
func Push(f ScreenFactory) Nav { return Nav{kind: navPush, factory: f} }
func Invoke(a Action) Nav      { return Nav{kind: navInvoke, action: a} }

// With attaches cmd to the result; the navigator runs it alongside whatever else n does.
func (n Nav) With(cmd tea.Cmd) Nav {
	n.cmd = tea.Batch(n.cmd, cmd)
	return n
}

// Screen is one layer of the navigation stack.
type Screen interface {
	Env() Env
	Keys() *Keymap
	// Init returns the commands to run once the screen is on the stack.
	Init() tea.Cmd
	// Update receives messages addressed to this screen.
	Update(msg tea.Msg) Nav
	Display(c *Canvas)

	Up() Nav
	Down() Nav
	Left() Nav
	Right() Nav
	Select() Nav
}

// InputCapturer is implemented by screens that take raw key input while an editor is
// active. While Capturing reports true the navigator sends every key to HandleKey.
type InputCapturer interface {
	Capturing() bool
	HandleKey(msg tea.KeyMsg) Nav
}

type binding struct {
	key     key.Binding
	handler func() Nav
	legend  bool
}

// Keymap maps key aliases to handlers. It implements help.KeyMap for the legend.
type Keymap struct {
	bindings []binding
}

// Bind maps every alias in keys to handler. The legend, if any, is shown under the
// first alias only. A later binding for the same key wins.
func (k *Keymap) Bind(keys []string, handler func() Nav, legend string) {
	if len(keys) == 0 {
		return
	}
	opts := []key.BindingOpt{key.WithKeys(keys...)}
	if legend != "" {
		opts = append(opts, key.WithHelp(keys[0], legend))
	}
	k.bindings = append(k.bindings, binding{key: key.NewBinding(opts...), handler: handler, legend: legend != ""})
}

// Resolve returns the handler bound to msg.
func (k *Keymap) Resolve(msg tea.KeyMsg) (func() Nav, bool) {
	for i := len(k.bindings) - 1; i >= 0; i-- {
		if key.Matches(msg, k.bindings[i].key) {
			return k.bindings[i].handler, true
		}
	}
	return nil, false
}

func (k *Keymap) ShortHelp() []key.Binding {
	var out []key.Binding
	for _, b := range k.bindings {
		if b.legend {
			out = append(out, b.key)
		}
	}
	return out
}

func (k *Keymap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// Base carries the parts every screen shares: its Env, its key bindings and no-op
// arrow handlers. Screens embed it.
type Base struct {
	env  Env
	keys Keymap
}

func newBase(env Env) Base {
	b := Base{env: env}
	b.keys.Bind([]string{"q"}, func() Nav {
		if env.Close != nil {
			env.Close()
		}
		return Done()
	}, "close")
	return b
}

func (b *Base) Env() Env               { return b.env }
func (b *Base) Keys() *Keymap          { return &b.keys }
func (b *Base) Init() tea.Cmd          { return nil }
func (b *Base) Update(msg tea.Msg) Nav { return Done() }
func (b *Base) Up() Nav                { return Done() }
func (b *Base) Down() Nav              { return Done() }
func (b *Base) Left() Nav              { return Done() }
func (b *Base) Right() Nav             { return Done() }
func (b *Base) Select() Nav            { return Done() }

func (b *Base) ctx() context.Context {
	if b.env.Ctx != nil {
		return b.env.Ctx
	}
	return context.Background()
}

func (b *Base) log() *slog.Logger {
	if b.env.Log != nil {
		return b.env.Log
	}
	return slog.Default()
}

// Refresh redraws s into c if s is the top screen. It reports whether anything was drawn;
// a screen that is not on top leaves c untouched.
func Refresh(s Screen, c *Canvas) bool {
	env := s.Env()
	if env.OnTop == nil || !env.OnTop() {
		return false
	}
	c.Clear()
	s.Display(c)
	drawChrome(env, s.Keys(), c)
	return true
}

func drawChrome(env Env, keys *Keymap, c *Canvas) {
	rows, cols := c.Size()
	if rows < reservedRows {
		return
	}

	h := help.New()
	h.Width = cols - 1
	c.Put(rows-1, 1, h.ShortHelpView(keys.ShortHelp()), lipgloss.NewStyle())

	if env.InFlight == nil {
		return
	}
	if n := env.InFlight(); n > 0 {
		spin := ""
		if env.Spinner != nil {
			spin = env.Spinner() + " "
		}
		c.Put(rows-2, 1, fmt.Sprintf("%sCurrently making %d HTTP requests...", spin, n), styleMuted())
	}
}
