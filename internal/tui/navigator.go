package tui

import (
	"log/slog"

	"tempo-cli/internal/gateway"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// inFlightMsg reports a change of the outstanding request count.
type inFlightMsg struct{ count int }

// ProgramObserver forwards request lifecycle events into the program as messages.
// send is usually (*tea.Program).Send; it is called from a fresh goroutine because
// observers may run inside Update, where a blocking Send would deadlock.
func ProgramObserver(send func(tea.Msg)) gateway.Observer {
	post := func(n int) { go send(inFlightMsg{count: n}) }
	return gateway.ObserverFuncs{Start: post, End: post}
}

// Navigator is the root model: it owns the screen stack and routes input and
// delivered results to screens.
type Navigator struct {
	base   Env
	root   ScreenFactory
	stack  []Screen
	nextID ScreenID

	canvas   *Canvas
	spinner  spinner.Model
	spinning bool
	log      *slog.Logger
}

// NewNavigator builds a navigator whose first screen is made by root. base is the
// template for every screen's Env; ID, Close and OnTop are filled in per screen.
func NewNavigator(base Env, root ScreenFactory) *Navigator {
	log := base.Log
	if log == nil {
		log = slog.Default()
	}
	n := &Navigator{
		base:    base,
		root:    root,
		canvas:  NewCanvas(24, 80),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleAccent())),
		log:     log,
	}
	if n.base.Spinner == nil {
		n.base.Spinner = func() string { return n.spinner.View() }
	}
	if n.base.InFlight == nil && n.base.Gateway != nil {
		n.base.InFlight = n.base.Gateway.InFlight
	}
	return n
}

func (n *Navigator) Init() tea.Cmd {
	return n.run(Push(n.root))
}

// Top returns the screen currently on top, or nil.
func (n *Navigator) Top() Screen {
	if len(n.stack) == 0 {
		return nil
	}
	return n.stack[len(n.stack)-1]
}

// Depth is the number of screens on the stack.
func (n *Navigator) Depth() int { return len(n.stack) }

func (n *Navigator) find(id ScreenID) Screen {
	for _, s := range n.stack {
		if s.Env().ID == id {
			return s
		}
	}
	return nil
}

func (n *Navigator) envFor(id ScreenID) Env {
	env := n.base
	env.ID = id
	env.Close = func() { n.close(id) }
	env.OnTop = func() bool {
		top := n.Top()
		return top != nil && top.Env().ID == id
	}
	if env.Log != nil {
		env.Log = env.Log.With("screen", int(id))
	}
	return env
}

func (n *Navigator) push(f ScreenFactory) Screen {
	n.nextID++
	s := f(n.envFor(n.nextID))
	n.stack = append(n.stack, s)
	n.log.Debug("screen pushed", "screen", int(n.nextID), "depth", len(n.stack))
	return s
}

func (n *Navigator) close(id ScreenID) {
	for i, s := range n.stack {
		if s.Env().ID == id {
			n.stack = append(n.stack[:i], n.stack[i+1:]...)
			n.log.Debug("screen closed", "screen", int(id), "depth", len(n.stack))
			return
		}
	}
}

// run interprets a handler result. Invoke results are interpreted again until a
// Push or Done ends the chain.
func (n *Navigator) run(nav Nav) tea.Cmd {
	var cmds []tea.Cmd
	for {
		if nav.cmd != nil {
			cmds = append(cmds, nav.cmd)
		}
		if nav.kind == navInvoke {
			if nav.action == nil {
				break
			}
			nav = nav.action()
			continue
		}
		if nav.kind == navPush && nav.factory != nil {
			s := n.push(nav.factory)
			cmds = append(cmds, s.Init())
		}
		break
	}
	if len(n.stack) == 0 {
		cmds = append(cmds, tea.Quit)
	}
	return tea.Batch(cmds...)
}

func (n *Navigator) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		n.canvas.Resize(msg.Height, msg.Width)
		return n, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return n, tea.Quit
		}
		return n, n.handleKey(msg)

	case Envelope:
		s := n.find(msg.To)
		if s == nil {
			n.log.Debug("dropping result for closed screen", "screen", int(msg.To))
			return n, nil
		}
		return n, n.run(s.Update(msg.Msg))

	case inFlightMsg:
		if msg.count > 0 && !n.spinning {
			n.spinning = true
			return n, n.spinner.Tick
		}
		return n, nil

	case spinner.TickMsg:
		if n.base.InFlight == nil || n.base.InFlight() == 0 {
			n.spinning = false
			return n, nil
		}
		var cmd tea.Cmd
		n.spinner, cmd = n.spinner.Update(msg)
		return n, cmd
	}

	// Anything else (cursor blinks and the like) goes to the top screen.
	if top := n.Top(); top != nil {
		return n, n.run(top.Update(msg))
	}
	return n, nil
}

func (n *Navigator) handleKey(msg tea.KeyMsg) tea.Cmd {
	top := n.Top()
	if top == nil {
		return tea.Quit
	}
	if ic, ok := top.(InputCapturer); ok && ic.Capturing() {
		return n.run(ic.HandleKey(msg))
	}

	switch msg.String() {
	case "up":
		return n.run(top.Up())
	case "down":
		return n.run(top.Down())
	case "left":
		return n.run(top.Left())
	case "right":
		return n.run(top.Right())
	case "enter":
		return n.run(top.Select())
	}

	h, ok := top.Keys().Resolve(msg)
	if !ok {
		return nil
	}
	return n.run(h())
}

func (n *Navigator) View() string {
	top := n.Top()
	if top == nil {
		return ""
	}
	Refresh(top, n.canvas)
	return n.canvas.Render()
}
