package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/logging"
	"tempo-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeTempo struct {
	mu        sync.Mutex
	worklogs  func(q api.WorklogQuery) ([]model.Worklog, error)
	schedules func(q api.ScheduleQuery) ([]model.Schedule, error)
	save      func(in api.WorklogInput) (model.Worklog, error)

	worklogCalls int
	saved        []api.WorklogInput
}

func (f *fakeTempo) Worklogs(ctx context.Context, q api.WorklogQuery) ([]model.Worklog, error) {
	f.mu.Lock()
	f.worklogCalls++
	fn := f.worklogs
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(q)
}

func (f *fakeTempo) UserSchedules(ctx context.Context, q api.ScheduleQuery) ([]model.Schedule, error) {
	if f.schedules == nil {
		return nil, nil
	}
	return f.schedules(q)
}

func (f *fakeTempo) SaveWorklog(ctx context.Context, in api.WorklogInput) (model.Worklog, error) {
	f.mu.Lock()
	f.saved = append(f.saved, in)
	f.mu.Unlock()
	if f.save == nil {
		return model.Worklog{}, nil
	}
	return f.save(in)
}

type fakeJira struct {
	user   model.User
	groups []model.IssueGroup
}

func (f *fakeJira) Myself(ctx context.Context) (model.User, error) { return f.user, nil }

func (f *fakeJira) SearchIssues(ctx context.Context, query string) ([]model.IssueGroup, error) {
	return f.groups, nil
}

func june(d int) model.Date { return model.Date{Year: 2024, Month: time.June, Day: d} }

func at(d model.Date, hhmm string) time.Time {
	t, err := time.Parse(model.DateFormat+" 15:04", d.String()+" "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestNavigator(t *testing.T, today model.Date, tempo *fakeTempo, jira *fakeJira) *Navigator {
	t.Helper()
	if jira == nil {
		jira = &fakeJira{user: model.User{AccountID: "acc-1", DisplayName: "Ada"}}
	}
	env := Env{
		Gateway: gateway.New(nil, logging.Discard()),
		Tempo:   tempo,
		Jira:    jira,
		Log:     logging.Discard(),
		Today:   func() model.Date { return today },
	}
	return NewNavigator(env, NewMyWork(model.Date{}))
}

// drain runs cmd and every command batched inside it, returning the messages produced.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func envelopes(msgs []tea.Msg) []Envelope {
	var out []Envelope
	for _, m := range msgs {
		if e, ok := m.(Envelope); ok {
			out = append(out, e)
		}
	}
	return out
}

func hasQuit(msgs []tea.Msg) bool {
	for _, m := range msgs {
		if _, ok := m.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

// settle runs cmd, delivers the addressed results and repeats with whatever those
// produce, until nothing is addressed anymore.
func settle(n *Navigator, cmd tea.Cmd) {
	for i := 0; i < 10 && cmd != nil; i++ {
		var next []tea.Cmd
		for _, e := range envelopes(drain(cmd)) {
			_, c := n.Update(e)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
}

func press(n *Navigator, keys ...tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, k := range keys {
		_, c := n.Update(k)
		cmds = append(cmds, c)
	}
	return tea.Batch(cmds...)
}

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyCtrlX = tea.KeyMsg{Type: tea.KeyCtrlX}
	keyCtrlU = tea.KeyMsg{Type: tea.KeyCtrlU}
)

func typeText(n *Navigator, s string) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range s {
		_, c := n.Update(runeKey(r))
		cmds = append(cmds, c)
	}
	return tea.Batch(cmds...)
}
