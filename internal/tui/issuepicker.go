package tui

import (
	"strings"
	"time"

	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

const searchDebounce = 250 * time.Millisecond

type searchDueMsg struct{ seq int }

type searchDoneMsg struct {
	seq    int
	result gateway.Result[[]model.IssueGroup]
}

// issues adapts a slice of issues to fuzzy.Source.
type issues []model.Issue

func (s issues) String(i int) string { return s[i].Key + " " + s[i].Summary }
func (s issues) Len() int            { return len(s) }

// issuePicker searches Jira as the user types and ranks the answers locally.
type issuePicker struct {
	Base
	input  textinput.Model
	onPick func(model.Issue)

	seq       int
	searching bool
	results   issues
	matches   []fuzzy.Match
	cursor    int
	err       string
}

func NewIssuePicker(query string, onPick func(model.Issue)) ScreenFactory {
	return func(env Env) Screen {
		p := &issuePicker{Base: newBase(env), onPick: onPick}
		p.input = textinput.New()
		p.input.Placeholder = "Search issues..."
		p.input.Prompt = glyphPrompt()
		p.input.CharLimit = 128
		p.input.SetValue(query)
		p.input.CursorEnd()

		// Typing owns every printable key, so the legend only lists the control keys.
		p.keys = Keymap{}
		p.keys.Bind([]string{"enter"}, p.pick, "pick")
		p.keys.Bind([]string{"esc", "ctrl+g"}, p.cancel, "cancel")
		return p
	}
}

func (p *issuePicker) Init() tea.Cmd {
	return tea.Batch(p.input.Focus(), p.search())
}

// The query field always has focus, so every key goes through HandleKey.
func (p *issuePicker) Capturing() bool { return true }

func (p *issuePicker) HandleKey(msg tea.KeyMsg) Nav {
	switch msg.String() {
	case "esc", "ctrl+g":
		return p.cancel()
	case "ctrl+c":
		return Done().With(tea.Quit)
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return Done()
	case "down", "ctrl+n":
		if p.cursor < len(p.matches)-1 {
			p.cursor++
		}
		return Done()
	case "enter":
		return p.pick()
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() == before {
		return Done().With(cmd)
	}
	p.rank()
	p.seq++
	seq, id := p.seq, p.env.ID
	debounce := tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return Envelope{To: id, Msg: searchDueMsg{seq: seq}}
	})
	return Done().With(tea.Batch(cmd, debounce))
}

func (p *issuePicker) cancel() Nav {
	p.env.Close()
	return Done()
}

func (p *issuePicker) pick() Nav {
	issue, ok := p.selected()
	if !ok {
		return Done()
	}
	if p.onPick != nil {
		p.onPick(issue)
	}
	p.env.Close()
	return Done()
}

func (p *issuePicker) Update(msg tea.Msg) Nav {
	switch msg := msg.(type) {
	case searchDueMsg:
		// Only the last keystroke's timer fires a search.
		if msg.seq != p.seq {
			return Done()
		}
		return Done().With(p.search())

	case searchDoneMsg:
		if msg.seq != p.seq {
			return Done()
		}
		p.searching = false
		if msg.result.Err != nil {
			p.err = msg.result.Err.Error()
			return Done()
		}
		p.err = ""
		p.results = flatten(msg.result.Value)
		p.rank()
		return Done()
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return Done().With(cmd)
}

func (p *issuePicker) search() tea.Cmd {
	p.searching = true
	seq := p.seq
	query := strings.TrimSpace(p.input.Value())
	return gateway.Async(p.ctx(), p.env.Gateway, gateway.SearchIssues(p.env.Jira, query),
		deliver(p.env.ID, func(r gateway.Result[[]model.IssueGroup]) tea.Msg {
			return searchDoneMsg{seq: seq, result: r}
		}))
}

// flatten merges the result sections, keeping the first occurrence of each key.
func flatten(groups []model.IssueGroup) issues {
	seen := map[string]bool{}
	var out issues
	for _, g := range groups {
		for _, is := range g.Issues {
			if seen[is.Key] {
				continue
			}
			seen[is.Key] = true
			out = append(out, is)
		}
	}
	return out
}

func (p *issuePicker) rank() {
	p.cursor = 0
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.matches = make([]fuzzy.Match, len(p.results))
		for i := range p.results {
			p.matches[i] = fuzzy.Match{Index: i}
		}
		return
	}
	p.matches = fuzzy.FindFrom(query, p.results)
	// The server already matched these; keep its answers even when the local ranking
	// finds no subsequence match, after the ranked ones.
	if len(p.matches) < len(p.results) {
		ranked := make(map[int]bool, len(p.matches))
		for _, m := range p.matches {
			ranked[m.Index] = true
		}
		for i := range p.results {
			if !ranked[i] {
				p.matches = append(p.matches, fuzzy.Match{Index: i})
			}
		}
	}
}

func (p *issuePicker) selected() (model.Issue, bool) {
	if p.cursor < 0 || p.cursor >= len(p.matches) {
		return model.Issue{}, false
	}
	return p.results[p.matches[p.cursor].Index], true
}

func (p *issuePicker) Display(c *Canvas) {
	_, cols := c.Size()
	c.Put(0, 1, "Pick issue", lipgloss.NewStyle().Bold(true))
	c.Put(1, 1, p.input.View(), lipgloss.NewStyle())

	switch {
	case p.err != "":
		c.Put(2, 1, p.err, styleError())
	case p.searching:
		c.Put(2, 1, "searching...", styleMuted())
	case len(p.matches) == 0:
		c.Put(2, 1, "no issues", styleMuted())
	}

	top := 3
	visible := c.Body() - top
	offset := 0
	if visible > 0 && p.cursor >= visible {
		offset = p.cursor - visible + 1
	}
	for i := offset; i < len(p.matches) && i-offset < visible; i++ {
		is := p.results[p.matches[i].Index]
		st := lipgloss.NewStyle()
		if i == p.cursor {
			st = styleSelected()
		}
		c.Put(top+i-offset, 1, truncate(is.Key+"  "+is.Summary, cols-2), st)
	}
}
