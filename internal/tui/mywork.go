package tui

import (
	"fmt"
	"strings"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"
	"tempo-cli/internal/week"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type worklogsLoadedMsg struct {
	generation int
	result     gateway.Result[[]model.Worklog]
}

type schedulesLoadedMsg struct {
	generation int
	result     gateway.Result[[]model.Schedule]
}

type userLoadedMsg struct {
	result gateway.Result[model.User]
}

// myWork is the weekly calendar of the user's worklogs.
type myWork struct {
	Base
	week   *week.View
	user   model.User
	status string
}

// NewMyWork returns the factory for the calendar screen focused on date.
// A zero date means today.
func NewMyWork(date model.Date) ScreenFactory {
	return func(env Env) Screen {
		if date.IsZero() {
			if env.Today != nil {
				date = env.Today()
			} else {
				date = model.Today()
			}
		}
		m := &myWork{
			Base: newBase(env),
			week: week.New(date, env.Config.Tempo.FirstDayOfWeek),
		}
		m.keys.Bind([]string{"c"}, m.create, "log work")
		m.keys.Bind([]string{"u", "i"}, m.Select, "edit")
		m.keys.Bind([]string{"r"}, m.reload, "reload")
		return m
	}
}

func (m *myWork) Init() tea.Cmd {
	user := gateway.Async(m.ctx(), m.env.Gateway, gateway.FetchCurrentUser(m.env.Jira),
		deliver(m.env.ID, func(r gateway.Result[model.User]) tea.Msg { return userLoadedMsg{result: r} }))
	return tea.Batch(user, m.fetch())
}

// fetch asks for the current window's worklogs and schedules. The two results arrive
// independently and in any order.
func (m *myWork) fetch() tea.Cmd {
	from, to := m.week.Range()
	gen := m.week.Generation()
	account := m.env.Config.Tempo.AccountID
	m.log().Info("fetching week", "from", from.String(), "to", to.String(), "generation", gen)

	worklogs := gateway.Async(m.ctx(), m.env.Gateway,
		gateway.FetchWorklogs(m.env.Tempo, api.WorklogQuery{AccountID: account, From: from, To: to}),
		deliver(m.env.ID, func(r gateway.Result[[]model.Worklog]) tea.Msg {
			return worklogsLoadedMsg{generation: gen, result: r}
		}))
	schedules := gateway.Async(m.ctx(), m.env.Gateway,
		gateway.FetchSchedules(m.env.Tempo, api.ScheduleQuery{AccountID: account, From: from, To: to}),
		deliver(m.env.ID, func(r gateway.Result[[]model.Schedule]) tea.Msg {
			return schedulesLoadedMsg{generation: gen, result: r}
		}))
	return tea.Batch(worklogs, schedules)
}

func (m *myWork) Update(msg tea.Msg) Nav {
	switch msg := msg.(type) {
	case userLoadedMsg:
		if msg.result.Err != nil {
			m.status = "Could not load user: " + msg.result.Err.Error()
			return Done()
		}
		m.user = msg.result.Value

	case worklogsLoadedMsg:
		if msg.generation != m.week.Generation() {
			m.log().Debug("discarding worklogs for old window", "generation", msg.generation)
			return Done()
		}
		if msg.result.Err != nil {
			m.status = "Could not load worklogs: " + msg.result.Err.Error()
			return Done()
		}
		m.status = ""
		m.week.MergeWorklogs(msg.result.Value)
		if w, ok := m.week.Selected(); ok {
			m.log().Info("selected worklog", "id", w.ID)
		}

	case schedulesLoadedMsg:
		if msg.generation != m.week.Generation() {
			m.log().Debug("discarding schedules for old window", "generation", msg.generation)
			return Done()
		}
		if msg.result.Err != nil {
			m.status = "Could not load schedule: " + msg.result.Err.Error()
			return Done()
		}
		m.week.MergeSchedules(msg.result.Value)
	}
	return Done()
}

func (m *myWork) Up() Nav {
	m.week.SelectPrev()
	return Done()
}

func (m *myWork) Down() Nav {
	m.week.SelectNext()
	return Done()
}

func (m *myWork) Left() Nav  { return m.move(-1) }
func (m *myWork) Right() Nav { return m.move(1) }

func (m *myWork) move(delta int) Nav {
	refetch := m.week.Move(delta)
	m.log().Info("selected date", "date", m.week.Focus().String())
	if refetch {
		return Done().With(m.fetch())
	}
	return Done()
}

func (m *myWork) reload() Nav {
	m.week.Reset(m.week.Focus())
	return Done().With(m.fetch())
}

// Select edits the selected worklog, if any.
func (m *myWork) Select() Nav {
	w, ok := m.week.Selected()
	if !ok {
		return Done()
	}
	return Push(NewWorklogForm(FormArgs{Worklog: &w, Author: m.author(), OnSaved: m.saved}))
}

func (m *myWork) create() Nav {
	return Push(NewWorklogForm(FormArgs{Date: m.week.Focus(), Author: m.author(), OnSaved: m.saved}))
}

func (m *myWork) author() string {
	if m.env.Config.Tempo.AccountID != "" {
		return m.env.Config.Tempo.AccountID
	}
	return m.user.AccountID
}

func (m *myWork) saved(w model.Worklog) {
	m.week.Upsert(w)
	m.log().Info("worklog saved", "id", w.ID, "date", w.Date().String())
}

func (m *myWork) Display(c *Canvas) {
	_, cols := c.Size()
	body := c.Body()

	greeting := "Loading" + glyphPending()
	if m.user.DisplayName != "" {
		greeting = fmt.Sprintf("Hi %s!", m.user.DisplayName)
	}
	c.Put(0, 1, greeting, lipgloss.NewStyle().Bold(true))
	if m.status != "" {
		c.Put(0, xansi.StringWidth(greeting)+3, m.status, styleError())
	}

	colW := columnWidth(cols, week.Days)
	listTop := 4
	visible := body - listTop
	for i, d := range m.week.Dates() {
		x := i*colW + 1
		w := colW - 1

		header := lipgloss.NewStyle()
		if d == m.week.Focus() {
			header = styleFocusDay()
		}
		c.Put(1, x, truncate(d.Human(), w), header)

		if s, ok := m.week.Schedule(d); ok {
			worked := m.week.Worked(d)
			label := week.Progress(worked, s.Required)
			if s.Holiday != nil && s.Holiday.Name != "" {
				label += " " + s.Holiday.Name
			}
			c.Put(2, x, truncate(label, w), styleProgress(week.UnderTarget(worked, s.Required)))
		}
		c.Put(3, x, strings.Repeat(glyphRule(), w), styleMuted())

		entries := m.week.Worklogs(d)
		if !m.week.WorklogsLoaded() {
			c.Put(listTop, x, glyphPending(), styleMuted())
			continue
		}
		selected, hasSel := m.week.Selected()
		offset := 0
		if d == m.week.Focus() && hasSel && visible > 0 {
			for j, e := range entries {
				if e.ID == selected.ID && j >= visible {
					offset = j - visible + 1
				}
			}
		}
		for j := offset; j < len(entries) && j-offset < visible; j++ {
			e := entries[j]
			st := lipgloss.NewStyle()
			if d == m.week.Focus() && hasSel && e.ID == selected.ID {
				st = styleSelected()
			}
			c.Put(listTop+j-offset, x, truncate(shortWorklog(e), w), st)
		}
	}
}

func shortWorklog(w model.Worklog) string {
	s := fmt.Sprintf("%s - %sh", w.Issue.Key, week.Hours(w.TimeSpent))
	if w.Description != "" {
		s += " " + w.Description
	}
	return s
}
