package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"
	"tempo-cli/internal/week"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const durationStep = 15 * time.Minute

type formField int

const (
	fieldIssue formField = iota
	fieldDate
	fieldStart
	fieldDuration
	fieldDescription
	fieldCount
)

func (f formField) label() string {
	switch f {
	case fieldIssue:
		return "Issue"
	case fieldDate:
		return "Date"
	case fieldStart:
		return "Start"
	case fieldDuration:
		return "Duration"
	case fieldDescription:
		return "Description"
	}
	return ""
}

// FormArgs configures the worklog form. A nil Worklog creates a new entry on Date.
type FormArgs struct {
	Worklog *model.Worklog
	Date    model.Date
	Author  string
	OnSaved func(model.Worklog)
}

type worklogForm struct {
	Base
	args FormArgs

	id          int
	issue       model.Issue
	date        model.Date
	start       time.Duration
	spent       time.Duration
	description string

	focus   formField
	editing bool
	input   textinput.Model
	err     string
}

func NewWorklogForm(args FormArgs) ScreenFactory {
	return func(env Env) Screen {
		f := &worklogForm{
			Base:  newBase(env),
			args:  args,
			date:  args.Date,
			start: 9 * time.Hour,
			spent: time.Hour,
		}
		if w := args.Worklog; w != nil {
			f.id = w.ID
			f.issue = w.Issue
			f.date = w.Date()
			f.start = w.Started.Sub(w.Date().Time())
			f.spent = w.TimeSpent
			f.description = w.Description
		}
		if f.date.IsZero() {
			f.date = model.Today()
		}

		f.input = textinput.New()
		f.input.Prompt = glyphPrompt()
		f.input.CharLimit = 512

		f.keys.Bind([]string{"+", "pgup"}, func() Nav { return f.adjust(durationStep) }, "+15m")
		f.keys.Bind([]string{"-", "pgdown"}, func() Nav { return f.adjust(-durationStep) }, "-15m")
		f.keys.Bind([]string{"ctrl+x"}, f.submit, "save")
		return f
	}
}

func (f *worklogForm) Capturing() bool { return f.editing }

func (f *worklogForm) HandleKey(msg tea.KeyMsg) Nav {
	switch msg.String() {
	case "esc":
		f.stopEditing()
		f.err = ""
		return Done()
	case "enter":
		if err := f.commit(f.focus, f.input.Value()); err != nil {
			f.err = err.Error()
			return Done()
		}
		f.err = ""
		f.stopEditing()
		return Done()
	case "ctrl+c":
		return Done().With(tea.Quit)
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return Done().With(cmd)
}

// Update forwards cursor blinks to the field editor.
func (f *worklogForm) Update(msg tea.Msg) Nav {
	if !f.editing {
		return Done()
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return Done().With(cmd)
}

func (f *worklogForm) stopEditing() {
	f.editing = false
	f.input.Blur()
}

func (f *worklogForm) Up() Nav {
	if f.focus > 0 {
		f.focus--
	}
	return Done()
}

func (f *worklogForm) Down() Nav {
	if f.focus < fieldCount-1 {
		f.focus++
	}
	return Done()
}

// Select opens the issue picker for the issue field and the text editor for the others.
func (f *worklogForm) Select() Nav {
	if f.focus == fieldIssue {
		return Invoke(func() Nav {
			return Push(NewIssuePicker(f.issue.Key, f.pickIssue))
		})
	}
	f.editing = true
	f.err = ""
	f.input.SetValue(f.value(f.focus))
	f.input.CursorEnd()
	return Done().With(f.input.Focus())
}

func (f *worklogForm) pickIssue(issue model.Issue) {
	f.issue = issue
	f.err = ""
	if f.focus == fieldIssue {
		f.focus = fieldDate
	}
}

func (f *worklogForm) adjust(by time.Duration) Nav {
	f.spent += by
	if f.spent < 0 {
		f.spent = 0
	}
	return Done()
}

func (f *worklogForm) value(field formField) string {
	switch field {
	case fieldIssue:
		if f.issue.Summary != "" {
			return f.issue.Key + " " + f.issue.Summary
		}
		return f.issue.Key
	case fieldDate:
		return f.date.String()
	case fieldStart:
		return formatClock(f.start)
	case fieldDuration:
		return week.Hours(f.spent) + "h"
	case fieldDescription:
		return f.description
	}
	return ""
}

// ValidationError is a field value the form refuses. It is shown inline and never
// reaches the API.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

func (f *worklogForm) commit(field formField, raw string) error {
	raw = strings.TrimSpace(raw)
	invalid := func(err error) error { return &ValidationError{Field: field.label(), Reason: err.Error()} }
	switch field {
	case fieldDate:
		d, err := model.ParseDate(raw)
		if err != nil {
			return invalid(err)
		}
		f.date = d
	case fieldStart:
		d, err := parseClock(raw)
		if err != nil {
			return invalid(err)
		}
		f.start = d
	case fieldDuration:
		d, err := parseSpent(raw)
		if err != nil {
			return invalid(err)
		}
		f.spent = d
	case fieldDescription:
		f.description = raw
	}
	return nil
}

// validate checks what a save needs before anything is sent.
func (f *worklogForm) validate() error {
	if f.issue.Key == "" {
		return &ValidationError{Field: fieldIssue.label(), Reason: "pick an issue first"}
	}
	if f.spent <= 0 {
		return &ValidationError{Field: fieldDuration.label(), Reason: "must be positive"}
	}
	return nil
}

func (f *worklogForm) worklogInput() api.WorklogInput {
	return api.WorklogInput{
		ID:              f.id,
		IssueKey:        f.issue.Key,
		TimeSpent:       f.spent,
		Started:         f.date.Time().Add(f.start),
		Description:     f.description,
		AuthorAccountID: f.args.Author,
	}
}

// submit saves synchronously; the UI waits for the answer. On failure the form stays
// open with the error shown.
func (f *worklogForm) submit() Nav {
	if err := f.validate(); err != nil {
		f.err = err.Error()
		return Done()
	}

	w, err := gateway.Call(f.ctx(), f.env.Gateway, gateway.SaveWorklog(f.env.Tempo, f.worklogInput()))
	if err != nil {
		f.err = "save failed: " + err.Error()
		f.log().Warn("saving worklog failed", "id", f.id, "err", err)
		return Done()
	}
	if w.Issue.Key == "" {
		w.Issue = f.issue
	}
	if f.args.OnSaved != nil {
		f.args.OnSaved(w)
	}
	if f.env.Close != nil {
		f.env.Close()
	}
	return Done()
}

func (f *worklogForm) Display(c *Canvas) {
	title := "Log work"
	if f.id != 0 {
		title = fmt.Sprintf("Edit worklog %d", f.id)
	}
	c.Put(0, 1, title, lipgloss.NewStyle().Bold(true))

	for i := formField(0); i < fieldCount; i++ {
		row := 2 + int(i)
		c.Put(row, 1, fmt.Sprintf("%-12s", i.label()), styleMuted())
		if f.editing && i == f.focus {
			c.Put(row, 14, f.input.View(), lipgloss.NewStyle())
			continue
		}
		st := lipgloss.NewStyle()
		if i == f.focus {
			st = styleSelected()
		}
		v := f.value(i)
		if v == "" {
			v = "-"
		}
		c.Put(row, 14, v, st)
	}

	if f.err != "" {
		c.Put(3+int(fieldCount), 1, f.err, styleError())
	}
}

func formatClock(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// parseClock reads a time of day as HH:MM or HH:MM:SS.
func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04", model.TimeFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
}

// parseSpent reads a duration such as "1.5h", "90m", "1h30m" or a bare number of hours.
func parseSpent(s string) (time.Duration, error) {
	var d time.Duration
	if h, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(h * float64(time.Hour))
	} else if pd, err := time.ParseDuration(s); err == nil {
		d = pd
	} else {
		return 0, fmt.Errorf("invalid duration %q (e.g. 1.5h, 90m)", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q: must be positive", s)
	}
	return d, nil
}
