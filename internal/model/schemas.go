package model

import (
	"fmt"
	"time"
)

var MetadataSchema = Schema[Metadata]{
	Int("count", func(m *Metadata, v int) { m.Count = v }),
	Int("offset", func(m *Metadata, v int) { m.Offset = v }).Optional(),
	Int("limit", func(m *Metadata, v int) { m.Limit = v }).Optional(),
	String("next", func(m *Metadata, v string) { m.Next = v }).Optional(),
}

var UserSchema = Schema[User]{
	String("account_id", func(u *User, v string) { u.AccountID = v }),
	String("display_name", func(u *User, v string) { u.DisplayName = v }).Optional(),
}

var IssueSchema = Schema[Issue]{
	String("key", func(i *Issue, v string) { i.Key = v }),
	String("id", func(i *Issue, v string) { i.ID = v }).Optional(),
	String("summary", func(i *Issue, v string) { i.Summary = v }).Optional().
		Derived(func(data map[string]any) (any, bool) {
			// Issue picker results carry "summaryText"; full issues nest it under fields.
			if s, ok := data["summaryText"]; ok {
				return s, true
			}
			if f, ok := data["fields"].(map[string]any); ok {
				s, ok := f["summary"]
				return s, ok
			}
			s, ok := data["summary"]
			return s, ok
		}),
}

var IssueGroupSchema = Schema[IssueGroup]{
	String("id", func(g *IssueGroup, v string) { g.ID = v }).Optional(),
	String("label", func(g *IssueGroup, v string) { g.Label = v }).Optional(),
	Raw("issues", func(g *IssueGroup, raw any) error {
		issues, _, err := ListOf(IssueSchema).Decode(raw)
		if err != nil {
			return err
		}
		g.Issues = issues
		return nil
	}).Optional(),
}

var AttributeValueSchema = Schema[AttributeValue]{
	String("key", func(a *AttributeValue, v string) { a.Key = v }),
	Raw("value", func(a *AttributeValue, raw any) error {
		a.Value = raw
		return nil
	}).Optional(),
}

var HolidaySchema = Schema[Holiday]{
	String("name", func(h *Holiday, v string) { h.Name = v }),
	String("description", func(h *Holiday, v string) { h.Description = v }).Optional(),
	Seconds("duration", func(h *Holiday, v time.Duration) { h.Duration = v }).From("durationSeconds"),
}

var WorklogSchema = Schema[Worklog]{
	String("self_link", func(w *Worklog, v string) { w.SelfLink = v }).From("self").Optional(),
	Raw("attributes", func(w *Worklog, raw any) error {
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", raw)
		}
		vals, _, err := ListOf(AttributeValueSchema).Decode(obj["values"])
		if err != nil {
			return err
		}
		w.Attributes = vals
		return nil
	}).Optional(),
	Nested("author", UserSchema, func(w *Worklog, v User) { w.Author = v }),
	Seconds("billable", func(w *Worklog, v time.Duration) { w.Billable = v }).From("billableSeconds").Optional(),
	String("description", func(w *Worklog, v string) { w.Description = v }).Optional(),
	Nested("issue", IssueSchema, func(w *Worklog, v Issue) { w.Issue = v }),
	Int("jira_worklog_id", func(w *Worklog, v int) { w.JiraWorklogID = v }).Optional(),
	Int("id", func(w *Worklog, v int) { w.ID = v }).From("tempoWorklogId"),
	DateTime("created_at", func(w *Worklog, v time.Time) { w.CreatedAt = v }).Optional(),
	DateTime("updated_at", func(w *Worklog, v time.Time) { w.UpdatedAt = v }).Optional(),
	Seconds("time_spent", func(w *Worklog, v time.Duration) { w.TimeSpent = v }).From("timeSpentSeconds"),
	DateTime("started", func(w *Worklog, v time.Time) { w.Started = v }).
		Derived(func(data map[string]any) (any, bool) {
			d, ok1 := data["startDate"].(string)
			t, ok2 := data["startTime"].(string)
			if !ok1 || !ok2 {
				return nil, false
			}
			return d + "T" + t + "Z", true
		}),
}

var ScheduleSchema = Schema[Schedule]{
	Day("date", func(s *Schedule, v Date) { s.Date = v }),
	Seconds("required", func(s *Schedule, v time.Duration) { s.Required = v }).From("requiredSeconds"),
	String("type", func(s *Schedule, v string) { s.Type = v }).Optional(),
	Nested("holiday", HolidaySchema, func(s *Schedule, v Holiday) { s.Holiday = &v }).Optional(),
}

var (
	Worklogs    = ListOf(WorklogSchema)
	Schedules   = ListOf(ScheduleSchema)
	IssueGroups = ListOf(IssueGroupSchema)
)
