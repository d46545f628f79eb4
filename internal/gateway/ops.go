package gateway

import (
	"context"

	"tempo-cli/internal/api"
	"tempo-cli/internal/model"
)

// TempoAPI is the subset of *api.Tempo the application uses.
type TempoAPI interface {
	Worklogs(ctx context.Context, q api.WorklogQuery) ([]model.Worklog, error)
	UserSchedules(ctx context.Context, q api.ScheduleQuery) ([]model.Schedule, error)
	SaveWorklog(ctx context.Context, in api.WorklogInput) (model.Worklog, error)
}

// JiraAPI is the subset of *api.Jira the application uses.
type JiraAPI interface {
	Myself(ctx context.Context) (model.User, error)
	SearchIssues(ctx context.Context, query string) ([]model.IssueGroup, error)
}

func FetchWorklogs(t TempoAPI, q api.WorklogQuery) Op[[]model.Worklog] {
	return Op[[]model.Worklog]{
		Name: "tempo.worklogs",
		Args: q,
		Call: func(ctx context.Context) ([]model.Worklog, error) { return t.Worklogs(ctx, q) },
	}
}

// FetchSchedules is cached: required hours for a range rarely change within a session.
func FetchSchedules(t TempoAPI, q api.ScheduleQuery) Op[[]model.Schedule] {
	return Op[[]model.Schedule]{
		Name:  "tempo.user_schedules",
		Args:  q,
		Cache: true,
		Call:  func(ctx context.Context) ([]model.Schedule, error) { return t.UserSchedules(ctx, q) },
	}
}

func SaveWorklog(t TempoAPI, in api.WorklogInput) Op[model.Worklog] {
	return Op[model.Worklog]{
		Name: "tempo.save_worklog",
		Args: in,
		Call: func(ctx context.Context) (model.Worklog, error) { return t.SaveWorklog(ctx, in) },
	}
}

func FetchCurrentUser(j JiraAPI) Op[model.User] {
	return Op[model.User]{
		Name:  "jira.myself",
		Cache: true,
		Call:  func(ctx context.Context) (model.User, error) { return j.Myself(ctx) },
	}
}

func SearchIssues(j JiraAPI, query string) Op[[]model.IssueGroup] {
	return Op[[]model.IssueGroup]{
		Name: "jira.search_issues",
		Args: query,
		Call: func(ctx context.Context) ([]model.IssueGroup, error) { return j.SearchIssues(ctx, query) },
	}
}
