package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tempo-cli/internal/model"
)

// Tempo is a client for the Tempo REST API.
type Tempo struct {
	client
}

func NewTempo(baseURL, token string, log *slog.Logger) *Tempo {
	return &Tempo{client: newClient(baseURL, token, log)}
}

type WorklogQuery struct {
	AccountID   string
	From        model.Date
	To          model.Date
	UpdatedFrom model.Date
	Offset      int
	Limit       int
}

type ScheduleQuery struct {
	AccountID string
	From      model.Date
	To        model.Date
}

// WorklogInput is the payload for creating (ID == 0) or updating a worklog.
type WorklogInput struct {
	ID              int           `json:"-"`
	IssueKey        string        `json:"issueKey"`
	TimeSpent       time.Duration `json:"-"`
	Started         time.Time     `json:"-"`
	Description     string        `json:"description"`
	AuthorAccountID string        `json:"authorAccountId"`
}

func (in WorklogInput) MarshalJSON() ([]byte, error) {
	type alias WorklogInput
	return json.Marshal(struct {
		alias
		TimeSpentSeconds int    `json:"timeSpentSeconds"`
		StartDate        string `json:"startDate"`
		StartTime        string `json:"startTime"`
	}{
		alias:            alias(in),
		TimeSpentSeconds: int(in.TimeSpent / time.Second),
		StartDate:        in.Started.Format(model.DateFormat),
		StartTime:        in.Started.Format(model.TimeFormat),
	})
}

func dateParam(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// Worklogs lists worklogs. With q.Limit set it returns that single page; otherwise it
// follows metadata.next until the last page.
func (t *Tempo) Worklogs(ctx context.Context, q WorklogQuery) ([]model.Worklog, error) {
	if q.Limit > 0 {
		out, _, err := t.worklogPage(ctx, q)
		return out, err
	}

	q.Limit = worklogPageSize
	var all []model.Worklog
	for {
		page, meta, err := t.worklogPage(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if meta == nil || meta.Next == "" || len(page) == 0 {
			return all, nil
		}
		q.Offset += len(page)
		t.log.Debug("tempo worklogs next page", "offset", q.Offset)
	}
}

const worklogPageSize = 200

func (t *Tempo) worklogPage(ctx context.Context, q WorklogQuery) ([]model.Worklog, *model.Metadata, error) {
	path := "/core/3/worklogs"
	if q.AccountID != "" {
		path = "/core/3/worklogs/account/" + url.PathEscape(q.AccountID)
	}
	params := url.Values{
		"from":         {dateParam(q.From)},
		"to":           {dateParam(q.To)},
		"updated_from": {dateParam(q.UpdatedFrom)},
		"offset":       {strconv.Itoa(q.Offset)},
		"limit":        {strconv.Itoa(q.Limit)},
	}
	if q.Offset == 0 {
		params.Del("offset")
	}
	b, err := t.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, nil, err
	}
	out, meta, err := model.Worklogs.DecodeJSON(b)
	if err != nil {
		return nil, nil, fmt.Errorf("worklogs: %w", err)
	}
	return out, meta, nil
}

func (t *Tempo) UserSchedules(ctx context.Context, q ScheduleQuery) ([]model.Schedule, error) {
	path := "/core/3/user-schedule"
	if q.AccountID != "" {
		path = "/core/3/user-schedule/" + url.PathEscape(q.AccountID)
	}
	b, err := t.do(ctx, http.MethodGet, path, url.Values{
		"from": {dateParam(q.From)},
		"to":   {dateParam(q.To)},
	}, nil)
	if err != nil {
		return nil, err
	}
	out, _, err := model.Schedules.DecodeJSON(b)
	if err != nil {
		return nil, fmt.Errorf("user schedules: %w", err)
	}
	return out, nil
}

// SaveWorklog creates the worklog when in.ID is zero and updates it otherwise.
func (t *Tempo) SaveWorklog(ctx context.Context, in WorklogInput) (model.Worklog, error) {
	method, path := http.MethodPost, "/core/3/worklogs"
	if in.ID != 0 {
		method, path = http.MethodPut, "/core/3/worklogs/"+strconv.Itoa(in.ID)
	}
	b, err := t.do(ctx, method, path, nil, in)
	if err != nil {
		return model.Worklog{}, err
	}
	w, err := model.WorklogSchema.DecodeJSON(b)
	if err != nil {
		return model.Worklog{}, fmt.Errorf("save worklog: %w", err)
	}
	return w, nil
}

// JiraToken exchanges the Tempo token for a Jira access token.
func (t *Tempo) JiraToken(ctx context.Context) (token string, expires string, err error) {
	b, err := t.do(ctx, http.MethodGet, "/jira/v1/get-jira-oauth-token/", nil, nil)
	if err != nil {
		return "", "", err
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return "", "", fmt.Errorf("jira token: %w", err)
	}
	if resp.Token == "" {
		return "", "", fmt.Errorf("jira token: empty token in response")
	}
	return resp.Token, resp.ExpiresAt, nil
}
