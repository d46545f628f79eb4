package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"
)

type fakeTempo struct {
	worklogs  []model.Worklog
	schedules []model.Schedule
	err       error

	queries []api.WorklogQuery
}

func (f *fakeTempo) Worklogs(ctx context.Context, q api.WorklogQuery) ([]model.Worklog, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Worklog(nil), f.worklogs...), nil
}

func (f *fakeTempo) UserSchedules(ctx context.Context, q api.ScheduleQuery) ([]model.Schedule, error) {
	return f.schedules, nil
}

func (f *fakeTempo) SaveWorklog(ctx context.Context, in api.WorklogInput) (model.Worklog, error) {
	return model.Worklog{}, errors.New("not used")
}

type fakeJira struct{ user model.User }

func (f *fakeJira) Myself(ctx context.Context) (model.User, error) { return f.user, nil }

func (f *fakeJira) SearchIssues(ctx context.Context, query string) ([]model.IssueGroup, error) {
	return nil, nil
}

func june(d int) model.Date { return model.Date{Year: 2024, Month: time.June, Day: d} }

func worklog(id int, d int, hhmm string, spent time.Duration, key string) model.Worklog {
	started, err := time.Parse(model.DateFormat+" 15:04", june(d).String()+" "+hhmm)
	if err != nil {
		panic(err)
	}
	return model.Worklog{ID: id, Issue: model.Issue{Key: key}, Started: started, TimeSpent: spent}
}

func juneTempo() *fakeTempo {
	f := &fakeTempo{
		worklogs: []model.Worklog{
			worklog(2, 3, "11:00", 2*time.Hour, "PRJ-2"),
			worklog(1, 3, "09:00", 90*time.Minute, "PRJ-1"),
			worklog(3, 4, "09:00", 8*time.Hour, "PRJ-1"),
		},
	}
	for d := 3; d <= 9; d++ {
		required := 8 * time.Hour
		if d >= 8 {
			required = 0
		}
		f.schedules = append(f.schedules, model.Schedule{Date: june(d), Required: required, Type: "WORKING_DAY"})
	}
	return f
}

// isolate points config and log files at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TEMPO_CONFIG_DIR", dir)
	t.Setenv("TEMPO_LOG_FILE", filepath.Join(dir, "tempo.log"))
	t.Setenv("TEMPO_FORMAT", "")
	t.Setenv("LOG_LEVEL", "")
	return dir
}

func runCLI(t *testing.T, tempo *fakeTempo, jira *fakeJira, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	app := &App{connect: func(ctx context.Context, app *App) (gateway.TempoAPI, gateway.JiraAPI, error) {
		if tempo == nil || jira == nil {
			return nil, nil, errors.New("no clients")
		}
		return tempo, jira, nil
	}}
	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func decodeData[T any](t *testing.T, out []byte) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	return env.Data
}

func TestWeek_JSONSummary(t *testing.T) {
	isolate(t)
	out, stderr, err := runCLI(t, juneTempo(), &fakeJira{}, []string{"week", "--date", "2024-06-05"})
	if err != nil {
		t.Fatalf("week: %v (%s)", err, stderr)
	}
	s := decodeData[weekSummary](t, out)
	if s.From != june(3) || s.To != june(9) || len(s.Days) != 7 {
		t.Fatalf("window: %s..%s days=%d", s.From, s.To, len(s.Days))
	}
	mon := s.Days[0]
	if mon.Progress != "3.5h/8h" || !mon.UnderTarget || mon.Entries != 2 || mon.WorkedSeconds != 12600 {
		t.Fatalf("monday: %+v", mon)
	}
	tue := s.Days[1]
	if tue.Progress != "8h/8h" || tue.UnderTarget {
		t.Fatalf("tuesday: %+v", tue)
	}
	if s.Days[5].Progress != "0h/0h" || s.Days[5].UnderTarget {
		t.Fatalf("saturday: %+v", s.Days[5])
	}
}

func TestWeek_FirstDayOfWeekFromConfig(t *testing.T) {
	isolate(t)
	t.Setenv("TEMPO_TEMPO_FIRST_DAY_OF_WEEK", "6")
	tempo := juneTempo()
	out, stderr, err := runCLI(t, tempo, &fakeJira{}, []string{"week", "--date", "2024-06-05"})
	if err != nil {
		t.Fatalf("week: %v (%s)", err, stderr)
	}
	s := decodeData[weekSummary](t, out)
	if s.From != june(2) || s.To != june(8) {
		t.Fatalf("sunday-first window: %s..%s", s.From, s.To)
	}
	if len(tempo.queries) != 1 || tempo.queries[0].From != june(2) {
		t.Fatalf("queries: %+v", tempo.queries)
	}
}

func TestWeek_Table(t *testing.T) {
	isolate(t)
	out, stderr, err := runCLI(t, juneTempo(), &fakeJira{}, []string{"week", "--date", "2024-06-05", "--format", "table"})
	if err != nil {
		t.Fatalf("week: %v (%s)", err, stderr)
	}
	text := string(out)
	if !strings.Contains(text, "DAY") || !strings.Contains(text, "Mon 2024-06-03") || !strings.Contains(text, "3.5h/8h") {
		t.Fatalf("table:\n%s", text)
	}
	if strings.Contains(text, `"data"`) {
		t.Fatalf("table output must not be wrapped:\n%s", text)
	}
}

func TestWeek_EDN(t *testing.T) {
	isolate(t)
	out, stderr, err := runCLI(t, juneTempo(), &fakeJira{}, []string{"week", "--date", "2024-06-05", "--format", "edn"})
	if err != nil {
		t.Fatalf("week: %v (%s)", err, stderr)
	}
	if !strings.HasPrefix(string(out), "{:data {") || !strings.Contains(string(out), `:progress "3.5h/8h"`) {
		t.Fatalf("edn: %s", out)
	}
}

func TestWeek_InvalidDate(t *testing.T) {
	isolate(t)
	_, stderr, err := runCLI(t, juneTempo(), &fakeJira{}, []string{"week", "--date", "June 5"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), "invalid --date") {
		t.Fatalf("stderr: %s", stderr)
	}
}

func TestWeek_RemoteFailure(t *testing.T) {
	isolate(t)
	tempo := juneTempo()
	tempo.err = &api.RemoteCallError{Method: "GET", URL: "/4/worklogs/user", Status: 401, Body: "unauthorized"}
	_, stderr, err := runCLI(t, tempo, &fakeJira{}, []string{"week", "--date", "2024-06-05"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), "401") || !strings.Contains(string(stderr), "unauthorized") {
		t.Fatalf("stderr: %s", stderr)
	}
}

func TestWorklogs_SortedAndFiltered(t *testing.T) {
	isolate(t)
	tempo := juneTempo()
	// Outside the requested range; the server may return it anyway.
	tempo.worklogs = append(tempo.worklogs, worklog(9, 5, "08:00", time.Hour, "PRJ-9"))

	out, stderr, err := runCLI(t, tempo, &fakeJira{}, []string{"worklogs", "--from", "2024-06-03", "--to", "2024-06-04"})
	if err != nil {
		t.Fatalf("worklogs: %v (%s)", err, stderr)
	}
	ws := decodeData[[]worklogOut](t, out)
	if len(ws) != 3 {
		t.Fatalf("worklogs: %+v", ws)
	}
	if ws[0].ID != 1 || ws[1].ID != 2 || ws[2].ID != 3 {
		t.Fatalf("order: %+v", ws)
	}
	if ws[0].TimeSpentSeconds != 5400 || ws[0].Hours != "1.5" || ws[0].StartTime != "09:00" {
		t.Fatalf("first: %+v", ws[0])
	}
	q := tempo.queries[0]
	if q.From != june(3) || q.To != june(4) {
		t.Fatalf("query: %+v", q)
	}
}

func TestWorklogs_SingleDayAndRangeErrors(t *testing.T) {
	isolate(t)
	tempo := juneTempo()
	out, _, err := runCLI(t, tempo, &fakeJira{}, []string{"worklogs", "--from", "2024-06-04"})
	if err != nil {
		t.Fatalf("worklogs: %v", err)
	}
	if ws := decodeData[[]worklogOut](t, out); len(ws) != 1 || ws[0].ID != 3 {
		t.Fatalf("single day: %+v", ws)
	}

	if _, stderr, err := runCLI(t, tempo, &fakeJira{}, []string{"worklogs", "--to", "2024-06-04"}); err == nil || !strings.Contains(string(stderr), "--from") {
		t.Fatalf("--to alone should fail: %v %s", err, stderr)
	}
	if _, stderr, err := runCLI(t, tempo, &fakeJira{}, []string{"worklogs", "--from", "2024-06-05", "--to", "2024-06-04"}); err == nil || !strings.Contains(string(stderr), "before") {
		t.Fatalf("reversed range should fail: %v %s", err, stderr)
	}
}

func TestWhoami(t *testing.T) {
	isolate(t)
	out, stderr, err := runCLI(t, juneTempo(), &fakeJira{user: model.User{AccountID: "acc-1", DisplayName: "Ada"}}, []string{"whoami"})
	if err != nil {
		t.Fatalf("whoami: %v (%s)", err, stderr)
	}
	u := decodeData[model.User](t, out)
	if u.AccountID != "acc-1" || u.DisplayName != "Ada" {
		t.Fatalf("user: %+v", u)
	}
}

func TestConnectErrorIsReported(t *testing.T) {
	isolate(t)
	_, stderr, err := runCLI(t, nil, nil, []string{"whoami"})
	if err == nil || !strings.Contains(string(stderr), "no clients") {
		t.Fatalf("expected connect error, got %v %s", err, stderr)
	}
}

func TestConfig_SetThenShowMasksTokens(t *testing.T) {
	dir := isolate(t)

	if _, stderr, err := runCLI(t, nil, nil, []string{"config", "set", "tempo.access_token", "secret-token-1234"}); err != nil {
		t.Fatalf("set token: %v (%s)", err, stderr)
	}
	if _, stderr, err := runCLI(t, nil, nil, []string{"config", "set", "tempo.first_day_of_week", "6"}); err != nil {
		t.Fatalf("set first day: %v (%s)", err, stderr)
	}

	b, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(b), "secret-token-1234") {
		t.Fatalf("token not saved: %s", b)
	}
	if strings.Contains(string(b), dir+"/tempo.log") {
		t.Fatalf("environment override leaked into the file: %s", b)
	}

	out, stderr, err := runCLI(t, nil, nil, []string{"config", "show"})
	if err != nil {
		t.Fatalf("show: %v (%s)", err, stderr)
	}
	got := map[string]string{}
	for _, e := range decodeData[[]configEntry](t, out) {
		got[e.Key] = e.Value
	}
	if got["tempo.access_token"] != "****1234" {
		t.Fatalf("token not masked: %q", got["tempo.access_token"])
	}
	if got["tempo.first_day_of_week"] != "6" {
		t.Fatalf("first day: %q", got["tempo.first_day_of_week"])
	}
	if got["tempo.api_url"] != "https://api.tempo.io" {
		t.Fatalf("default api url: %q", got["tempo.api_url"])
	}

	out, _, err = runCLI(t, nil, nil, []string{"config", "show", "--reveal"})
	if err != nil || !strings.Contains(string(out), "secret-token-1234") {
		t.Fatalf("--reveal: %v %s", err, out)
	}
}

func TestConfig_SetRejectsBadInput(t *testing.T) {
	isolate(t)
	if _, stderr, err := runCLI(t, nil, nil, []string{"config", "set", "nope", "1"}); err == nil || !strings.Contains(string(stderr), "unknown key") {
		t.Fatalf("unknown key: %v %s", err, stderr)
	}
	if _, _, err := runCLI(t, nil, nil, []string{"config", "set", "tempo.first_day_of_week", "7"}); err == nil {
		t.Fatalf("first_day_of_week 7 should be rejected")
	}
}

func TestVersionShort(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, nil, nil, []string{"version", "--short"})
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(string(out), "dev") {
		t.Fatalf("version: %q", out)
	}
}

func TestUnknownFormat(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, juneTempo(), &fakeJira{}, []string{"whoami", "--format", "yaml"})
	if err == nil {
		t.Fatalf("unknown format should fail")
	}
}
