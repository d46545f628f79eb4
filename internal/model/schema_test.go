package model

import (
	"strings"
	"testing"
	"time"
)

const worklogJSON = `{
  "self": "https://api.tempo.io/2/worklogs/12600",
  "tempoWorklogId": 126,
  "jiraWorklogId": 10100,
  "issue": {"self": "https://instance.atlassian.net/rest/api/2/issue/DUM-1", "key": "DUM-1"},
  "timeSpentSeconds": 3600,
  "billableSeconds": 5200,
  "startDate": "2017-02-06",
  "startTime": "20:06:00",
  "description": "Investigating a problem with our external database system",
  "createdAt": "2017-02-06T16:41:41Z",
  "updatedAt": "2017-02-06T16:41:42Z",
  "author": {"self": "https://instance.atlassian.net/rest/api/2/user?username=johnb", "accountId": "41321:32521-531-53151j51-51341", "displayName": "John Brown"},
  "attributes": {
    "self": "https://api.tempo.io/2/worklogs/126/work-attribute-values",
    "values": [
      {"key": "_DELIVERED_", "value": true},
      {"key": "_EXTERNALREF_", "value": "EXT-44556"},
      {"key": "_COLOR_", "value": "red"}
    ]
  }
}`

func TestWorklogSchema_DecodesTempoPayload(t *testing.T) {
	w, err := WorklogSchema.DecodeJSON([]byte(worklogJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.SelfLink != "https://api.tempo.io/2/worklogs/12600" {
		t.Fatalf("self link: got %q", w.SelfLink)
	}
	if w.ID != 126 || w.JiraWorklogID != 10100 {
		t.Fatalf("ids: got %d/%d", w.ID, w.JiraWorklogID)
	}
	if w.Author.AccountID != "41321:32521-531-53151j51-51341" || w.Author.DisplayName != "John Brown" {
		t.Fatalf("author: got %+v", w.Author)
	}
	if w.Billable != 5200*time.Second {
		t.Fatalf("billable: got %v", w.Billable)
	}
	if w.TimeSpent != time.Hour {
		t.Fatalf("time spent: got %v", w.TimeSpent)
	}
	if !strings.HasPrefix(w.Description, "Investigating") {
		t.Fatalf("description: got %q", w.Description)
	}
	if want := time.Date(2017, 2, 6, 16, 41, 41, 0, time.UTC); !w.CreatedAt.Equal(want) {
		t.Fatalf("createdAt: got %v want %v", w.CreatedAt, want)
	}
	if want := time.Date(2017, 2, 6, 16, 41, 42, 0, time.UTC); !w.UpdatedAt.Equal(want) {
		t.Fatalf("updatedAt: got %v want %v", w.UpdatedAt, want)
	}
	if want := time.Date(2017, 2, 6, 20, 6, 0, 0, time.UTC); !w.Started.Equal(want) {
		t.Fatalf("started: got %v want %v", w.Started, want)
	}
	if w.Issue.Key != "DUM-1" {
		t.Fatalf("issue: got %+v", w.Issue)
	}
	if len(w.Attributes) != 3 || w.Attributes[1].Value != "EXT-44556" {
		t.Fatalf("attributes: got %+v", w.Attributes)
	}
	if w.Date() != (Date{2017, time.February, 6}) {
		t.Fatalf("date: got %v", w.Date())
	}
}

func TestWorklogSchema_MissingRequiredField(t *testing.T) {
	_, err := WorklogSchema.DecodeJSON([]byte(`{"tempoWorklogId": 1}`))
	if err == nil {
		t.Fatalf("expected error for missing required fields")
	}
}

func TestScheduleList_AcceptsResultsObjectAndBareArray(t *testing.T) {
	obj := `{"metadata": {"count": 2}, "results": [
	  {"date": "2024-06-03", "requiredSeconds": 28800, "type": "WORKING_DAY"},
	  {"date": "2024-06-08", "requiredSeconds": 0, "type": "HOLIDAY", "holiday": {"name": "Midsummer", "durationSeconds": 28800}}
	]}`
	got, meta, err := Schedules.DecodeJSON([]byte(obj))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta == nil || meta.Count != 2 {
		t.Fatalf("metadata: got %+v", meta)
	}
	if len(got) != 2 {
		t.Fatalf("len: got %d", len(got))
	}
	if got[0].Required != 8*time.Hour || got[0].Holiday != nil {
		t.Fatalf("first schedule: got %+v", got[0])
	}
	if got[1].Holiday == nil || got[1].Holiday.Name != "Midsummer" || got[1].Holiday.Description != "" {
		t.Fatalf("holiday: got %+v", got[1].Holiday)
	}

	bare := `[{"date": "2024-06-04", "requiredSeconds": 3600, "type": "WORKING_DAY"}]`
	got, meta, err = Schedules.DecodeJSON([]byte(bare))
	if err != nil {
		t.Fatalf("decode bare: %v", err)
	}
	if meta != nil || len(got) != 1 || got[0].Date != (Date{2024, time.June, 4}) {
		t.Fatalf("bare: got %+v meta=%v", got, meta)
	}
}

func TestListOf_PanicsWithoutElementSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = ListOf(Schema[Worklog]{})
}

func TestIssueGroups_DecodePickerSections(t *testing.T) {
	body := `[{"label": "History Search", "id": "hs", "issues": [
	  {"id": 10001, "key": "ABC-1", "summaryText": "Fix login"},
	  {"id": 10002, "key": "ABC-2", "summaryText": "Write docs"}
	]}, {"label": "Current Search", "id": "cs", "issues": []}]`
	groups, _, err := IssueGroups.DecodeJSON([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 2 || len(groups[0].Issues) != 2 || len(groups[1].Issues) != 0 {
		t.Fatalf("groups: got %+v", groups)
	}
	if got := groups[0].Issues[0]; got.Key != "ABC-1" || got.ID != "10001" || got.Summary != "Fix login" {
		t.Fatalf("issue: got %+v", got)
	}
}

func TestCamelKey(t *testing.T) {
	cases := map[string]string{
		"key":             "key",
		"account_id":      "accountId",
		"jira_worklog_id": "jiraWorklogId",
	}
	for in, want := range cases {
		if got := camelKey(in); got != want {
			t.Fatalf("camelKey(%q): got %q want %q", in, got, want)
		}
	}
}
