package model

import (
	"time"
)

const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02T15:04:05Z"
	TimeFormat     = "15:04:05"
)

type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

type Issue struct {
	ID      string `json:"id,omitempty"`
	Key     string `json:"key"`
	Summary string `json:"summary,omitempty"`
}

// IssueGroup is one section of an issue search result (e.g. "History Search").
type IssueGroup struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Issues []Issue `json:"issues"`
}

type AttributeValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type Worklog struct {
	ID            int              `json:"id"`
	JiraWorklogID int              `json:"jiraWorklogId,omitempty"`
	SelfLink      string           `json:"self,omitempty"`
	Issue         Issue            `json:"issue"`
	Author        User             `json:"author"`
	Description   string           `json:"description"`
	TimeSpent     time.Duration    `json:"timeSpent"`
	Billable      time.Duration    `json:"billable"`
	Started       time.Time        `json:"started"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Attributes    []AttributeValue `json:"attributes,omitempty"`
}

// Date returns the calendar day the worklog was started on.
func (w Worklog) Date() Date { return DateOf(w.Started) }

type Holiday struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type Schedule struct {
	Date     Date          `json:"date"`
	Required time.Duration `json:"required"`
	Type     string        `json:"type"`
	Holiday  *Holiday      `json:"holiday,omitempty"`
}

type Metadata struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	// Next is the URL of the following page; empty on the last one.
	Next string `json:"next,omitempty"`
}
