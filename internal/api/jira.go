package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"tempo-cli/internal/model"
)

// Jira is a client for the Jira Cloud REST API.
type Jira struct {
	client
	Expires string
}

func NewJira(baseURL, token string, log *slog.Logger) *Jira {
	return &Jira{client: newClient(baseURL, token, log)}
}

// AuthByTempo builds a Jira client using a token handed out by Tempo.
func AuthByTempo(ctx context.Context, tempo *Tempo, baseURL string, log *slog.Logger) (*Jira, error) {
	token, expires, err := tempo.JiraToken(ctx)
	if err != nil {
		return nil, err
	}
	j := NewJira(baseURL, token, log)
	j.Expires = expires
	return j, nil
}

func (j *Jira) Myself(ctx context.Context) (model.User, error) {
	b, err := j.do(ctx, http.MethodGet, "/rest/api/3/myself", nil, nil)
	if err != nil {
		return model.User{}, err
	}
	u, err := model.UserSchema.DecodeJSON(b)
	if err != nil {
		return model.User{}, fmt.Errorf("myself: %w", err)
	}
	return u, nil
}

// SearchIssues queries the issue picker, which groups matches into sections
// such as "History Search" and "Current Search".
func (j *Jira) SearchIssues(ctx context.Context, query string) ([]model.IssueGroup, error) {
	b, err := j.do(ctx, http.MethodGet, "/rest/api/3/issue/picker", url.Values{
		"query": {query},
	}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Sections any `json:"sections"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("issue picker: %w", err)
	}
	groups, _, err := model.IssueGroups.Decode(resp.Sections)
	if err != nil {
		return nil, fmt.Errorf("issue picker: %w", err)
	}
	return groups, nil
}
