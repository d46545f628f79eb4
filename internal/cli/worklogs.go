package cli

import (
	"sort"
	"strconv"
	"time"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"
	"tempo-cli/internal/week"

	"github.com/spf13/cobra"
)

// worklogOut is the scriptable shape of a worklog: durations in seconds and hours
// instead of Go duration values.
type worklogOut struct {
	ID               int        `json:"id"`
	IssueKey         string     `json:"issueKey"`
	Date             model.Date `json:"date"`
	StartTime        string     `json:"startTime"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	Hours            string     `json:"hours"`
	Description      string     `json:"description"`
	AuthorAccountID  string     `json:"authorAccountId,omitempty"`
}

type worklogList []worklogOut

func (l worklogList) Header() []string {
	return []string{"ID", "DATE", "START", "ISSUE", "HOURS", "DESCRIPTION"}
}

func (l worklogList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, w := range l {
		rows = append(rows, []string{strconv.Itoa(w.ID), w.Date.String(), w.StartTime, w.IssueKey, w.Hours + "h", w.Description})
	}
	return rows
}

func toWorklogOut(w model.Worklog) worklogOut {
	return worklogOut{
		ID:               w.ID,
		IssueKey:         w.Issue.Key,
		Date:             w.Date(),
		StartTime:        w.Started.Format("15:04"),
		TimeSpentSeconds: int(w.TimeSpent / time.Second),
		Hours:            week.Hours(w.TimeSpent),
		Description:      w.Description,
		AuthorAccountID:  w.Author.AccountID,
	}
}

func newWorklogsCmd(app *App) *cobra.Command {
	var from string
	var to string

	cmd := &cobra.Command{
		Use:   "worklogs",
		Short: "List worklogs in a date range (default: the current week)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dayRange(app, from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := commandContext(cmd)
			tempo, _, err := app.clients(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			ws, err := gateway.Call(ctx, app.gw, gateway.FetchWorklogs(tempo, api.WorklogQuery{
				AccountID: app.cfg.Tempo.AccountID,
				From:      start,
				To:        end,
			}))
			if err != nil {
				return writeErr(cmd, describeRemote("fetch worklogs", err))
			}

			// Same order as the week view: by start time, stable for ties.
			sort.SliceStable(ws, func(i, j int) bool { return ws[i].Started.Before(ws[j].Started) })
			out := worklogList{}
			for _, w := range ws {
				if d := w.Date(); d.Before(start) || d.After(end) {
					continue
				}
				out = append(out, toWorklogOut(w))
			}
			return writeData(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, inclusive (YYYY-MM-DD, default --from)")
	return cmd
}
