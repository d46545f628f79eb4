package cli

import (
	"fmt"
	"strconv"
	"time"

	"tempo-cli/internal/api"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/model"
	"tempo-cli/internal/week"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type daySummary struct {
	Date            model.Date `json:"date"`
	Weekday         string     `json:"weekday"`
	WorkedSeconds   int        `json:"workedSeconds"`
	RequiredSeconds int        `json:"requiredSeconds"`
	Progress        string     `json:"progress"`
	UnderTarget     bool       `json:"underTarget"`
	Holiday         string     `json:"holiday,omitempty"`
	Entries         int        `json:"entries"`
}

type weekSummary struct {
	From model.Date   `json:"from"`
	To   model.Date   `json:"to"`
	Days []daySummary `json:"days"`
}

func (s weekSummary) Header() []string {
	return []string{"DAY", "HOURS", "ENTRIES", "NOTE"}
}

func (s weekSummary) Rows() [][]string {
	under := color.New(color.FgRed).SprintFunc()
	met := color.New(color.FgGreen).SprintFunc()

	rows := make([][]string, 0, len(s.Days))
	for _, d := range s.Days {
		progress := met(d.Progress)
		if d.UnderTarget {
			progress = under(d.Progress)
		}
		rows = append(rows, []string{d.Date.Human(), progress, strconv.Itoa(d.Entries), d.Holiday})
	}
	return rows
}

func summarize(v *week.View) weekSummary {
	from, to := v.Range()
	out := weekSummary{From: from, To: to}
	for _, d := range v.Dates() {
		worked := v.Worked(d)
		s := daySummary{
			Date:          d,
			Weekday:       d.Weekday().String(),
			WorkedSeconds: int(worked / time.Second),
			Entries:       len(v.Worklogs(d)),
		}
		var required time.Duration
		if sch, ok := v.Schedule(d); ok {
			required = sch.Required
			if sch.Holiday != nil {
				s.Holiday = sch.Holiday.Name
			}
		}
		s.RequiredSeconds = int(required / time.Second)
		s.Progress = week.Progress(worked, required)
		s.UnderTarget = week.UnderTarget(worked, required)
		out.Days = append(out.Days, s)
	}
	return out
}

func newWeekCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show logged and required hours for each day of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			focus, err := parseDateFlag("date", date)
			if err != nil {
				return writeErr(cmd, err)
			}
			if focus.IsZero() {
				focus = model.Today()
			}
			ctx := commandContext(cmd)
			tempo, _, err := app.clients(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			v := week.New(focus, app.cfg.Tempo.FirstDayOfWeek)
			from, to := v.Range()
			account := app.cfg.Tempo.AccountID

			ws, err := gateway.Call(ctx, app.gw, gateway.FetchWorklogs(tempo, api.WorklogQuery{AccountID: account, From: from, To: to}))
			if err != nil {
				return writeErr(cmd, describeRemote("fetch worklogs", err))
			}
			ss, err := gateway.Call(ctx, app.gw, gateway.FetchSchedules(tempo, api.ScheduleQuery{AccountID: account, From: from, To: to}))
			if err != nil {
				return writeErr(cmd, describeRemote("fetch schedules", err))
			}
			v.MergeWorklogs(ws)
			v.MergeSchedules(ss)

			app.log.Info("week summary", "from", from.String(), "to", to.String(), "worklogs", len(ws))
			return writeData(cmd, app, summarize(v))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week to show (YYYY-MM-DD, default today)")
	return cmd
}

// dayRange validates --from/--to and fills in defaults: the current week when both are
// empty, a single day when only --from is set.
func dayRange(app *App, fromFlag, toFlag string) (model.Date, model.Date, error) {
	from, err := parseDateFlag("from", fromFlag)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	to, err := parseDateFlag("to", toFlag)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	switch {
	case from.IsZero() && to.IsZero():
		from, to = week.Window(model.Today(), app.cfg.Tempo.FirstDayOfWeek)
	case from.IsZero():
		return model.Date{}, model.Date{}, errUsage("from", "required when --to is set")
	case to.IsZero():
		to = from
	}
	if to.Before(from) {
		return model.Date{}, model.Date{}, errUsage("to", fmt.Sprintf("%s is before --from %s", to, from))
	}
	return from, to, nil
}
