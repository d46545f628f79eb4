// Package week holds the state behind the weekly calendar: a 7-day window of
// worklogs and schedules, the focused day, and the selected worklog.
//
// View is not safe for concurrent use. It is owned by the UI loop; fetch results are
// handed to it as messages.
package week

import (
	"sort"
	"time"

	"tempo-cli/internal/model"
)

const Days = 7

// Window returns the first and last day of the week containing d.
// firstDay uses 0 = Monday ... 6 = Sunday.
func Window(d model.Date, firstDay int) (from, to model.Date) {
	from = d
	for from.MondayIndex() != firstDay {
		from = from.AddDays(-1)
	}
	return from, from.AddDays(Days - 1)
}

type View struct {
	firstDay int
	focus    model.Date
	from     model.Date
	to       model.Date

	days      map[model.Date][]model.Worklog
	schedules map[model.Date]model.Schedule

	worklogsLoaded  bool
	schedulesLoaded bool

	// selectedID is the Tempo id of the selected worklog; 0 means nothing is selected.
	selectedID int

	// generation increases on every Reset so that late results for an older window
	// can be recognized and dropped.
	generation int

	// saved holds worklogs stored through Upsert in this generation. A fetch issued
	// before the save may answer after it; these entries are laid over its snapshot.
	saved map[int]model.Worklog
}

func New(focus model.Date, firstDay int) *View {
	v := &View{firstDay: firstDay}
	v.Reset(focus)
	return v
}

// Reset moves the window to the week containing focus and pre-seeds all seven days
// with empty worklog lists.
func (v *View) Reset(focus model.Date) {
	v.focus = focus
	v.from, v.to = Window(focus, v.firstDay)
	v.days = make(map[model.Date][]model.Worklog, Days)
	for d := v.from; !d.After(v.to); d = d.AddDays(1) {
		v.days[d] = []model.Worklog{}
	}
	v.schedules = map[model.Date]model.Schedule{}
	v.worklogsLoaded = false
	v.schedulesLoaded = false
	v.selectedID = 0
	v.saved = map[int]model.Worklog{}
	v.generation++
}

func (v *View) Range() (from, to model.Date) { return v.from, v.to }
func (v *View) Focus() model.Date            { return v.focus }
func (v *View) Generation() int              { return v.generation }
func (v *View) WorklogsLoaded() bool         { return v.worklogsLoaded }
func (v *View) SchedulesLoaded() bool        { return v.schedulesLoaded }

// Dates returns the seven days of the window in order.
func (v *View) Dates() []model.Date {
	out := make([]model.Date, 0, Days)
	for d := v.from; !d.After(v.to); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Contains reports whether d is one of the window's days.
func (v *View) Contains(d model.Date) bool {
	_, ok := v.days[d]
	return ok
}

func (v *View) Worklogs(d model.Date) []model.Worklog { return v.days[d] }

func (v *View) Schedule(d model.Date) (model.Schedule, bool) {
	s, ok := v.schedules[d]
	return s, ok
}

// Worked sums the time spent on d.
func (v *View) Worked(d model.Date) time.Duration {
	var total time.Duration
	for _, w := range v.days[d] {
		total += w.TimeSpent
	}
	return total
}

// MergeWorklogs replaces the window's worklogs with ws. Entries are ordered by start
// time; entries starting at the same time keep their arrival order. Entries outside
// the window are ignored.
func (v *View) MergeWorklogs(ws []model.Worklog) {
	sorted := make([]model.Worklog, len(ws))
	copy(sorted, ws)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Started.Before(sorted[j].Started) })

	for d := range v.days {
		v.days[d] = []model.Worklog{}
	}
	for _, w := range sorted {
		d := w.Date()
		if _, ok := v.days[d]; !ok {
			continue
		}
		v.days[d] = append(v.days[d], w)
	}
	for _, w := range v.saved {
		v.place(w)
	}
	v.worklogsLoaded = true
	v.ensureSelection()
}

func (v *View) MergeSchedules(ss []model.Schedule) {
	for _, s := range ss {
		if !v.Contains(s.Date) {
			continue
		}
		v.schedules[s.Date] = s
	}
	v.schedulesLoaded = true
}

// Move shifts the focused day by delta days. It reports whether the new focus left
// the window, in which case the window has been reset and must be fetched again.
func (v *View) Move(delta int) (refetch bool) {
	next := v.focus.AddDays(delta)
	if v.Contains(next) {
		v.focus = next
		v.ensureSelection()
		return false
	}
	v.Reset(next)
	return true
}

// Selected returns the selected worklog of the focused day.
func (v *View) Selected() (model.Worklog, bool) {
	if v.selectedID == 0 {
		return model.Worklog{}, false
	}
	for _, w := range v.days[v.focus] {
		if w.ID == v.selectedID {
			return w, true
		}
	}
	return model.Worklog{}, false
}

func (v *View) selectedIndex() int {
	for i, w := range v.days[v.focus] {
		if w.ID == v.selectedID {
			return i
		}
	}
	return -1
}

// SelectNext moves the selection down within the focused day.
func (v *View) SelectNext() bool {
	ws := v.days[v.focus]
	i := v.selectedIndex()
	if i < 0 || i+1 >= len(ws) {
		return false
	}
	v.selectedID = ws[i+1].ID
	return true
}

// SelectPrev moves the selection up within the focused day.
func (v *View) SelectPrev() bool {
	ws := v.days[v.focus]
	i := v.selectedIndex()
	if i <= 0 {
		return false
	}
	v.selectedID = ws[i-1].ID
	return true
}

// Upsert stores a worklog returned by a successful create or update. Any entry with
// the same id is removed first. When the worklog falls inside the window, the focus
// moves to its day and it becomes the selection. The entry survives later merges of
// the same generation.
func (v *View) Upsert(w model.Worklog) {
	v.saved[w.ID] = w
	if !v.place(w) {
		v.ensureSelection()
		return
	}
	v.focus = w.Date()
	v.selectedID = w.ID
}

// place removes any copy of w and inserts w in start order. It reports whether w's
// day is in the window.
func (v *View) place(w model.Worklog) bool {
	for d, ws := range v.days {
		kept := ws[:0:0]
		for _, old := range ws {
			if old.ID != w.ID {
				kept = append(kept, old)
			}
		}
		v.days[d] = kept
	}

	d := w.Date()
	ws, ok := v.days[d]
	if !ok {
		return false
	}
	i := sort.Search(len(ws), func(i int) bool { return ws[i].Started.After(w.Started) })
	ws = append(ws, model.Worklog{})
	copy(ws[i+1:], ws[i:])
	ws[i] = w
	v.days[d] = ws
	return true
}

// ensureSelection keeps the selection inside the focused day, falling back to the
// day's first worklog or nothing.
func (v *View) ensureSelection() {
	if v.selectedIndex() >= 0 && v.selectedID != 0 {
		return
	}
	if ws := v.days[v.focus]; len(ws) > 0 {
		v.selectedID = ws[0].ID
		return
	}
	v.selectedID = 0
}

// SelectionValid reports whether the selection is empty or a member of the focused day.
func (v *View) SelectionValid() bool {
	if v.selectedID == 0 {
		return true
	}
	return v.selectedIndex() >= 0
}
