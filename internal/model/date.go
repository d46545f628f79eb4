package model

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day without a time zone. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func Today() Date { return DateOf(time.Now()) }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// MondayIndex returns 0 for Monday through 6 for Sunday.
func (d Date) MondayIndex() int { return (int(d.Weekday()) + 6) % 7 }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }
func (d Date) After(o Date) bool  { return d.Time().After(o.Time()) }
func (d Date) IsZero() bool       { return d == Date{} }

func (d Date) String() string { return d.Time().Format(DateFormat) }

// Human renders e.g. "Mon 2024-06-03".
func (d Date) Human() string { return d.Time().Format("Mon " + DateFormat) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
