package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar supplies the month names and week label used by derived date
// columns. Month names never come from the host locale.
type Calendar struct {
	Months    [12]string
	WeekLabel string
}

// SpanishCalendar is the calendar the dashboards display.
var SpanishCalendar = Calendar{
	Months: [12]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	},
	WeekLabel: "Semana",
}

// MonthName returns the display name of m.
func (c Calendar) MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return c.Months[m-1]
}

// WeekOfMonth maps a day of month to its week bucket: 1-7 -> 1, 8-14 -> 2,
// 15-21 -> 3, 22-28 -> 4, 29-31 -> 5.
func WeekOfMonth(day int) int {
	return (day-1)/7 + 1
}

// MonthYearLabel formats "Noviembre - 2020".
func (c Calendar) MonthYearLabel(d time.Time) string {
	return fmt.Sprintf("%s - %d", c.MonthName(d.Month()), d.Year())
}

// MonthWeekLabel formats "Enero - Semana 1".
func (c Calendar) MonthWeekLabel(d time.Time) string {
	return fmt.Sprintf("%s - %s %d", c.MonthName(d.Month()), c.WeekLabel, WeekOfMonth(d.Day()))
}

// DateColumns lists the columns Enrich derives, in output order.
var DateColumns = []string{
	ColMonthNumber, ColYear, ColMonthName, ColMonthYear,
	ColDayOfMonth, ColWeekOfMonth, ColWeekLabel, ColMonthWeek,
}

// Enrich returns a copy of t with the derived date columns. Rows whose date
// does not parse keep those cells missing; the record filter normally
// removes such rows before enrichment.
func (c Calendar) Enrich(t Table, dateCol, layout string) Table {
	return t.WithColumns(DateColumns, func(r Record) map[string]string {
		d, ok := ParseDate(r.Value(dateCol), layout)
		if !ok {
			return nil
		}
		week := WeekOfMonth(d.Day())
		return map[string]string{
			ColMonthNumber: strconv.Itoa(int(d.Month())),
			ColYear:        strconv.Itoa(d.Year()),
			ColMonthName:   c.MonthName(d.Month()),
			ColMonthYear:   c.MonthYearLabel(d),
			ColDayOfMonth:  strconv.Itoa(d.Day()),
			ColWeekOfMonth: strconv.Itoa(week),
			ColWeekLabel:   fmt.Sprintf("%s %d", c.WeekLabel, week),
			ColMonthWeek:   c.MonthWeekLabel(d),
		}
	})
}

// dayFirstLayouts are tried in order by ParseDayFirst.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDayFirst parses free-form spreadsheet dates, preferring day-first
// readings of ambiguous values like 03/04/2021 (3 April).
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
