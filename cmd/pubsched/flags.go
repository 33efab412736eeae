package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pubsched/internal/schedule"
)

// scheduleFlags collects a schedule shape from the command line. --values
// takes raw JSON; the other flags are shortcuts that override it.
type scheduleFlags struct {
	typ      string
	values   string
	interval int
	minute   int
	at       string
	times    string
	days     string
	day      int
	expr     string
}

func (f *scheduleFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.typ, "type", "", "schedule shape: "+typeList())
	fl.StringVar(&f.values, "values", "", `schedule values as JSON, e.g. '{"hour_of_day":9}'`)
	fl.IntVar(&f.interval, "interval", 0, "minutes between runs (every_n_minutes)")
	fl.IntVar(&f.minute, "minute", -1, "minute of the hour (hourly)")
	fl.StringVar(&f.at, "at", "", "time of day HH:MM (daily, weekly, monthly)")
	fl.StringVar(&f.times, "times", "", "comma separated HH:MM list (specific_times)")
	fl.StringVar(&f.days, "days", "", "comma separated weekdays, 0-6 or sun..sat (weekly)")
	fl.IntVar(&f.day, "day", 0, "day of month 1-31 (monthly)")
	fl.StringVar(&f.expr, "expr", "", "raw cron expression (custom)")
	_ = cmd.MarkFlagRequired("type")
}

func typeList() string {
	names := make([]string, 0, len(schedule.Types()))
	for _, t := range schedule.Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

func (f *scheduleFlags) build() (schedule.Type, schedule.Values, error) {
	t, ok := schedule.ParseType(f.typ)
	if !ok {
		return schedule.TypeUnset, schedule.Values{}, fmt.Errorf("unknown --type %q (want one of %s)", f.typ, typeList())
	}

	var v schedule.Values
	if strings.TrimSpace(f.values) != "" {
		if err := json.Unmarshal([]byte(f.values), &v); err != nil {
			return t, v, fmt.Errorf("--values: %w", err)
		}
	}

	if f.interval != 0 {
		v.MinutesInterval = f.interval
	}
	if f.minute >= 0 {
		v.MinuteOfHour = f.minute
	}
	if f.at != "" {
		h, m, err := parseHHMM(f.at)
		if err != nil {
			return t, v, fmt.Errorf("--at: %w", err)
		}
		v.HourOfDay, v.MinuteOfDay = h, m
		v.HourOfWeek, v.MinuteOfWeek = h, m
		v.HourOfMonth, v.MinuteOfMonth = h, m
	}
	if f.times != "" {
		v.SpecificTimes = nil
		for _, part := range strings.Split(f.times, ",") {
			h, m, err := parseHHMM(part)
			if err != nil {
				return t, v, fmt.Errorf("--times: %w", err)
			}
			v.SpecificTimes = append(v.SpecificTimes, schedule.TimeOfDay{Hour: h, Minute: m})
		}
	}
	if f.days != "" {
		days, err := parseDays(f.days)
		if err != nil {
			return t, v, fmt.Errorf("--days: %w", err)
		}
		v.DaysOfWeek = days
	}
	if f.day != 0 {
		v.DayOfMonth = f.day
	}
	if f.expr != "" {
		v.RawExpression = f.expr
	}
	return t, v, nil
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

var dayNames = map[string]int{"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6}

func parseDays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if d, ok := dayNames[p[:min(3, len(p))]]; ok {
			out = append(out, d)
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}
