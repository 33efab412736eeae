package schedule

import (
	"testing"
	"time"
)

func TestDescribe(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cron string
		want string
	}{
		{"* * * * *", "every minute"},
		{"0 0 * * *", "daily at midnight"},
		{"00 00 * * *", "daily at midnight"},
		{"30 14 * * *", "daily at 14:30"},
		{"5 9 * * *", "daily at 09:05"},
		{"15 * * * *", "every hour at minute 15"},
		{"*/5 * * * *", "cron expression: */5 * * * *"},
		{"0 9 * * 1,3,5", "cron expression: 0 9 * * 1,3,5"},
		{"15 * * * 1", "cron expression: 15 * * * 1"},
		{"0,30 9 * * *", "cron expression: 0,30 9 * * *"},
		{"garbage", "cron expression: garbage"},
		{"", "cron expression: "},
	}
	for _, tt := range tests {
		if got := Describe(tt.cron); got != tt.want {
			t.Fatalf("Describe(%q) = %q, want %q", tt.cron, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cron string
		want string
	}{
		{"*/5 * * * *", "every 5 minutes"},
		{"*/1 * * * *", "every minute"},
		{"20 * * * *", "every hour at minute 20"},
		{"0 0 * * *", "daily at midnight"},
		{"0,30 9,17 * * *", "daily at 09:00, 17:30"},
		{"0 9 * * 1,3,5", "weekly on Mon, Wed, Fri at 09:00"},
		{"45 3 15 * *", "monthly on day 15 at 03:45"},
		{"0 9-17 * * *", "cron expression: 0 9-17 * * *"},
		{"broken", "daily at 09:00"},
	}
	for _, tt := range tests {
		if got := Summarize(Classify(tt.cron)); got != tt.want {
			t.Fatalf("Summarize(%q) = %q, want %q", tt.cron, got, tt.want)
		}
	}
}

func TestParserNextRuns(t *testing.T) {
	t.Parallel()
	p := NewParser()
	from := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	runs, err := p.NextRuns("0 9 * * *", from, 3)
	if err != nil {
		t.Fatalf("NextRuns error: %v", err)
	}
	want := []time.Time{
		time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC),
	}
	if len(runs) != len(want) {
		t.Fatalf("len(runs) = %d, want %d", len(runs), len(want))
	}
	for i := range want {
		if !runs[i].Equal(want[i]) {
			t.Fatalf("runs[%d] = %v, want %v", i, runs[i], want[i])
		}
	}

	if got := FormatRuns(runs[:2]); got != "2024-03-01 09:00, 2024-03-02 09:00" {
		t.Fatalf("FormatRuns = %q", got)
	}
}

func TestParserValidate(t *testing.T) {
	t.Parallel()
	p := NewParser()
	for _, ok := range []string{"*/5 * * * *", "0 9 * * 1,3,5", "@daily", Generate(Monthly, Values{DayOfMonth: 31})} {
		if err := p.Validate(ok); err != nil {
			t.Fatalf("Validate(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"not a cron at all", "61 * * * *", "* * *"} {
		if err := p.Validate(bad); err == nil {
			t.Fatalf("Validate(%q) expected error", bad)
		}
	}
	if runs, err := p.NextRuns("* * * * *", time.Now(), 0); err != nil || runs != nil {
		t.Fatalf("NextRuns n=0 = %v, %v", runs, err)
	}
}
