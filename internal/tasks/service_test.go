package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pubsched/internal/eventbus"
	"pubsched/internal/schedule"
	"pubsched/internal/storage"
	logx "pubsched/pkg/logx"
)

var testNow = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC) // a Monday

func newTestService(t *testing.T) (*Service, eventbus.Bus) {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "tasks")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	bus := eventbus.New()
	s := New(st, bus, logx.Nop())
	s.now = func() time.Time { return testNow }
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("task-%d", seq)
	}
	return s, bus
}

func TestSaveAndEdit(t *testing.T) {
	t.Parallel()
	s, bus := newTestService(t)
	events, unsub := bus.Subscribe(4)
	defer unsub()
	ctx := context.Background()

	saved, err := s.Save(ctx, Draft{
		Name:    "weekday digest",
		Type:    schedule.Weekly,
		Values:  schedule.Values{HourOfWeek: 9, MinuteOfWeek: 0, DaysOfWeek: []int{5, 3, 1}},
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID != "task-1" || saved.Cron != "0 9 * * 1,3,5" || saved.Type != "weekly" {
		t.Fatalf("saved = %+v", saved)
	}
	if ev := <-events; ev.Type != eventbus.TaskSaved {
		t.Fatalf("event = %+v", ev)
	}

	ed, err := s.Edit(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	c := ed.Preview.Classification
	if c.Type != schedule.Weekly || len(c.Values.DaysOfWeek) != 3 || c.Values.HourOfWeek != 9 {
		t.Fatalf("classification = %+v", c)
	}
	if ed.Preview.Summary != "weekly on Mon, Wed, Fri at 09:00" {
		t.Fatalf("summary = %q", ed.Preview.Summary)
	}
	if len(ed.Preview.NextRuns) != defaultPreviewRuns {
		t.Fatalf("next runs = %v", ed.Preview.NextRuns)
	}
	if first := ed.Preview.NextRuns[0]; !first.Equal(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("first run = %v", first)
	}
}

func TestSaveUpdateKeepsCreatedAt(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Save(ctx, Draft{Name: "hourly", Type: schedule.Hourly, Values: schedule.Values{MinuteOfHour: 5}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := s.Save(ctx, Draft{ID: first.ID, Name: "hourly", Type: schedule.Hourly, Values: schedule.Values{MinuteOfHour: 10}})
	if err != nil {
		t.Fatalf("Save update: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("timestamps: first=%+v second=%+v", first, second)
	}
	if second.Cron != "10 * * * *" {
		t.Fatalf("cron = %q", second.Cron)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestSaveRejectsBadDrafts(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	tests := []struct {
		name string
		d    Draft
		want error
	}{
		{name: "no name", d: Draft{Type: schedule.Daily}, want: ErrInvalidTask},
		{name: "no times", d: Draft{Name: "x", Type: schedule.SpecificTimes}, want: schedule.ErrNoTimes},
		{name: "no days", d: Draft{Name: "x", Type: schedule.Weekly}, want: schedule.ErrNoDays},
		{name: "unset type", d: Draft{Name: "x"}, want: schedule.ErrUnknownType},
		{name: "custom not schedulable", d: Draft{Name: "x", Type: schedule.Custom, Values: schedule.Values{RawExpression: "not a cron at all"}}, want: ErrInvalidSchedule},
	}
	for _, tt := range tests {
		if _, err := s.Save(ctx, tt.d); !errors.Is(err, tt.want) {
			t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	if list, _ := s.List(ctx); len(list) != 0 {
		t.Fatalf("rejected drafts were stored: %+v", list)
	}
}

func TestSetEnabledAndDelete(t *testing.T) {
	t.Parallel()
	s, bus := newTestService(t)
	ctx := context.Background()

	tk, err := s.Save(ctx, Draft{Name: "custom", Type: schedule.Custom, Values: schedule.Values{RawExpression: "0 9-17 * * 1-5"}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	events, unsub := bus.Subscribe(4)
	defer unsub()

	tk, err = s.SetEnabled(ctx, tk.ID, true)
	if err != nil || !tk.Enabled {
		t.Fatalf("SetEnabled = %+v, %v", tk, err)
	}
	if err := s.Delete(ctx, tk.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ev := <-events; ev.Type != eventbus.TaskSaved {
		t.Fatalf("event 1 = %s", ev.Type)
	}
	if ev := <-events; ev.Type != eventbus.TaskDeleted {
		t.Fatalf("event 2 = %s", ev.Type)
	}
	if _, err := s.Edit(ctx, tk.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Edit after delete err = %v", err)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()
	s := New(nil, nil, logx.Nop())
	s.now = func() time.Time { return testNow }
	s.SetPreviewRuns(2)

	p := s.Preview(" 30 14 * * * ")
	if p.Err != nil || p.Description != "daily at 14:30" || len(p.NextRuns) != 2 {
		t.Fatalf("preview = %+v", p)
	}
	if p.Classification.Type != schedule.Daily {
		t.Fatalf("classification = %+v", p.Classification)
	}

	bad := s.Preview("nope")
	if bad.Err == nil || bad.Classification.Fallback == nil || bad.Description != "cron expression: nope" {
		t.Fatalf("bad preview = %+v", bad)
	}

	if _, err := s.Save(context.Background(), Draft{Name: "x", Type: schedule.Daily}); !errors.Is(err, ErrNoStore) {
		t.Fatalf("Save without store err = %v", err)
	}
}
