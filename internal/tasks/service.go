// Package tasks is the form and editor layer around the schedule compiler:
// it validates operator drafts, compiles them to cron, persists the result and
// hydrates editors from stored expressions.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pubsched/internal/eventbus"
	"pubsched/internal/schedule"
	"pubsched/internal/storage"
	logx "pubsched/pkg/logx"
)

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrInvalidTask     = errors.New("invalid task")
	ErrNoStore         = errors.New("task storage is not configured")
)

const defaultPreviewRuns = 5

// Draft is what an editor form submits.
type Draft struct {
	ID      string // empty creates a new task
	Name    string
	Type    schedule.Type
	Values  schedule.Values
	Enabled bool
	Note    string
}

// Preview is everything a live preview shows for one expression.
// NextRuns is empty and Err set when robfig/cron cannot schedule Expr.
type Preview struct {
	Expr           string
	Description    string
	Summary        string
	Classification schedule.Classification
	NextRuns       []time.Time
	Err            error
}

// Editor is a stored task plus the structured form recovered from its cron.
type Editor struct {
	Task    storage.Task
	Preview Preview
}

type Service struct {
	store  storage.Store
	bus    eventbus.Bus
	parser *schedule.Parser
	log    logx.Logger

	previewRuns atomic.Int64

	now   func() time.Time
	newID func() string
}

// New builds the service. store may be nil (preview-only mode); bus may be nil.
func New(store storage.Store, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		store:  store,
		bus:    bus,
		parser: schedule.NewParser(),
		log:    log,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	s.previewRuns.Store(defaultPreviewRuns)
	return s
}

// SetPreviewRuns changes how many upcoming runs previews include.
// Safe to call from a config reload goroutine.
func (s *Service) SetPreviewRuns(n int) {
	if n <= 0 {
		n = defaultPreviewRuns
	}
	s.previewRuns.Store(int64(n))
}

// Preview renders an expression for live feedback. It never fails; problems
// are reported in Preview.Err.
func (s *Service) Preview(expr string) Preview {
	expr = strings.TrimSpace(expr)
	c := schedule.Classify(expr)
	p := Preview{
		Expr:           expr,
		Description:    schedule.Describe(expr),
		Summary:        schedule.Summarize(c),
		Classification: c,
	}
	runs, err := s.parser.NextRuns(expr, s.now(), int(s.previewRuns.Load()))
	if err != nil {
		p.Err = err
		return p
	}
	p.NextRuns = runs
	return p
}

// Compile validates a draft's schedule and returns its cron expression.
// Unlike schedule.Generate it refuses input that would fall back to the default.
func (s *Service) Compile(t schedule.Type, v schedule.Values) (string, error) {
	if err := schedule.Validate(t, v); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	c := schedule.Compile(t, v)
	if c.Fallback != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSchedule, c.Fallback)
	}
	if err := s.parser.Validate(c.Expr); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	return c.Expr, nil
}

// Save compiles and persists a draft, returning the stored task.
func (s *Service) Save(ctx context.Context, d Draft) (storage.Task, error) {
	if s.store == nil {
		return storage.Task{}, ErrNoStore
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return storage.Task{}, fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	expr, err := s.Compile(d.Type, d.Values)
	if err != nil {
		return storage.Task{}, err
	}

	now := s.now().UTC()
	t := storage.Task{
		ID:        strings.TrimSpace(d.ID),
		Name:      name,
		Cron:      expr,
		Type:      d.Type.String(),
		Enabled:   d.Enabled,
		Note:      strings.TrimSpace(d.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.ID == "" {
		t.ID = s.newID()
	} else {
		prev, err := s.store.GetTask(ctx, t.ID)
		switch {
		case err == nil:
			t.CreatedAt = prev.CreatedAt
		case !errors.Is(err, storage.ErrNotFound):
			return storage.Task{}, fmt.Errorf("load task %s: %w", t.ID, err)
		}
	}

	if err := s.store.PutTask(ctx, t); err != nil {
		return storage.Task{}, fmt.Errorf("save task %s: %w", t.ID, err)
	}
	s.log.Info("task saved",
		logx.String("id", t.ID),
		logx.String("name", t.Name),
		logx.String("cron", t.Cron),
		logx.String("type", t.Type),
	)
	s.publish(eventbus.TaskSaved, t)
	return t, nil
}

// Edit loads a task and recovers the editor form from its cron expression.
func (s *Service) Edit(ctx context.Context, id string) (Editor, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Editor{}, err
	}
	p := s.Preview(t.Cron)
	if p.Classification.Fallback != nil {
		s.log.Warn("stored cron could not be classified; editor shows default",
			logx.String("id", t.ID), logx.String("cron", t.Cron), logx.Err(p.Classification.Fallback))
	}
	return Editor{Task: t, Preview: p}, nil
}

func (s *Service) Get(ctx context.Context, id string) (storage.Task, error) {
	if s.store == nil {
		return storage.Task{}, ErrNoStore
	}
	t, err := s.store.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return storage.Task{}, fmt.Errorf("task %s: %w", id, err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]storage.Task, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListTasks(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, t.ID); err != nil {
		return fmt.Errorf("delete task %s: %w", t.ID, err)
	}
	s.log.Info("task deleted", logx.String("id", t.ID), logx.String("name", t.Name))
	s.publish(eventbus.TaskDeleted, t)
	return nil
}

// SetEnabled toggles a task without touching its schedule.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (storage.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return storage.Task{}, err
	}
	if t.Enabled == enabled {
		return t, nil
	}
	t.Enabled = enabled
	t.UpdatedAt = s.now().UTC()
	if err := s.store.PutTask(ctx, t); err != nil {
		return storage.Task{}, fmt.Errorf("save task %s: %w", t.ID, err)
	}
	s.log.Info("task toggled", logx.String("id", t.ID), logx.Bool("enabled", enabled))
	s.publish(eventbus.TaskSaved, t)
	return t, nil
}

func (s *Service) publish(typ string, t storage.Task) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.now(), Data: t})
}
