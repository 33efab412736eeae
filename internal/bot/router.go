// Package bot answers schedule preview commands over a chat transport and
// forwards task change events to a log chat.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pubsched/internal/eventbus"
	"pubsched/internal/schedule"
	"pubsched/internal/storage"
	"pubsched/internal/tasks"
	kit "pubsched/internal/transport"
	logx "pubsched/pkg/logx"
)

// Sender is the part of transport.Adapter the router needs.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error
}

type Config struct {
	OwnerUserIDs []int64
	LogChatID    int64
	RatePerSec   int
}

type handler func(ctx context.Context, args string) (string, error)

type access int

const (
	accessEveryone access = iota
	// accessOwnerOnly requires the sender in OwnerUserIDs; an empty list denies everyone.
	accessOwnerOnly
)

type command struct {
	desc    string
	usage   string
	access  access
	handler handler
}

type Router struct {
	sender Sender
	tasks  *tasks.Service
	log    logx.Logger

	mu     sync.RWMutex
	cfg    Config
	owners map[int64]bool

	limMu    sync.Mutex
	limiters map[int64]*rate.Limiter

	cmds map[string]command
}

func NewRouter(cfg Config, sender Sender, svc *tasks.Service, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		sender:   sender,
		tasks:    svc,
		log:      log,
		limiters: map[int64]*rate.Limiter{},
	}
	r.Apply(cfg)
	r.cmds = map[string]command{
		"describe": {desc: "describe a cron expression", usage: "/describe 0 9 * * 1-5", handler: r.cmdDescribe},
		"classify": {desc: "recover the editor form of a cron expression", usage: "/classify 0,30 9,17 * * *", handler: r.cmdClassify},
		"next":     {desc: "show upcoming runs", usage: "/next */15 * * * *", handler: r.cmdNext},
		"tasks":    {desc: "list stored tasks", usage: "/tasks", access: accessOwnerOnly, handler: r.cmdTasks},
		"task":     {desc: "show one task", usage: "/task <id>", access: accessOwnerOnly, handler: r.cmdTask},
		"enable":   {desc: "enable a task", usage: "/enable <id>", access: accessOwnerOnly, handler: r.toggle(true)},
		"disable":  {desc: "disable a task", usage: "/disable <id>", access: accessOwnerOnly, handler: r.toggle(false)},
	}
	return r
}

// Apply swaps the router config (owners, log chat, rate). Existing per-chat
// limiters are dropped so the new rate takes effect.
func (r *Router) Apply(cfg Config) {
	owners := make(map[int64]bool, len(cfg.OwnerUserIDs))
	for _, id := range cfg.OwnerUserIDs {
		owners[id] = true
	}
	r.mu.Lock()
	r.cfg = cfg
	r.owners = owners
	r.mu.Unlock()

	r.limMu.Lock()
	r.limiters = map[int64]*rate.Limiter{}
	r.limMu.Unlock()
}

// Commands returns the command menu, sorted by name.
func (r *Router) Commands() []kit.BotCommand {
	out := make([]kit.BotCommand, 0, len(r.cmds)+1)
	out = append(out, kit.BotCommand{Command: "help", Description: "list commands"})
	for name, c := range r.cmds {
		out = append(out, kit.BotCommand{Command: name, Description: c.desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Run handles incoming messages and bus events until ctx is done or in closes.
func (r *Router) Run(ctx context.Context, in <-chan kit.Message, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			r.Handle(ctx, m)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.notify(ctx, ev)
		}
	}
}

// Handle answers a single message. Non-commands are ignored; owner-only
// commands from anyone else get "unauthorized".
func (r *Router) Handle(ctx context.Context, m kit.Message) {
	name, args, ok := parseCommand(m.Text)
	if !ok {
		return
	}
	if !r.limiter(m.ChatID).Allow() {
		r.log.Debug("command rate limited", logx.Int64("chat", m.ChatID), logx.String("cmd", name))
		return
	}
	to := kit.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID}
	if c, ok := r.cmds[name]; ok && c.access == accessOwnerOnly && !r.isOwner(m.FromID) {
		r.log.Warn("owner-only command denied", logx.Int64("from", m.FromID), logx.String("cmd", name))
		r.reply(ctx, to, "unauthorized")
		return
	}

	start := time.Now()
	reply, err := r.dispatch(ctx, name, args)
	if err != nil {
		r.log.Warn("command failed", logx.String("cmd", name), logx.Err(err))
		reply = "error: " + err.Error()
	} else {
		r.log.Debug("command handled", logx.String("cmd", name), logx.Duration("took", time.Since(start)))
	}
	r.reply(ctx, to, reply)
}

func (r *Router) dispatch(ctx context.Context, name, args string) (string, error) {
	if name == "help" || name == "start" {
		return r.help(), nil
	}
	c, ok := r.cmds[name]
	if !ok {
		return "unknown command /" + name + ", try /help", nil
	}
	return c.handler(ctx, args)
}

func (r *Router) help() string {
	var b strings.Builder
	b.WriteString("commands:\n")
	for _, c := range r.Commands() {
		if cmd, ok := r.cmds[c.Command]; ok {
			fmt.Fprintf(&b, "%s - %s\n", cmd.usage, cmd.desc)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) isOwner(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owners[userID]
}

func (r *Router) limiter(chatID int64) *rate.Limiter {
	r.mu.RLock()
	rps := r.cfg.RatePerSec
	r.mu.RUnlock()
	if rps <= 0 {
		rps = 1
	}

	r.limMu.Lock()
	defer r.limMu.Unlock()
	l, ok := r.limiters[chatID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(rps), rps*3)
		r.limiters[chatID] = l
	}
	return l
}

func (r *Router) reply(ctx context.Context, to kit.ChatTarget, text string) {
	if r.sender == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r.sender.SendText(sctx, to, text, &kit.SendOptions{DisablePreview: true}); err != nil {
		r.log.Warn("send reply failed", logx.Int64("chat", to.ChatID), logx.Err(err))
	}
}

func (r *Router) notify(ctx context.Context, ev eventbus.Event) {
	r.mu.RLock()
	chatID := r.cfg.LogChatID
	r.mu.RUnlock()
	if chatID == 0 {
		return
	}
	t, ok := ev.Data.(storage.Task)
	if !ok {
		return
	}
	var text string
	switch ev.Type {
	case eventbus.TaskSaved:
		text = fmt.Sprintf("task saved: %s (%s)\n%s\n%s", t.Name, t.ID, t.Cron, schedule.Summarize(schedule.Classify(t.Cron)))
	case eventbus.TaskDeleted:
		text = fmt.Sprintf("task deleted: %s (%s)", t.Name, t.ID)
	default:
		return
	}
	r.reply(ctx, kit.ChatTarget{ChatID: chatID}, text)
}

// ---- commands ----

var errNoArgs = errors.New("missing argument")

func (r *Router) cmdDescribe(_ context.Context, args string) (string, error) {
	if args == "" {
		return "", fmt.Errorf("%w: cron expression", errNoArgs)
	}
	p := r.tasks.Preview(args)
	return fmt.Sprintf("%s\n%s", p.Description, p.Summary), nil
}

func (r *Router) cmdClassify(_ context.Context, args string) (string, error) {
	if args == "" {
		return "", fmt.Errorf("%w: cron expression", errNoArgs)
	}
	c := schedule.Classify(args)
	vals, err := json.Marshal(c.Values)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "type: %s\nvalues: %s\nsummary: %s", c.Type, vals, schedule.Summarize(c))
	if c.Fallback != nil {
		fmt.Fprintf(&b, "\nfallback: %v", c.Fallback)
	}
	return b.String(), nil
}

func (r *Router) cmdNext(_ context.Context, args string) (string, error) {
	if args == "" {
		return "", fmt.Errorf("%w: cron expression", errNoArgs)
	}
	p := r.tasks.Preview(args)
	if p.Err != nil {
		return "", p.Err
	}
	return "next runs: " + schedule.FormatRuns(p.NextRuns), nil
}

func (r *Router) cmdTasks(ctx context.Context, _ string) (string, error) {
	list, err := r.tasks.List(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "no tasks", nil
	}
	var b strings.Builder
	for _, t := range list {
		state := "on"
		if !t.Enabled {
			state = "off"
		}
		fmt.Fprintf(&b, "[%s] %s  %s  %s\n", state, t.ID, t.Cron, t.Name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Router) cmdTask(ctx context.Context, args string) (string, error) {
	if args == "" {
		return "", fmt.Errorf("%w: task id", errNoArgs)
	}
	ed, err := r.tasks.Edit(ctx, args)
	if err != nil {
		return "", err
	}
	t := ed.Task
	return fmt.Sprintf("%s (%s)\ncron: %s\nshape: %s\n%s\nenabled: %v\nnext: %s",
		t.Name, t.ID, t.Cron, ed.Preview.Classification.Type, ed.Preview.Summary, t.Enabled,
		schedule.FormatRuns(ed.Preview.NextRuns)), nil
}

func (r *Router) toggle(enabled bool) handler {
	return func(ctx context.Context, args string) (string, error) {
		if args == "" {
			return "", fmt.Errorf("%w: task id", errNoArgs)
		}
		t, err := r.tasks.SetEnabled(ctx, args, enabled)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s enabled=%v", t.Name, t.Enabled), nil
	}
}

// parseCommand splits "/cmd@bot args" into ("cmd", "args").
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	head = strings.ToLower(head)
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}
