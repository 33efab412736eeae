package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// maxPreviewRuns caps NextRuns so a bad caller can't loop for long.
const maxPreviewRuns = 50

// Parser validates cron expressions and previews their next run times.
// It accepts the standard 5-field grammar plus descriptors ("@daily").
type Parser struct {
	p cron.Parser
}

func NewParser() *Parser {
	return &Parser{
		p: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Validate reports whether the expression can be scheduled.
func (p *Parser) Validate(expr string) error {
	if _, err := p.p.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextRuns returns up to n activation times strictly after from.
// Times are in from's location.
func (p *Parser) NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > maxPreviewRuns {
		n = maxPreviewRuns
	}
	sched, err := p.p.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// FormatRuns renders run times as a comma separated list, the way previews
// show them.
func FormatRuns(runs []time.Time) string {
	if len(runs) == 0 {
		return "-"
	}
	b := make([]byte, 0, len(runs)*21)
	for i, t := range runs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = t.AppendFormat(b, "2006-01-02 15:04")
	}
	return string(b)
}
