package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pubsched/internal/schedule"
	"pubsched/internal/tasks"
)

func newGenerateCmd() *cobra.Command {
	f := &scheduleFlags{}
	var strict bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile a schedule shape into a cron expression",
		Example: `  pubsched generate --type daily --at 09:30
  pubsched generate --type weekly --at 18:00 --days mon,wed,fri
  pubsched generate --type specific_times --times 08:00,12:30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, v, err := f.build()
			if err != nil {
				return err
			}
			c := schedule.Compile(t, v)
			if c.Fallback != nil {
				if strict {
					return fmt.Errorf("schedule not usable: %w", c.Fallback)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: using default %q: %v\n", c.Expr, c.Fallback)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Expr)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of falling back to the default expression")
	return cmd
}

type classifyOutput struct {
	Type     string          `json:"type"`
	Values   schedule.Values `json:"values"`
	Summary  string          `json:"summary"`
	Fallback string          `json:"fallback,omitempty"`
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <cron expression>",
		Short:   "Recover the schedule shape of a cron expression",
		Example: `  pubsched classify "0 9 * * 1,3,5"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := schedule.Classify(strings.Join(args, " "))
			out := classifyOutput{Type: c.Type.String(), Values: c.Values, Summary: schedule.Summarize(c)}
			if c.Fallback != nil {
				out.Fallback = c.Fallback.Error()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <cron expression>",
		Short: "Render a cron expression as a sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), schedule.Describe(strings.Join(args, " ")))
			return nil
		},
	}
}

func newNextCmd(opts *rootOptions) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "next <cron expression>",
		Short: "Preview upcoming runs of a cron expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc := tasks.New(nil, nil, opts.consoleLogger())
			svc.SetPreviewRuns(cfg.PreviewRuns())
			if n > 0 {
				svc.SetPreviewRuns(n)
			}
			p := svc.Preview(strings.Join(args, " "))
			if p.Err != nil {
				return p.Err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, p.Summary)
			for _, t := range p.NextRuns {
				fmt.Fprintln(w, t.Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 0, "number of runs (default from preview.next_runs)")
	return cmd
}
