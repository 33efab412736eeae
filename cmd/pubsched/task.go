package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pubsched/internal/schedule"
	"pubsched/internal/tasks"
)

// withTasks opens the configured store for the duration of fn.
func withTasks(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc *tasks.Service) error) error {
	_, cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	log := opts.consoleLogger()
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := tasks.New(st, nil, log)
	svc.SetPreviewRuns(cfg.PreviewRuns())
	return fn(cmd.Context(), svc)
}

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage stored publication tasks",
	}
	cmd.AddCommand(
		newTaskSaveCmd(opts),
		newTaskListCmd(opts),
		newTaskShowCmd(opts),
		newTaskRemoveCmd(opts),
	)
	return cmd
}

func newTaskSaveCmd(opts *rootOptions) *cobra.Command {
	f := &scheduleFlags{}
	var (
		id, name, note string
		disabled       bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a task from a schedule shape",
		Example: `  pubsched task save --name "morning digest" --type daily --at 09:00
  pubsched task save --id 3f2c... --name "morning digest" --type weekly --at 09:00 --days mon,tue,wed,thu,fri`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, v, err := f.build()
			if err != nil {
				return err
			}
			return withTasks(cmd, opts, func(ctx context.Context, svc *tasks.Service) error {
				saved, err := svc.Save(ctx, tasks.Draft{ID: id, Name: name, Type: t, Values: v, Enabled: !disabled, Note: note})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", saved.ID, saved.Cron, schedule.Describe(saved.Cron))
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&id, "id", "", "existing task id to update")
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "store the task disabled")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTaskListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTasks(cmd, opts, func(ctx context.Context, svc *tasks.Service) error {
				list, err := svc.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCRON\tENABLED\tSCHEDULE")
				for _, t := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", t.ID, t.Name, t.Cron, t.Enabled, schedule.Summarize(schedule.Classify(t.Cron)))
				}
				return tw.Flush()
			})
		},
	}
}

func newTaskShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its recovered schedule shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, opts, func(ctx context.Context, svc *tasks.Service) error {
				ed, err := svc.Edit(ctx, args[0])
				if err != nil {
					return err
				}
				c := ed.Preview.Classification
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "id:       %s\n", ed.Task.ID)
				fmt.Fprintf(w, "name:     %s\n", ed.Task.Name)
				fmt.Fprintf(w, "cron:     %s\n", ed.Task.Cron)
				fmt.Fprintf(w, "enabled:  %v\n", ed.Task.Enabled)
				fmt.Fprintf(w, "shape:    %s\n", c.Type)
				fmt.Fprintf(w, "describe: %s\n", ed.Preview.Description)
				fmt.Fprintf(w, "summary:  %s\n", ed.Preview.Summary)
				fmt.Fprintf(w, "next:     %s\n", schedule.FormatRuns(ed.Preview.NextRuns))
				if c.Fallback != nil {
					fmt.Fprintf(w, "fallback: %v\n", c.Fallback)
				}
				return nil
			})
		},
	}
}

func newTaskRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, opts, func(ctx context.Context, svc *tasks.Service) error {
				return svc.Delete(ctx, args[0])
			})
		},
	}
}
