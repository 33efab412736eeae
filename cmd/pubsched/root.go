package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"pubsched/internal/app"
	"pubsched/internal/config"
	"pubsched/internal/storage"
	logx "pubsched/pkg/logx"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pubsched",
		Short: "Publication schedule compiler and task store",
		Long: `pubsched turns schedule shapes (every N minutes, daily, weekly, ...) into
cron expressions, recovers shapes from stored expressions, and keeps the
publication tasks that use them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "./config.json", "path to config (json or yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "console log level for commands that don't load a config")

	cmd.AddCommand(
		newGenerateCmd(),
		newClassifyCmd(),
		newDescribeCmd(),
		newNextCmd(opts),
		newTaskCmd(opts),
		newBotCmd(opts),
	)
	return cmd
}

func (o *rootOptions) consoleLogger() logx.Logger { return logx.NewConsole(o.logLevel) }

// loadConfig returns an empty config when the default path does not exist,
// so preview commands work without any setup.
func (o *rootOptions) loadConfig() (*config.ConfigManager, *config.Config, error) {
	m := config.NewConfigManager(o.configPath)
	cfg, err := m.Load()
	if errors.Is(err, os.ErrNotExist) {
		cfg = &config.Config{}
		m.Commit(cfg)
		return m, cfg, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// openStore opens the configured store and treats a disabled store as an error.
func openStore(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	st, err := app.OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("no storage configured (set storage.driver and storage.path)")
	}
	return st, nil
}
