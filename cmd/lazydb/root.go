package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazydb/internal/app"
	"github.com/rebeliceyang/lazydb/internal/config"
	"github.com/rebeliceyang/lazydb/internal/credentials"
	"github.com/rebeliceyang/lazydb/internal/db/connection"
	"github.com/rebeliceyang/lazydb/internal/db/metadata"
	"github.com/rebeliceyang/lazydb/internal/db/query"
	"github.com/rebeliceyang/lazydb/internal/history"
	"github.com/rebeliceyang/lazydb/internal/keymap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configPath  string
	keyBindPath string
}

// execute runs the CLI and returns the process exit code
func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "lazydb",
		Short:         "Terminal browser for MySQL, PostgreSQL and SQLite",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config-path", "c", "", "config file (default: <user config dir>/lazydb/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&opts.keyBindPath, "key-bind-path", "k", "", "key binding file (default: <user config dir>/lazydb/keybindings.yaml)")

	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newPasswordCmd(opts))
	return rootCmd
}

// loadStartup reads everything that must be valid before the UI starts
func loadStartup(opts *rootOptions) (*config.Config, *keymap.Keymap, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	overrides, err := config.LoadKeyBindings(opts.keyBindPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, keymap.Default().Merge(overrides), nil
}

func run(opts *rootOptions) error {
	cfg, km, err := loadStartup(opts)
	if err != nil {
		return err
	}

	logger, closer := openLogger(cfg)
	defer closer.Close()
	slog.SetDefault(logger)
	logger.Info("starting lazydb", "version", version, "config", cfg.Path, "connections", len(cfg.Connections))
	cfg.Connections = credentials.NewPasswordStore().Fill(cfg.Connections, logger)

	execOpts := query.Options{
		PageSize: cfg.General.PageSize,
		Timeout:  cfg.QueryTimeout(),
		Logger:   logger,
	}
	if cfg.History.Enabled {
		if store, err := openHistory(cfg); err != nil {
			logger.Warn("query history disabled", "error", err)
		} else {
			defer store.Close()
			execOpts.Recorder = store
		}
	}

	manager := connection.NewManager(nil, logger)
	defer manager.CloseAll()
	executor := query.NewExecutor(manager, metadata.NewCache(), execOpts)
	defer executor.Close()

	model := app.New(app.Options{
		Config:   cfg,
		Keymap:   km,
		Executor: executor,
		Logger:   logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// openLogger falls back to a discarding logger when the log file cannot be
// opened; the terminal belongs to the UI.
func openLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	path, err := config.LogPath()
	if err == nil {
		logger, closer, err := config.SetupLogger(path, cfg.LogLevel)
		if err == nil {
			return logger, closer
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.NewStore(path)
}
