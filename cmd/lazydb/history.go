package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazydb/internal/config"
	"github.com/rebeliceyang/lazydb/internal/history"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the statements issued by previous sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("query history is disabled in %s", cfg.Path)
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []history.Entry
			if search != "" {
				entries, err = store.Search(search, limit)
			} else {
				entries, err = store.Recent(limit)
			}
			if err != nil {
				return err
			}
			return printEntries(cmd, entries)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only list statements containing this text")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of statements")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []history.Entry) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers("EXECUTED", "CONNECTION", "DURATION", "ROWS", "STATUS", "STATEMENT")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "error: " + e.ErrorMessage
		}
		t.Row(
			e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			e.ConnectionID,
			e.Duration.String(),
			strconv.Itoa(e.RowCount),
			status,
			strings.Join(strings.Fields(e.Statement), " "),
		)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return err
}
