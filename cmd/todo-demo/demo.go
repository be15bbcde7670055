package main

import (
	"context"
	"io"
	"os"

	"todo-demo/internal/config"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
	"todo-demo/internal/tui"
	"todo-demo/pkg/logger"

	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var (
		theme   string
		debug   bool
		seed    bool
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Interactive terminal demo over an in-process mock store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if !cmd.Flags().Changed("theme") {
				theme = cfg.Theme
			}
			if !cmd.Flags().Changed("debug") {
				debug = cfg.DebugPanel
			}

			// the alternate screen owns stdout
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			logger.Configure(cfg.LogLevel, "text", w)

			ctx := cmd.Context()
			// seeded without delay, latency is applied in front of the store
			s := store.New(store.Options{StrictListRef: cfg.StrictListRef})
			if seed {
				if err := seedDemo(ctx, s); err != nil {
					return err
				}
			}
			ds := store.WithLatency(s, cfg.Latency())
			return tui.Run(ctx, ds, s, tui.Options{Theme: theme, Debug: debug})
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "classic", "classic, neon or mono")
	cmd.Flags().BoolVar(&debug, "debug", false, "show the debug panel")
	cmd.Flags().BoolVar(&seed, "seed", true, "start with sample lists")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}

func seedDemo(ctx context.Context, s store.DataStore) error {
	type entry struct {
		title    string
		priority models.Priority
	}
	sample := []struct {
		list  string
		items []entry
	}{
		{"Groceries", []entry{{"Milk", models.PriorityP2}, {"Eggs", models.PriorityP1}, {"Coffee", models.PriorityP3}}},
		{"Work", []entry{{"Write report", models.PriorityP1}, {"Review PR", models.PriorityP2}}},
	}
	ctx = context.WithoutCancel(ctx)
	for _, l := range sample {
		created, err := s.CreateList(ctx, l.list)
		if err != nil {
			return err
		}
		for _, it := range l.items {
			if _, err := s.CreateItem(ctx, created.ID, it.title, it.priority); err != nil {
				return err
			}
		}
	}
	return nil
}
