package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meshworks/assetgate/internal/config"
	"github.com/meshworks/assetgate/internal/session"
	"github.com/meshworks/assetgate/pkg/models"
)

var (
	historyLimit int
	historyPurge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived fix sessions",
	Long: `History lists recently archived auto-fix sessions with their outcome,
iteration count and remaining errors, newest first. Session reports are
kept so non-convergence can be diagnosed after the fact.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum sessions to list")
	historyCmd.Flags().DurationVar(&historyPurge, "purge-older-than", 0, "Delete sessions older than this duration first")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path := cfg.History.Path
	if path == "" {
		path = session.DefaultStorePath()
	}

	store, err := session.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyPurge > 0 {
		n, err := store.PurgeOlderThan(historyPurge)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d session(s)\n", n)
	}

	sessions, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no archived sessions")
		return nil
	}

	for _, s := range sessions {
		symbol, attr := "✗", color.FgRed
		if s.Outcome == string(models.OutcomeClean) {
			symbol, attr = "✓", color.FgGreen
		}
		printStatus(symbol, fmt.Sprintf("%s  %s  %s  %d iteration(s), %d error(s) remaining  %s",
			s.ID, s.FinishedAt.Local().Format(time.RFC3339), s.Outcome, s.Iterations, s.ErrorsRemaining, s.Scene), attr)
	}
	return nil
}
