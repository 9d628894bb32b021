package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/meshworks/assetgate/internal/report"
)

var watchRules string

// watchDebounce coalesces the write bursts editors produce when saving.
const watchDebounce = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <scene.json>",
	Short: "Re-validate a scene snapshot whenever it changes",
	Long: `Watch validates the scene once, then re-validates on every write to
the snapshot file until interrupted. Each change runs a fresh validation
session against the current file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRules, "rules", "", "Ruleset file (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	scenePath := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watchValidateOnce(ctx, scenePath); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save,
	// which drops file-level watches.
	if err := watcher.Add(filepath.Dir(scenePath)); err != nil {
		return fmt.Errorf("watch %s: %w", scenePath, err)
	}

	printStatus("⚠", fmt.Sprintf("watching %s (ctrl-c to stop)", scenePath), color.FgYellow)

	var pending *time.Timer
	changed := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(scenePath) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(watchDebounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			fmt.Println()
			if err := watchValidateOnce(ctx, scenePath); err != nil {
				printStatus("✗", err.Error(), color.FgRed)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printStatus("⚠", fmt.Sprintf("watch error: %v", err), color.FgYellow)
		}
	}
}

// watchValidateOnce runs a single validation pass and prints the report.
// Gate failures are printed, not returned: the watch keeps running.
func watchValidateOnce(ctx context.Context, scenePath string) error {
	env, err := setupGate(scenePath, watchRules)
	if err != nil {
		return err
	}

	ctrl := env.newController(nil, 1, false)
	rep, err := ctrl.Validate(ctx)
	if err != nil {
		return err
	}

	sr := report.Aggregate(rep, "", nil)
	return printReport(sr, false)
}
