package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meshworks/assetgate/internal/report"
)

var (
	validateRules  string
	validateSelect []string
	validateJSON   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <scene.json>",
	Short: "Validate a scene snapshot against the ruleset",
	Long: `Validate runs every enabled rule against a scene snapshot and prints
the violation report. The scene is never modified.

Scope the pass to specific objects with --select; the default is the
whole scene.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateRules, "rules", "", "Ruleset file (default from config)")
	validateCmd.Flags().StringSliceVar(&validateSelect, "select", nil, "Restrict validation to these target paths")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Emit the machine-readable JSON report")
}

func runValidate(cmd *cobra.Command, args []string) error {
	env, err := setupGate(args[0], validateRules)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := env.newController(validateSelect, 1, false)
	rep, err := ctrl.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validation cancelled: %w", err)
	}

	sr := report.Aggregate(rep, "", nil)
	if err := printReport(sr, validateJSON); err != nil {
		return err
	}

	if sr.ExitCode() != 0 {
		return errGateFailed
	}
	return nil
}

// printReport writes either the JSON report or the human-readable
// rendering with a colored verdict line.
func printReport(sr *report.SerializedReport, asJSON bool) error {
	if asJSON {
		data, err := sr.JSON()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	}

	fmt.Print(sr.Text())
	if sr.ExitCode() == 0 {
		printStatus("✓", "PASS", color.FgGreen)
	} else {
		printStatus("✗", "FAIL", color.FgRed)
	}
	return nil
}
