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
	"github.com/meshworks/assetgate/internal/session"
	"github.com/meshworks/assetgate/pkg/models"
)

var (
	fixRules         string
	fixSelect        []string
	fixJSON          bool
	fixMaxIterations int
	fixBestEffort    bool
	fixOut           string
	fixNoHistory     bool
)

var fixCmd = &cobra.Command{
	Use:   "fix <scene.json>",
	Short: "Auto-fix a scene, re-validating until clean, stalled or bounded",
	Long: `Fix drives the validate-fix-revalidate loop against a scene snapshot.

Repairs apply in structural dependency order: history removal first, then
transform freezing, topology repairs, normals/UV corrections, and finally
naming and material fixes. After each pass the scene is re-validated; the
session ends as soon as it is clean, the violation set stops changing
(stalled), or the iteration bound is reached.

Use --out to write the repaired scene to a new snapshot file. By default
the input file is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixRules, "rules", "", "Ruleset file (default from config)")
	fixCmd.Flags().StringSliceVar(&fixSelect, "select", nil, "Restrict fixing to these target paths")
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "Emit the machine-readable JSON report")
	fixCmd.Flags().IntVar(&fixMaxIterations, "max-iterations", 0, "Validation pass bound (default from config)")
	fixCmd.Flags().BoolVar(&fixBestEffort, "best-effort", false, "Exclude failed fixes from the pass gate")
	fixCmd.Flags().StringVar(&fixOut, "out", "", "Write the repaired scene to this snapshot file")
	fixCmd.Flags().BoolVar(&fixNoHistory, "no-history", false, "Skip archiving the session")
}

func runFix(cmd *cobra.Command, args []string) error {
	scenePath := args[0]

	env, err := setupGate(scenePath, fixRules)
	if err != nil {
		return err
	}

	maxIterations := env.cfg.Fix.MaxIterations
	if fixMaxIterations > 0 {
		maxIterations = fixMaxIterations
	}
	bestEffort := env.cfg.Fix.BestEffort || fixBestEffort

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := env.newController(fixSelect, maxIterations, bestEffort)
	sess, runErr := ctrl.Run(ctx)
	if sess.FinalReport() == nil {
		// Cancelled before the first validation pass completed.
		return fmt.Errorf("session cancelled: %w", runErr)
	}

	sr := report.Aggregate(sess.FinalReport(), sess.Outcome, sess.FixResults)

	if !fixNoHistory && env.cfg.History.Enabled {
		archiveSession(env, scenePath, sess, sr)
	}

	if fixOut != "" {
		if err := env.scn.SaveFile(fixOut); err != nil {
			return err
		}
	}

	if err := printReport(sr, fixJSON); err != nil {
		return err
	}
	if !fixJSON {
		printOutcome(sess)
	}

	if runErr != nil {
		return fmt.Errorf("session cancelled: %w", runErr)
	}
	if sr.ExitCode() != 0 {
		return errGateFailed
	}
	return nil
}

// archiveSession stores the terminated session; archive trouble is
// reported but never blocks the gate decision.
func archiveSession(env *gateEnv, scenePath string, sess *session.Session, sr *report.SerializedReport) {
	path := env.cfg.History.Path
	if path == "" {
		path = session.DefaultStorePath()
	}

	store, err := session.OpenStore(path)
	if err != nil {
		printStatus("⚠", fmt.Sprintf("history unavailable: %v", err), color.FgYellow)
		return
	}
	defer store.Close()

	data, err := sr.JSON()
	if err == nil {
		err = store.Save(scenePath, sess, data)
	}
	if err != nil {
		printStatus("⚠", fmt.Sprintf("archive session: %v", err), color.FgYellow)
	}
}

// printOutcome summarizes the session's terminal state.
func printOutcome(sess *session.Session) {
	msg := fmt.Sprintf("session %s: %s after %d iteration(s)", sess.ID, sess.Outcome, sess.Iterations)
	switch sess.Outcome {
	case models.OutcomeClean:
		printStatus("✓", msg, color.FgGreen)
	case models.OutcomeStalled:
		printStatus("✗", msg+" - fix pass made no progress", color.FgRed)
	case models.OutcomeMaxIterations:
		printStatus("✗", msg+" - iteration bound reached", color.FgRed)
	default:
		printStatus("⚠", msg, color.FgYellow)
	}
}
