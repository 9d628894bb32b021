package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meshworks/assetgate/internal/config"
	"github.com/meshworks/assetgate/internal/rules"
)

var rulesPath string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the loaded ruleset",
	Long: `Rules loads the ruleset the gate would run with and lists every rule
with its category, severity, fix mapping and enabled state. A malformed
ruleset fails the whole load, the same way it would fail a gate run.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesPath, "rules", "", "Ruleset file (default from config)")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := rulesPath
	if path == "" {
		path = cfg.Rules.Path
	}

	ruleset, err := rules.DefaultRegistry().LoadFile(path)
	if err != nil {
		return err
	}

	for _, r := range ruleset.Rules() {
		state := color.New(color.FgGreen).Sprint("enabled")
		if !ruleset.Enabled(r.ID) {
			state = color.New(color.FgYellow).Sprint("disabled")
		}

		fixInfo := "manual"
		if r.Fix != "" {
			fixInfo = "fix: " + string(r.Fix)
		}
		fmt.Printf("%-28s %-10s %-8s %-22s %s\n", r.ID, r.Category, r.Severity, fixInfo, state)
	}
	return nil
}
