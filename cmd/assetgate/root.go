package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meshworks/assetgate/internal/rules"
)

// errGateFailed signals that the gate evaluated and found unresolved
// errors. It maps to exit code 1; every other failure is a configuration
// or load problem and maps to exit code 2, so CI never conflates "the
// asset is broken" with "the gate could not run".
var errGateFailed = errors.New("gate failed: unresolved errors remain")

var rootCmd = &cobra.Command{
	Use:   "assetgate",
	Short: "Rule-driven validation & auto-fix gate for 3D asset scenes",
	Long: `Assetgate inspects a scene snapshot against a declarative ruleset,
reports violations with severities, and deterministically repairs the
fixable subset.

The auto-fix loop is bounded and stall-aware: fixes apply in structural
dependency order (sanitize, transform, topology, surface, metadata), the
scene is re-validated after each pass, and the session terminates as soon
as it is clean, stops making progress, or hits the iteration bound.

Exit codes (for CI gating):
  0  clean - no error-severity violations remain
  1  unresolved errors remain (or the session stalled / hit its bound)
  2  configuration or load error - the gate could not be evaluated`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps errors onto the exit-code
// convention.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errGateFailed) {
			os.Exit(1)
		}

		var cfgErr *rules.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("✗"), cfgErr)
		} else {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("✗"), err)
		}
		os.Exit(2)
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// printStatus writes a colored status symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
