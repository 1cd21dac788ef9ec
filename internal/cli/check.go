package cli

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/expconf/internal/placeholder"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report references that could not be resolved",
	Long: `Check loads the configuration and reports every %NAME% reference left in
the unified tree, whether its target exists, and any reference cycles.

Exits non-zero when anything is reported.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	report := placeholder.Diagnose(e.Snapshot())
	out := cmd.OutOrStdout()

	if report.OK() {
		fmt.Fprintln(out, "✓ All references resolved")
		return nil
	}

	for _, issue := range report.Issues {
		reason := "no such key"
		if issue.Exists {
			reason = "target is empty or unresolved"
		}
		fmt.Fprintf(out, "%s: %%%s%% (%s)\n", issue.Key, issue.Name, reason)
	}
	for _, cycle := range report.Cycles {
		fmt.Fprintf(out, "cycle: %s\n", strings.Join(cycle, " -> "))
	}

	return fmt.Errorf("%d unresolved reference(s), %d cycle(s)", len(report.Issues), len(report.Cycles))
}
