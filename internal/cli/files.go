package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// filesCmd represents the files command
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the documents merged into the configuration",
	Long: `Files lists the source documents in merge order: the primary documents
followed by custom documents in discovery order.`,
	RunE: runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	for _, doc := range e.Documents() {
		modified := "absent"
		if doc.Exists {
			modified = doc.ModTime.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-10s  %-25s  %s\n", doc.Role, modified, doc.Path)
	}
	return nil
}
