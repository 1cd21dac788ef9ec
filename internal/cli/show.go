package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [SECTION...]",
	Short: "Print the unified configuration as YAML",
	Long: `Show prints the unified configuration tree after merging, FOR expansion
and placeholder resolution.

Examples:
  # Whole tree
  expconf show -e a000

  # Only some sections (dotted paths are allowed)
  expconf show -e a000 JOBS PLATFORMS.MN5`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(args) == 0 {
		return writeYAML(cmd.OutOrStdout(), e.Snapshot())
	}

	out := tree.Mapping{}
	for _, arg := range args {
		segments := splitArgPath([]string{arg})
		v, err := e.GetSection(segments, nil, true)
		if err != nil {
			return err
		}
		out[strings.ToUpper(tree.JoinPath(segments))] = v
	}
	return writeYAML(cmd.OutOrStdout(), out)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
