package cli

import (
	"fmt"

	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/spf13/cobra"
)

var (
	getDefaultFlag   string
	getMustExistFlag bool
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Print one configuration value",
	Long: `Get prints the value at a dotted path. Scalars are printed as text,
mappings and sequences as YAML. Missing or empty values print the default.

Examples:
  expconf get -e a000 JOBS.SIM.WALLCLOCK
  expconf get -e a000 DEFAULT.HPCARCH --default local
  expconf get -e a000 PLATFORMS.MN5.HOST --must-exist`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getDefaultFlag, "default", "d", "", "value printed when the path is missing or empty")
	getCmd.Flags().BoolVar(&getMustExistFlag, "must-exist", false, "fail when the path is missing or empty")
}

func runGet(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	v, err := e.GetSection(splitArgPath(args), getDefaultFlag, getMustExistFlag)
	if err != nil {
		return err
	}

	switch tree.KindOf(v) {
	case tree.KindMapping, tree.KindSequence:
		return writeYAML(cmd.OutOrStdout(), v)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), tree.String(v))
		return nil
	}
}
