package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mvp-joe/expconf/internal/config"
	"github.com/mvp-joe/expconf/internal/engine"
	"github.com/mvp-joe/expconf/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	rootDir   string
	expID     string
	verbose   bool
	strictKey bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expconf",
	Short: "Inspect the unified configuration of an experiment",
	Long: `expconf reads the configuration documents of an experiment, merges them,
unrolls FOR templates and resolves %NAME% references, then shows the result.

Documents are read from <root>/<expid>/conf:
  autosubmit_<expid>.yml, expdef_<expid>.yml, jobs_<expid>.yml,
  platforms_<expid>.yml, proj_<expid>.yml (optional) and custom_conf/**.

Settings come from $HOME/.expconf.yml (or --config) and EXPCONF_* variables;
flags override both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is $HOME/.expconf.yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "experiments root directory")
	rootCmd.PersistentFlags().StringVarP(&expID, "expid", "e", "", "experiment identifier")
	rootCmd.PersistentFlags().BoolVar(&strictKey, "strict-keys", false, "reject malformed keys instead of dropping them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadSettings reads settings and applies command-line overrides.
func loadSettings() (*config.Settings, error) {
	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		loader = config.NewLoader(home)
	}

	settings, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if rootDir != "" {
		settings.Root = rootDir
	}
	if expID != "" {
		settings.ExpID = expID
	}
	if strictKey {
		settings.StrictKeys = true
	}
	if verbose {
		settings.Log.Level = "debug"
	}

	if err := config.Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// openEngine loads settings, sets up logging and performs the first load.
func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(settings.Log.Level),
		Output: cmd.ErrOrStderr(),
		Pretty: settings.Log.Pretty,
	})

	e, err := engine.New(settings)
	if err != nil {
		return nil, err
	}
	if err := e.Reload(true); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// splitArgPath accepts both "JOBS.SIM" and "JOBS SIM" style paths.
func splitArgPath(args []string) []string {
	var segments []string
	for _, arg := range args {
		for _, seg := range strings.Split(arg, ".") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}
