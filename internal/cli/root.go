package cli

import (
	"fmt"

	"github.com/dshills/colsolve/internal/config"
	"github.com/dshills/colsolve/internal/logger"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitNoCandidates = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "colsolve",
	Short: "Columnar transposition cipher solver",
	Long: "colsolve factors the ciphertext length into grid shapes, searches column orders " +
		"for each shape, ranks readings by English n-gram evidence and optionally asks a " +
		"language model to restore spacing on the best few.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(dimensionsCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(oracleCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// loadConfig resolves the effective config and initialises the root logger
// from it.
func loadConfig(overrides map[string]string) (config.Config, error) {
	if flagVerbose {
		if overrides == nil {
			overrides = make(map[string]string)
		}
		overrides["log.level"] = "debug"
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print colsolve version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "colsolve version %s\n", version)
	},
}
