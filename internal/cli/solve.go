package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/dshills/colsolve/internal/config"
	"github.com/dshills/colsolve/internal/output"
	"github.com/dshills/colsolve/internal/providers"
	"github.com/dshills/colsolve/internal/solver"
	"github.com/dshills/colsolve/internal/transposition"
	"github.com/spf13/cobra"
)

// Solve flags
var (
	flagFormat   string
	flagOut      string
	flagProvider string
	flagEndpoint string
	flagModel    string
	flagStrategy string
	flagSamples  int
	flagSeed     uint64
	flagNoRefine bool
	flagNoCache  bool
	flagProgress bool
)

func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(output.Formats, ", ")+")")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "Oracle provider ("+strings.Join(providers.Names, ", ")+")")
	cmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Oracle endpoint URL")
	cmd.Flags().StringVar(&flagModel, "model", "", "Oracle model name")
	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "Sampling strategy for wide grids (random, climb)")
	cmd.Flags().IntVar(&flagSamples, "samples", 0, "Column orders tried per wide grid")
	cmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Random seed for sampling (0 picks one)")
	cmd.Flags().BoolVar(&flagNoRefine, "no-refine", false, "Skip the oracle pass")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the refinement cache")
	cmd.Flags().BoolVar(&flagProgress, "progress", false, "Report per-grid progress on stderr")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagProvider != "" {
		m["oracle.provider"] = flagProvider
	}
	if flagEndpoint != "" {
		m["oracle.endpoint"] = flagEndpoint
	}
	if flagModel != "" {
		m["oracle.model"] = flagModel
	}
	if flagStrategy != "" {
		m["solver.strategy"] = flagStrategy
	}
	if flagSamples > 0 {
		m["solver.samples"] = strconv.Itoa(flagSamples)
	}
	if flagSeed > 0 {
		m["solver.seed"] = strconv.FormatUint(flagSeed, 10)
	}
	if flagNoRefine {
		m["refine.enabled"] = "false"
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

// readCiphertext joins the positional arguments, or reads stdin when there
// are none.
func readCiphertext(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, ""), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runSolve(cmd *cobra.Command, ciphertext string, cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := solver.New(cfg)
	if err != nil {
		fail(err)
		return
	}
	defer eng.Close()

	var progress transposition.ProgressFunc
	if flagProgress {
		progress = func(fraction float64, dim transposition.Dimension) {
			fmt.Fprintf(cmd.ErrOrStderr(), "searching %s (%3.0f%%)\n", dim, fraction*100)
		}
	}

	report, err := eng.Run(ctx, ciphertext, progress)
	if err != nil {
		fail(err)
		return
	}

	if err := writeReport(cmd, report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if report.Status == solver.StatusNoDimensions {
		exitCode = ExitNoCandidates
	}
}

func writeReport(cmd *cobra.Command, report *solver.Report, format, out string) error {
	if out != "" {
		return output.WriteReport(report, format, out)
	}
	w, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

// fail reports err on stderr and picks the matching exit code.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, transposition.ErrInvalidCiphertext):
		exitCode = ExitUsageError
	case providers.IsAuthError(err):
		exitCode = ExitAuthError
	default:
		exitCode = ExitRuntimeError
	}
}

var solveCmd = &cobra.Command{
	Use:   "solve [ciphertext]",
	Short: "Search every grid shape and rank candidate plaintexts",
	Long: "Solve reads ciphertext from the arguments or stdin, keeps only letters, and " +
		"prints the ranked candidate readings. Exit status 1 means the length is prime " +
		"and no grid shape exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}
		ct, err := readCiphertext(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runSolve(cmd, ct, cfg)
		return nil
	},
}

func init() {
	addSolveFlags(solveCmd)
}
