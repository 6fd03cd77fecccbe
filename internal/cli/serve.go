package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/colsolve/internal/logger"
	"github.com/dshills/colsolve/internal/server"
	"github.com/dshills/colsolve/internal/solver"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the solver over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagAddr != "" {
			overrides["server.addr"] = flagAddr
		}
		cfg, err := loadConfig(overrides)
		if err != nil {
			return err
		}

		eng, err := solver.New(cfg, solver.WithLogger(logger.Named("solver")))
		if err != nil {
			fail(err)
			return nil
		}
		defer eng.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(cfg.Server, eng, logger.Named("server"))
		fmt.Fprintf(cmd.ErrOrStderr(), "colsolve listening on %s (refinement %s)\n", srv.Addr(), onOff(eng.Refines()))
		if err := srv.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&flagNoRefine, "no-refine", false, "Skip the oracle pass")
	serveCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the refinement cache")
}
