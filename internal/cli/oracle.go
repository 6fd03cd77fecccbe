package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dshills/colsolve/internal/providers"
	"github.com/spf13/cobra"
)

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Plausibility oracle management",
}

type providerInfo struct {
	Description string
	Models      []string
}

var providerDetails = map[string]providerInfo{
	"completions": {
		Description: "any chat-completions endpoint; set oracle.endpoint",
	},
	"openai": {
		Description: "OpenAI API; key from COLSOLVE_ORACLE_API_KEY or OPENAI_API_KEY",
		Models:      []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	},
	"ollama": {
		Description: "local Ollama or LM Studio server (default http://localhost:11434)",
		Models:      []string{"llama3.2", "llama3.1", "qwen2.5", "mistral"},
	},
}

var oracleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported oracle providers",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, name := range providers.Names {
			info := providerDetails[name]
			if info.Description == "" {
				fmt.Fprintln(out, name)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", name, info.Description)
			for _, m := range info.Models {
				fmt.Fprintf(out, "  - %s\n", m)
			}
		}
	},
}

var oracleDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured oracle answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", cfg.Oracle.Provider)

		p, err := providers.New(providers.Settings{
			Provider: cfg.Oracle.Provider,
			Endpoint: cfg.Oracle.Endpoint,
			Model:    cfg.Oracle.Model,
			APIKey:   cfg.Oracle.APIKey,
			Timeout:  time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			switch {
			case errors.Is(err, providers.ErrNotConfigured):
				exitCode = ExitUsageError
			case providers.IsAuthError(err):
				exitCode = ExitAuthError
			default:
				exitCode = ExitRuntimeError
			}
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Complete(ctx, providers.CompletionRequest{
			Prompt:    "Respond with exactly: ok",
			MaxTokens: 10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", p.Name())
		return nil
	},
}

func init() {
	oracleCmd.AddCommand(oracleListCmd)
	oracleCmd.AddCommand(oracleDoctorCmd)
	oracleDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	oracleDoctorCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Endpoint to check")
	oracleDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to request")
}
