package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/colsolve/internal/cache"
	"github.com/dshills/colsolve/internal/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the refinement cache",
}

func openCache(cfg config.Config) (cache.Store, error) {
	s, err := cache.Open(cache.Config{
		Enabled: true,
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
		TTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return s, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached refinements",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		c, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		if !cfg.Cache.Enabled {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		c, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
