package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// normalizerCmd groups the operational subcommands the original CLI exposed
// for the normalizer services, beyond the per-run normalization calls the
// transform step already makes: a health check, and a cache invalidation
// this repo can honestly perform since it doesn't own the upstream
// normalizer databases.
var normalizerCmd = &cobra.Command{
	Use:   "normalizer",
	Short: "Check or refresh the normalizer gateway's cached state",
}

var normalizerCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether each normalizer service and the response cache are reachable",
	RunE:  runNormalizerCheck,
}

var normalizerUpdateDBCmd = &cobra.Command{
	Use:   "update-db",
	Short: "Invalidate the cached normalizer responses so the next lookup observes upstream changes",
	RunE:  runNormalizerUpdateDB,
}

func init() {
	normalizerCmd.AddCommand(normalizerCheckCmd)
	normalizerCmd.AddCommand(normalizerUpdateDBCmd)
}

func runNormalizerCheck(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	gw, err := normalizerGatewayFor(cfg, logger)
	if err != nil {
		return fmt.Errorf("building normalizer gateway: %w", err)
	}
	defer gw.Close()

	health := gw.HealthCheck(ctx)
	unhealthy := 0
	for name, ok := range health {
		status := "ok"
		if !ok {
			status = "unavailable"
			unhealthy++
		}
		fmt.Printf("%s: %s\n", name, status)
	}
	if unhealthy > 0 {
		return fmt.Errorf("%d normalizer component(s) unavailable", unhealthy)
	}
	return nil
}

func runNormalizerUpdateDB(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	gw, err := normalizerGatewayFor(cfg, logger)
	if err != nil {
		return fmt.Errorf("building normalizer gateway: %w", err)
	}
	defer gw.Close()

	if err := gw.InvalidateCache(ctx); err != nil {
		return fmt.Errorf("invalidating normalizer cache: %w", err)
	}
	logger.Info("normalizer response cache invalidated")
	return nil
}
