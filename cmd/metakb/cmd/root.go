// Package cmd implements the metakb CLI's command tree: transform (core),
// update-db and normalizer (supplemental, out-of-core but wired), per
// spec.md §6's CLI surface. Cobra replaces the teacher's hand-rolled flag
// loop; the graph database and normalizer URL flags are bound to viper keys,
// so each can also be set through viper's METAKB_-prefixed environment
// lookup or through the METAKB_DB_* / *_NORM_DB_URL variables of spec.md
// §6's override table, which each command's init binds explicitly.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metakb-transform/internal/config"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
)

var rootCmd = &cobra.Command{
	Use:   "metakb",
	Short: "Transform CIViC/MOAlmanac source records into the normalized CDM",
	Long: `metakb transforms harvested clinical-genomics knowledge base records
(CIViC, MOAlmanac) into a normalized, graph-ready Common Data Model, and
optionally loads the result into a Neo4j graph database.`,
	SilenceUsage: true,
}

// Execute runs the root command, returning its error rather than calling
// os.Exit directly so main can control the process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(updateDBCmd)
	rootCmd.AddCommand(normalizerCmd)
}

// loadConfig loads and validates the transformer configuration, failing
// fast per spec.md §7 ("CredentialFailure... propagate... and abort").
func loadConfig() (*config.Manager, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return manager, nil
}

// newLogger builds the single logrus instance threaded through a run,
// per SPEC_FULL.md's "never a package-level global" logging rule.
func newLogger(levelName, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	return logger
}

// bindEnv binds a cobra flag to its viper key, so the flag, when set,
// overrides that key's environment and config-file values.
func bindEnv(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// normalizerGatewayFor builds a standalone Gateway for operational
// subcommands (update-db's --update_cached, normalizer check/update-db)
// that need the cache/breakers but don't run a full transform.
func normalizerGatewayFor(cfg *domain.Config, logger *logrus.Logger) (*normalizer.Gateway, error) {
	return normalizer.New(cfg.Normalizer, cfg.Cache, logger)
}
