package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metakb-transform/internal/cdm"
	"github.com/metakb-transform/internal/loader"
)

var (
	loadDBURL        string
	loadDBUsername   string
	loadDBPassword   string
	loadLatestCDMs   bool
	loadTargetCDM    string
	loadLatestS3CDMs bool
	loadUpdateCached bool
)

// updateDBCmd implements spec.md §6's update_metakb_db operation: load the
// transform's CDM JSON output into the graph database in the fixed node
// write order the graph loader requires.
var updateDBCmd = &cobra.Command{
	Use:   "update-db",
	Short: "Load one or more CDM documents into the graph database",
	Long: `update-db writes a CDM JSON document's nodes and relationships into the
graph database in the fixed order: variations, documents, methods,
genes/conditions, therapies, evidence statements, assertion statements.
Each node label carries a uniqueness constraint on id.`,
	RunE: runUpdateDB,
}

func init() {
	updateDBCmd.Flags().StringVar(&loadDBURL, "db_url", "", "graph database URI override")
	updateDBCmd.Flags().StringVar(&loadDBUsername, "db_username", "", "graph database username override")
	updateDBCmd.Flags().StringVar(&loadDBPassword, "db_password", "", "graph database password override")
	updateDBCmd.Flags().BoolVar(&loadLatestCDMs, "load_latest_cdms", false, "load the most recently modified CDM JSON file in the default data directory")
	updateDBCmd.Flags().StringVar(&loadTargetCDM, "load_target_cdm", "", "path to a specific CDM JSON document to load")
	updateDBCmd.Flags().BoolVar(&loadLatestS3CDMs, "load_latest_s3_cdms", false, "load the most recent CDM document from S3 (not supported)")
	updateDBCmd.Flags().BoolVar(&loadUpdateCached, "update_cached", false, "invalidate the normalizer response cache after loading")

	bindEnv(updateDBCmd, "graphdb.uri", "db_url")
	bindEnv(updateDBCmd, "graphdb.username", "db_username")
	bindEnv(updateDBCmd, "graphdb.password", "db_password")
	_ = viper.BindEnv("graphdb.uri", "METAKB_DB_URL")
	_ = viper.BindEnv("graphdb.username", "METAKB_DB_USERNAME")
	_ = viper.BindEnv("graphdb.password", "METAKB_DB_PASSWORD")
}

func runUpdateDB(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selected := 0
	for _, on := range []bool{loadLatestCDMs, loadTargetCDM != "", loadLatestS3CDMs} {
		if on {
			selected++
		}
	}
	if selected != 1 {
		return fmt.Errorf("exactly one of --load_latest_cdms, --load_target_cdm, --load_latest_s3_cdms is required")
	}
	if loadLatestS3CDMs {
		return fmt.Errorf("--load_latest_s3_cdms is not supported: no S3 client is wired into this loader")
	}

	manager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	uri := cfg.GraphDB.URI
	username := cfg.GraphDB.Username
	password := cfg.GraphDB.Password
	if v := viper.GetString("graphdb.uri"); v != "" {
		uri = v
	}
	if v := viper.GetString("graphdb.username"); v != "" {
		username = v
	}
	if v := viper.GetString("graphdb.password"); v != "" {
		password = v
	}

	targetPath := loadTargetCDM
	if loadLatestCDMs {
		targetPath, err = latestCDMPath("data/cdm")
		if err != nil {
			return fmt.Errorf("finding latest cdm document: %w", err)
		}
	}

	raw, err := os.ReadFile(targetPath)
	if err != nil {
		return fmt.Errorf("reading cdm document %s: %w", targetPath, err)
	}
	var doc cdm.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing cdm document %s: %w", targetPath, err)
	}

	writer, err := loader.NewWriter(ctx, uri, username, password, "", logger)
	if err != nil {
		return fmt.Errorf("connecting to graph database: %w", err)
	}
	defer writer.Close(ctx)

	if err := writer.EnsureConstraints(ctx); err != nil {
		return fmt.Errorf("ensuring graph constraints: %w", err)
	}
	if err := writer.Write(ctx, doc); err != nil {
		return fmt.Errorf("writing cdm document to graph: %w", err)
	}

	if loadUpdateCached {
		gw, err := normalizerGatewayFor(cfg, logger)
		if err == nil {
			_ = gw.InvalidateCache(ctx)
			_ = gw.Close()
		}
	}

	logger.WithField("document", targetPath).Info("graph load completed")
	return nil
}

// latestCDMPath returns the most recently modified *.json file directly
// under dir, mirroring the default "latest harvest" discovery the original
// CLI performed by file modification time.
func latestCDMPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var best string
	var bestMod int64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().Unix(); best == "" || mod > bestMod {
			best = filepath.Join(dir, e.Name())
			bestMod = mod
		}
	}
	if best == "" {
		return "", fmt.Errorf("no cdm json documents found under %s", dir)
	}
	return best, nil
}
