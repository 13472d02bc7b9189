package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metakb-transform/internal/cdm"
	"github.com/metakb-transform/internal/database"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
	"github.com/metakb-transform/internal/pipeline"
	"github.com/metakb-transform/internal/runlog"
	"github.com/metakb-transform/internal/transformerr"
)

var (
	transformSource string
	transformInput  string
	transformOutput string
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a harvested source JSON file into the normalized CDM",
	Long: `transform reads a single harvest JSON artifact (civic or moa), resolves
every biomedical concept through the normalizer gateway, assembles
variant-disease-therapy-gene evidence and assertion statements, filters
for reachability, and writes the resulting CDM document as JSON.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&transformSource, "source", "", "source to transform: civic or moa (required)")
	transformCmd.Flags().StringVar(&transformInput, "input", "", "path to the harvest JSON artifact (required)")
	transformCmd.Flags().StringVar(&transformOutput, "output", "", "path to write the CDM JSON document (required)")
	_ = transformCmd.MarkFlagRequired("source")
	_ = transformCmd.MarkFlagRequired("input")
	_ = transformCmd.MarkFlagRequired("output")

	transformCmd.Flags().String("gene-norm-url", "", "gene normalizer base URL override")
	transformCmd.Flags().String("therapy-norm-url", "", "therapy normalizer base URL override")
	transformCmd.Flags().String("disease-norm-url", "", "disease normalizer base URL override")
	bindEnv(transformCmd, "normalizer.gene.base_url", "gene-norm-url")
	bindEnv(transformCmd, "normalizer.therapy.base_url", "therapy-norm-url")
	bindEnv(transformCmd, "normalizer.disease.base_url", "disease-norm-url")
	_ = viper.BindEnv("normalizer.gene.base_url", "GENE_NORM_DB_URL")
	_ = viper.BindEnv("normalizer.therapy.base_url", "THERAPY_NORM_DB_URL")
	_ = viper.BindEnv("normalizer.disease.base_url", "DISEASE_NORM_DB_URL")
}

func runTransform(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	if override := viper.GetString("normalizer.gene.base_url"); override != "" {
		cfg.Normalizer.Gene.BaseURL = override
	}
	if override := viper.GetString("normalizer.therapy.base_url"); override != "" {
		cfg.Normalizer.Therapy.BaseURL = override
	}
	if override := viper.GetString("normalizer.disease.base_url"); override != "" {
		cfg.Normalizer.Disease.BaseURL = override
	}

	gw, err := normalizer.New(cfg.Normalizer, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("building normalizer gateway: %w", err)
	}
	defer gw.Close()

	ledger, runID := startRunLedger(ctx, cfg, logger, transformSource)
	if ledger != nil {
		defer ledger.Close()
	}

	raw, err := os.ReadFile(transformInput)
	if err != nil {
		return abortRun(ctx, ledger, runID, err, "reading harvest input")
	}

	doc, counts, err := transformFromSource(ctx, transformSource, raw, gw, cfg.Concurrency.VariationConcurrency, logger)
	if err != nil {
		return abortRun(ctx, ledger, runID, err, "transforming harvest")
	}

	out, err := cdm.Marshal(doc)
	if err != nil {
		return abortRun(ctx, ledger, runID, err, "marshaling CDM document")
	}
	if err := os.WriteFile(transformOutput, out, 0o644); err != nil {
		return abortRun(ctx, ledger, runID, err, "writing CDM output")
	}

	if ledger != nil {
		_ = ledger.repo.Finish(ctx, runID, runlog.OutcomeOK, "", toRunlogCounts(counts))
	}

	logger.WithFields(logrus.Fields{
		"source": transformSource,
		"output": transformOutput,
	}).Info("transform run completed")
	return nil
}

// transformFromSource dispatches to the per-source pipeline run, unmarshaling
// the harvest JSON into the shape pipeline.RunCivic/RunMoa each expect.
func transformFromSource(ctx context.Context, source string, raw []byte, gw *normalizer.Gateway, concurrency int64, logger *logrus.Logger) (cdm.Document, pipeline.Counts, error) {
	switch source {
	case "civic":
		var h pipeline.CivicHarvest
		if err := json.Unmarshal(raw, &h); err != nil {
			return cdm.Document{}, pipeline.Counts{}, fmt.Errorf("parsing civic harvest json: %w", err)
		}
		return pipeline.RunCivic(ctx, gw, concurrency, h, logger)
	case "moa":
		var h pipeline.MoaHarvest
		if err := json.Unmarshal(raw, &h); err != nil {
			return cdm.Document{}, pipeline.Counts{}, fmt.Errorf("parsing moa harvest json: %w", err)
		}
		return pipeline.RunMoa(ctx, gw, concurrency, h, logger)
	default:
		return cdm.Document{}, pipeline.Counts{}, fmt.Errorf("unknown source %q: expected civic or moa", source)
	}
}

// runLedger bundles the optional database connection alongside the
// repository so callers can Close the pool after a run.
type runLedger struct {
	repo *runlog.Repository
	db   *database.DB
}

func (l *runLedger) Close() { l.db.Close() }

// startRunLedger attempts to establish the run ledger connection and open a
// run record. The run ledger is a supplemental addition: its unavailability
// never aborts a transform, it only disables run tracking for this run.
func startRunLedger(ctx context.Context, cfg *domain.Config, logger *logrus.Logger, source string) (*runLedger, uuid.UUID) {
	db, err := database.NewConnection(ctx, cfg.RunLedger, logger)
	if err != nil {
		logger.WithError(err).Warn("run ledger unavailable, proceeding without run tracking")
		return nil, uuid.UUID{}
	}
	if err := runlog.EnsureSchema(ctx, db.Pool); err != nil {
		logger.WithError(err).Warn("run ledger schema unavailable, proceeding without run tracking")
		db.Close()
		return nil, uuid.UUID{}
	}
	repo := runlog.NewRepository(db.Pool, logger)
	id, err := repo.Start(ctx, source)
	if err != nil {
		logger.WithError(err).Warn("run ledger start failed, proceeding without run tracking")
		db.Close()
		return nil, uuid.UUID{}
	}
	return &runLedger{repo: repo, db: db}, id
}

// abortRun records a failed run on the ledger (if tracking is active) and
// wraps the underlying error with the failing stage, classifying it via
// transformerr when possible so the ledger stores a failure class. The
// caller's own deferred ledger.Close() still runs afterward.
func abortRun(ctx context.Context, ledger *runLedger, runID uuid.UUID, err error, stage string) error {
	if ledger != nil {
		class := ""
		var terr *transformerr.Error
		if errors.As(err, &terr) {
			class = string(terr.Class)
		}
		_ = ledger.repo.Finish(ctx, runID, runlog.OutcomeAborted, class, runlog.Counts{})
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// toRunlogCounts adapts a pipeline.Counts into the run ledger's Counts shape.
func toRunlogCounts(c pipeline.Counts) runlog.Counts {
	return runlog.Counts{
		CategoricalVariants:  c.CategoricalVariants,
		Variations:           c.Variations,
		Genes:                c.Genes,
		Conditions:           c.Conditions,
		Therapies:            c.Therapies,
		Documents:            c.Documents,
		Methods:              c.Methods,
		StatementsEvidence:   c.StatementsEvidence,
		StatementsAssertions: c.StatementsAssertions,
	}
}
