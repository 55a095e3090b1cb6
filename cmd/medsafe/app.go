package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/medsafe-engine/internal/catalog"
	"github.com/medsafe-engine/internal/config"
	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/internal/logging"
	"github.com/medsafe-engine/internal/service"
	"github.com/medsafe-engine/pkg/similarity"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "medsafe",
		Usage: "evaluate drug safety for a patient's age, weight and renal function",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a medsafe.yaml configuration file",
				EnvVars: []string{"MEDSAFE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "reference data file (YAML or JSON); overrides catalog.path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides logging.level",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write evaluation metrics in Prometheus text format to this file on exit",
			},
		},
		After: writeMetrics,
		Commands: []*cli.Command{
			{
				Name:   "age",
				Usage:  "check a drug against the patient's age category",
				Flags:  append(drugFlags(), patientFlags()...),
				Action: runAge,
			},
			{
				Name:  "dosage",
				Usage: "check a prescribed daily dose against the recommended range",
				Flags: append(append(drugFlags(), patientFlags()...),
					&cli.Float64Flag{Name: "dose", Usage: "prescribed dose in mg, per administration when --frequency is set", Required: true},
					frequencyFlag(),
				),
				Action: runDosage,
			},
			{
				Name:  "evaluate",
				Usage: "run the age-safety check and, with --dose, the dosage check",
				Flags: append(append(drugFlags(), patientFlags()...),
					&cli.Float64Flag{Name: "dose", Usage: "prescribed dose in mg, per administration when --frequency is set"},
					frequencyFlag(),
				),
				Action: runEvaluate,
			},
			{
				Name:      "batch",
				Usage:     "evaluate a JSON array of requests",
				ArgsUsage: "[file]",
				Description: "Reads requests of the form " +
					`{"id": "...", "drug": {"name": "..."}, "patient": {"age": 70}, "prescribed_mg": 100}` +
					" from the file, or from standard input when no file or - is given.",
				Action: runBatch,
			},
			{
				Name:  "catalog",
				Usage: "inspect reference data",
				Subcommands: []*cli.Command{
					{
						Name:   "validate",
						Usage:  "load the reference data and report any malformed record",
						Action: runCatalogValidate,
					},
					{
						Name:   "stats",
						Usage:  "print reference table sizes",
						Action: runCatalogStats,
					},
				},
			},
			{
				Name:  "renal",
				Usage: "renal function helpers",
				Subcommands: []*cli.Command{
					{
						Name:  "crcl",
						Usage: "classify creatinine clearance, given directly or estimated with Cockcroft-Gault",
						Flags: []cli.Flag{
							&cli.Float64Flag{Name: "crcl", Usage: "measured creatinine clearance in mL/min"},
							&cli.IntFlag{Name: "age", Usage: "age in years"},
							&cli.Float64Flag{Name: "weight", Usage: "body weight in kg"},
							&cli.Float64Flag{Name: "scr", Usage: "serum creatinine in mg/dL"},
							&cli.BoolFlag{Name: "female", Usage: "apply the female correction"},
						},
						Action: runRenal,
					},
				},
			},
		},
	}
}

func drugFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "drug", Aliases: []string{"d"}, Usage: "drug name"},
		&cli.StringFlag{Name: "ndc", Usage: "NDC product code"},
	}
}

func frequencyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "frequency",
		Usage: "dosing frequency (daily, bid, tid, qid, q4h, q6h, ...); --dose is multiplied to a daily total",
	}
}

// dailyDose is the prescribed amount per day the dosage check compares against
func dailyDose(c *cli.Context) (float64, error) {
	return service.DailyDose(c.Float64("dose"), c.String("frequency"))
}

func patientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "age", Usage: "patient age in years", Required: true},
		&cli.Float64Flag{Name: "weight", Usage: "patient weight in kg"},
		&cli.StringFlag{Name: "renal", Usage: "renal function (normal, mild, moderate, severe)"},
		&cli.Float64Flag{Name: "crcl", Usage: "creatinine clearance in mL/min; used when --renal is not given"},
		&cli.StringSliceFlag{Name: "condition", Usage: "known condition, repeatable"},
	}
}

// runtime is what every evaluating command needs
type runtime struct {
	config    *domain.Config
	logger    *logrus.Logger
	catalog   *catalog.Catalog
	evaluator *service.Evaluator
}

func setup(c *cli.Context) (*runtime, error) {
	manager, err := config.NewManager(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()
	if path := c.String("catalog"); path != "" {
		cfg.Catalog.Path = path
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.Logging)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var ref domain.ReferenceCatalog = cat
	if cfg.Cache.MaxEntries > 0 {
		cached, err := service.NewCachedCatalog(cat, cfg.Cache.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog cache: %w", err)
		}
		ref = cached
	}

	logger.WithFields(logrus.Fields{
		"catalog_version": cat.Version(),
		"catalog_path":    cfg.Catalog.Path,
		"algorithm":       cfg.Matching.Algorithm,
		"threshold":       cfg.Matching.SimilarityThreshold,
		"cache_entries":   cfg.Cache.MaxEntries,
		"config_file":     manager.ConfigFileUsed(),
	}).Debug("Reference catalog loaded")

	return &runtime{
		config:    cfg,
		logger:    logger,
		catalog:   cat,
		evaluator: service.NewEvaluator(logger, ref, cfg.Batch.MaxConcurrency),
	}, nil
}

func loadCatalog(cfg *domain.Config) (*catalog.Catalog, error) {
	strategy, err := similarity.New(cfg.Matching.Algorithm)
	if err != nil {
		return nil, err
	}
	opts := []catalog.Option{
		catalog.WithStrategy(strategy),
		catalog.WithThreshold(cfg.Matching.SimilarityThreshold),
	}
	if cfg.Catalog.Path == "" {
		return catalog.LoadDefault(opts...)
	}
	return catalog.LoadFile(cfg.Catalog.Path, opts...)
}

func drugQuery(c *cli.Context) domain.DrugQuery {
	return domain.DrugQuery{Name: c.String("drug"), NDCCode: c.String("ndc")}
}

func patientProfile(c *cli.Context) (domain.PatientProfile, error) {
	patient := domain.PatientProfile{
		Age:        c.Int("age"),
		Conditions: c.StringSlice("condition"),
	}
	if c.IsSet("weight") {
		patient.WeightKg = domain.Float64Ptr(c.Float64("weight"))
	}

	switch {
	case c.IsSet("renal"):
		renal, err := domain.ParseRenalFunction(c.String("renal"))
		if err != nil {
			return patient, err
		}
		patient.RenalFunction = renal
	case c.IsSet("crcl"):
		renal, err := service.ClassifyCreatinineClearance(c.Float64("crcl"))
		if err != nil {
			return patient, err
		}
		patient.RenalFunction = renal
	}
	return patient, nil
}

func runAge(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	patient, err := patientProfile(c)
	if err != nil {
		return err
	}
	verdict, err := rt.evaluator.EvaluateAgeSafety(drugQuery(c), patient)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, verdict)
}

func runDosage(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	patient, err := patientProfile(c)
	if err != nil {
		return err
	}
	dose, err := dailyDose(c)
	if err != nil {
		return err
	}
	verdict, err := rt.evaluator.EvaluateDosage(drugQuery(c), patient, dose)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, verdict)
}

func runEvaluate(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	patient, err := patientProfile(c)
	if err != nil {
		return err
	}
	var dose *float64
	if c.IsSet("dose") {
		daily, err := dailyDose(c)
		if err != nil {
			return err
		}
		dose = domain.Float64Ptr(daily)
	}
	verdict, err := rt.evaluator.Evaluate(drugQuery(c), patient, dose)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, verdict)
}

func runBatch(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	in := c.App.Reader
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var requests []service.EvaluationRequest
	if err := json.NewDecoder(in).Decode(&requests); err != nil {
		return fmt.Errorf("failed to decode batch requests: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := rt.evaluator.BatchEvaluate(ctx, requests)
	if err != nil {
		rt.logger.WithError(err).Warn("Batch interrupted")
	}
	if werr := writeJSON(c.App.Writer, results); werr != nil {
		return werr
	}
	return err
}

func runCatalogValidate(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "reference data %s is valid: %d criteria, %d dosage guidelines, %d products\n",
		rt.catalog.Version(), len(rt.catalog.Criteria()), len(rt.catalog.DosageGuidelines()), rt.catalog.Stats().Products)
	return nil
}

func runCatalogStats(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, rt.catalog.Stats())
}

type renalResult struct {
	CreatinineClearance float64              `json:"creatinine_clearance"`
	Estimated           bool                 `json:"estimated"`
	RenalFunction       domain.RenalFunction `json:"renal_function"`
}

func runRenal(c *cli.Context) error {
	result := renalResult{CreatinineClearance: c.Float64("crcl")}
	if !c.IsSet("crcl") {
		crcl, err := service.EstimateCreatinineClearance(c.Int("age"), c.Float64("weight"), c.Float64("scr"), c.Bool("female"))
		if err != nil {
			return err
		}
		result.CreatinineClearance = crcl
		result.Estimated = true
	}

	renal, err := service.ClassifyCreatinineClearance(result.CreatinineClearance)
	if err != nil {
		return err
	}
	result.RenalFunction = renal
	return writeJSON(c.App.Writer, result)
}

// writeMetrics dumps the default registry for a node_exporter textfile collector
func writeMetrics(c *cli.Context) error {
	path := c.String("metrics-file")
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
