package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/internal/logging"
	"github.com/medsafe-engine/internal/metrics"
	"github.com/medsafe-engine/pkg/ndc"
)

// Evaluation kinds used in logs and metrics
const (
	KindAgeSafety = "age_safety"
	KindDosage    = "dosage"
	KindCombined  = "combined"
)

// DefaultMaxConcurrency bounds batch fan-out when no limit is configured
const DefaultMaxConcurrency = 8

// EvaluationRequest is one item of a batch
type EvaluationRequest struct {
	ID           string                `json:"id,omitempty"`
	Query        domain.DrugQuery      `json:"drug"`
	Patient      domain.PatientProfile `json:"patient"`
	PrescribedMg *float64              `json:"prescribed_mg,omitempty"`
}

// EvaluationResult pairs a batch item with its verdict or error
type EvaluationResult struct {
	ID        string                `json:"id,omitempty"`
	Verdict   *domain.SafetyVerdict `json:"verdict,omitempty"`
	Err       error                 `json:"-"`
	Error     string                `json:"error,omitempty"`
	ErrorCode string                `json:"error_code,omitempty"`
}

// Evaluator is the entry point collaborators call with a drug query and a patient profile
type Evaluator struct {
	logger         *logrus.Logger
	catalog        domain.ReferenceCatalog
	matcher        *ContraindicationMatcher
	scorer         *RiskScorer
	validator      *DosageValidator
	assembler      *VerdictAssembler
	maxConcurrency int
}

// NewEvaluator creates a new evaluator over catalog. maxConcurrency bounds BatchEvaluate;
// values below one select DefaultMaxConcurrency.
func NewEvaluator(logger *logrus.Logger, catalog domain.ReferenceCatalog, maxConcurrency int) *Evaluator {
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Evaluator{
		logger:         logger,
		catalog:        catalog,
		matcher:        NewContraindicationMatcher(logger, catalog, catalog),
		scorer:         NewRiskScorer(),
		validator:      NewDosageValidator(logger, catalog),
		assembler:      NewVerdictAssembler(),
		maxConcurrency: maxConcurrency,
	}
}

// EvaluateAgeSafety matches the drug against the patient's age category and scores the result
func (e *Evaluator) EvaluateAgeSafety(query domain.DrugQuery, patient domain.PatientProfile) (*domain.SafetyVerdict, error) {
	return e.evaluate(KindAgeSafety, query, patient, nil)
}

// EvaluateDosage checks a prescribed dose against the patient's recommended range
func (e *Evaluator) EvaluateDosage(query domain.DrugQuery, patient domain.PatientProfile, prescribedMg float64) (*domain.DosageVerdict, error) {
	start := time.Now()
	id := logging.NewEvaluationID()
	entry := e.logger.WithFields(logging.PatientFields(patient)).WithFields(logrus.Fields{
		"evaluation_id": id,
		"kind":          KindDosage,
		"drug_name":     query.Name,
	})

	verdict, err := e.dosage(query, patient, prescribedMg)
	e.observe(KindDosage, start, err)
	if err != nil {
		entry.WithError(err).Warn("Dosage evaluation failed")
		return nil, err
	}

	metrics.DosageStatusTotal.WithLabelValues(verdict.Status.String()).Inc()
	entry.WithFields(logrus.Fields{
		"status":          verdict.Status,
		"recommended_low": verdict.RecommendedLowMg,
		"recommended_hi":  verdict.RecommendedHighMg,
		"processing_time": time.Since(start),
	}).Info("Dosage evaluation completed")
	return verdict, nil
}

// Evaluate runs the age-safety check and, when prescribedMg is given, the dosage check, and
// combines them into one verdict. Any failure fails the whole evaluation.
func (e *Evaluator) Evaluate(query domain.DrugQuery, patient domain.PatientProfile, prescribedMg *float64) (*domain.SafetyVerdict, error) {
	return e.evaluate(KindCombined, query, patient, prescribedMg)
}

// BatchEvaluate evaluates every request with bounded concurrency. Results keep request order
// and carry per-item errors; the returned error is only set when ctx ends early.
func (e *Evaluator) BatchEvaluate(ctx context.Context, requests []EvaluationRequest) ([]EvaluationResult, error) {
	results := make([]EvaluationResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for i, req := range requests {
		g.Go(func() error {
			results[i].ID = req.ID
			if err := gctx.Err(); err != nil {
				results[i].setError(err)
				return nil
			}

			verdict, err := e.Evaluate(req.Query, req.Patient, req.PrescribedMg)
			if err != nil {
				results[i].setError(err)
				return nil
			}
			results[i].Verdict = verdict
			return nil
		})
	}

	_ = g.Wait()

	e.logger.WithFields(logrus.Fields{
		"batch_size":      len(requests),
		"max_concurrency": e.maxConcurrency,
	}).Info("Batch evaluation completed")

	return results, ctx.Err()
}

func (r *EvaluationResult) setError(err error) {
	r.Err = err
	r.Error = err.Error()
	r.ErrorCode = domain.ErrorCode(err)
}

func (e *Evaluator) evaluate(kind string, query domain.DrugQuery, patient domain.PatientProfile, prescribedMg *float64) (*domain.SafetyVerdict, error) {
	start := time.Now()
	id := logging.NewEvaluationID()
	entry := e.logger.WithFields(logging.PatientFields(patient)).WithFields(logrus.Fields{
		"evaluation_id": id,
		"kind":          kind,
		"drug_name":     query.Name,
	})

	verdict, err := e.assemble(query, patient, prescribedMg)
	e.observe(kind, start, err)
	if err != nil {
		entry.WithError(err).Warn("Evaluation failed")
		return nil, err
	}

	metrics.RiskTierTotal.WithLabelValues(verdict.RiskTier.String()).Inc()
	if verdict.Dosage != nil {
		metrics.DosageStatusTotal.WithLabelValues(verdict.Dosage.Status.String()).Inc()
	}
	entry.WithFields(logrus.Fields{
		"risk_score":       verdict.RiskScore,
		"risk_tier":        verdict.RiskTier,
		"matched_criteria": len(verdict.MatchedCriteria),
		"processing_time":  time.Since(start),
	}).Info("Evaluation completed")
	return verdict, nil
}

// assemble gathers every part before building the verdict, so a failed part leaves no partial result
func (e *Evaluator) assemble(query domain.DrugQuery, patient domain.PatientProfile, prescribedMg *float64) (*domain.SafetyVerdict, error) {
	if err := patient.Validate(); err != nil {
		return nil, err
	}
	name, err := e.resolveDrugName(query)
	if err != nil {
		return nil, err
	}
	category, err := ClassifyAge(patient.Age)
	if err != nil {
		return nil, err
	}

	matches := e.matcher.MatchPatient(name, category, patient)
	assessment := e.scorer.Score(matches)

	var dosage *domain.DosageVerdict
	if prescribedMg != nil {
		dosage, err = e.validator.Validate(name, patient, *prescribedMg)
		if err != nil {
			return nil, err
		}
	}

	return e.assembler.Assemble(matches, assessment, dosage), nil
}

func (e *Evaluator) dosage(query domain.DrugQuery, patient domain.PatientProfile, prescribedMg float64) (*domain.DosageVerdict, error) {
	name, err := e.resolveDrugName(query)
	if err != nil {
		return nil, err
	}
	return e.validator.Validate(name, patient, prescribedMg)
}

// resolveDrugName prefers the drug registered for the NDC code and falls back to the name
func (e *Evaluator) resolveDrugName(query domain.DrugQuery) (string, error) {
	if err := query.Validate(); err != nil {
		return "", err
	}

	if code := strings.TrimSpace(query.NDCCode); code != "" {
		// Label text such as "NDC 0045-0181-01" is reduced to the embedded code
		if !ndc.IsValid(code) {
			if extracted, ok := ndc.ExtractFromText(code); ok {
				code = extracted
			}
		}
		if name, ok := e.catalog.ResolveNDC(code); ok {
			return name, nil
		}
		if strings.TrimSpace(query.Name) == "" {
			return "", domain.NewNotFoundError("drug for NDC", code)
		}
		e.logger.WithField("ndc_code", code).Debug("NDC code not in catalog, matching by name")
	}
	return query.Name, nil
}

func (e *Evaluator) observe(kind string, start time.Time, err error) {
	metrics.EvaluationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.EvaluationsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
