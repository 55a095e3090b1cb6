// Package logging builds the structured logger shared by the evaluation services.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medsafe-engine/internal/domain"
)

// Log format values
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates a logger from configuration. Output goes to stderr so that command output on
// stdout stays machine readable.
func New(config domain.LoggingConfig) *logrus.Logger {
	return NewWithOutput(config, os.Stderr)
}

// NewWithOutput creates a logger writing to out
func NewWithOutput(config domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(config.Format, FormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	return logger
}

// NewEvaluationID returns a fresh identifier used to correlate the log lines of one evaluation
func NewEvaluationID() string {
	return uuid.New().String()
}

// PatientFields describes a patient for logs without recording condition names
func PatientFields(patient domain.PatientProfile) logrus.Fields {
	fields := logrus.Fields{
		"patient_age":     patient.Age,
		"has_weight":      patient.HasWeight(),
		"condition_count": len(patient.Conditions),
	}
	if patient.RenalFunction != domain.RENAL_UNKNOWN {
		fields["renal_function"] = patient.RenalFunction.String()
	}
	return fields
}
