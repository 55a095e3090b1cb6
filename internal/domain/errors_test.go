package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("age", "age must not be negative", -2)

	expected := "invalid input for field 'age': age must not be negative"
	if err.Error() != expected {
		t.Errorf("Expected error string %s, got %s", expected, err.Error())
	}

	wrapped := fmt.Errorf("failed to classify age: %w", err)
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Error("Wrapped InvalidInputError should match ErrInvalidInput")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("InvalidInputError must not match ErrNotFound")
	}

	var target *InvalidInputError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find the InvalidInputError")
	}
	if target.Value != -2 {
		t.Errorf("Expected value -2, got %v", target.Value)
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("dosage guideline", "unobtainium")

	expected := "dosage guideline not found for 'unobtainium'"
	if err.Error() != expected {
		t.Errorf("Expected error string %s, got %s", expected, err.Error())
	}

	wrapped := fmt.Errorf("dosage check: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should match ErrNotFound")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "String validation error",
			field:   "drug_pattern",
			message: "drug pattern is required",
			value:   "",
		},
		{
			name:    "Float validation error",
			field:   "max_daily_mg",
			message: "must be positive",
			value:   -1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}
			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError should match ErrValidation")
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Nil", nil, ""},
		{"Invalid input", fmt.Errorf("wrap: %w", NewInvalidInputError("age", "bad", -1)), ErrCodeInvalidInput},
		{"Not found", NewNotFoundError("dosage guideline", "x"), ErrCodeNotFound},
		{"Validation", NewValidationError("severity", "bad", "x"), ErrCodeValidation},
		{"Other", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
