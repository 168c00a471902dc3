package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// Validation checks input against the backend and saves it when accepted
type Validation struct {
	base
}

// NewValidation creates a validation strategy around adapter
func NewValidation(adapter model.StorageAdapter) *Validation {
	return &Validation{base{adapter: adapter, mode: model.ModeValidation}}
}

// Identify returns the strategy's stable name tag
func (s *Validation) Identify() string {
	return "ValidationProcessor"
}

// Describe returns a one-line summary
func (s *Validation) Describe() string {
	return "Validates incoming data against database schema and saves if valid"
}

// Process validates input and saves it with a validated marker
func (s *Validation) Process(ctx context.Context, input any) model.ProcessingResult {
	start := time.Now()
	record, inputErr := checkInput(input)
	if inputErr != nil {
		return s.result(false, nil, start, inputErr.Messages)
	}

	valid, err := s.adapter.Validate(ctx, record)
	if err != nil {
		return s.failure("Validation", record, start, err)
	}
	if !valid {
		return s.result(false, record, start, []string{"Data validation failed"})
	}

	validated := record.With("validated", true)
	saved, err := s.adapter.Save(ctx, validated)
	if err == nil && !saved {
		err = errors.New("record was not saved")
	}
	if err != nil {
		return s.failure("Validation", record, start, err)
	}
	return s.result(true, validated, start, nil)
}
