package strategy

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

const generatedIDLimit = 10000

// Transformation normalizes input and saves the derived record
type Transformation struct {
	base
	newID func() any
}

// NewTransformation creates a transformation strategy around adapter
func NewTransformation(adapter model.StorageAdapter) *Transformation {
	return &Transformation{
		base:  base{adapter: adapter, mode: model.ModeTransformation},
		newID: func() any { return rand.Intn(generatedIDLimit) },
	}
}

// Identify returns the strategy's stable name tag
func (s *Transformation) Identify() string {
	return "TransformationProcessor"
}

// Describe returns a one-line summary
func (s *Transformation) Describe() string {
	return "Transforms incoming data and saves the result to database"
}

// Process derives a normalized record from input and saves it
func (s *Transformation) Process(ctx context.Context, input any) model.ProcessingResult {
	start := time.Now()
	record, inputErr := checkInput(input)
	if inputErr != nil {
		return s.result(false, nil, start, inputErr.Messages)
	}

	out := s.transform(record).ToRecord()
	saved, err := s.adapter.Save(ctx, out)
	if err == nil && !saved {
		err = errors.New("record was not saved")
	}
	if err != nil {
		return s.failure("Transformation", record, start, err)
	}
	return s.result(true, out, start, nil)
}

func (s *Transformation) transform(record model.Record) model.TransformedRecord {
	id := record.ID()
	if !record.HasID() {
		id = s.newID()
	}
	return model.TransformedRecord{
		ID:          id,
		ProcessedAt: time.Now().UTC(),
		Normalized:  model.Normalize(record),
		Extra:       record,
	}
}
