package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// Enrichment joins input with the first stored record sharing its id
type Enrichment struct {
	base
}

// NewEnrichment creates an enrichment strategy around adapter
func NewEnrichment(adapter model.StorageAdapter) *Enrichment {
	return &Enrichment{base{adapter: adapter, mode: model.ModeEnrichment}}
}

// Identify returns the strategy's stable name tag
func (s *Enrichment) Identify() string {
	return "EnrichmentProcessor"
}

// Describe returns a one-line summary
func (s *Enrichment) Describe() string {
	return "Enriches incoming data with additional information from database"
}

// Process looks up additional info by id, attaches it and saves the result
func (s *Enrichment) Process(ctx context.Context, input any) model.ProcessingResult {
	start := time.Now()
	record, inputErr := checkInput(input)
	if inputErr != nil {
		return s.result(false, nil, start, inputErr.Messages)
	}

	matches, err := s.adapter.Query(ctx, model.Record{"id": record.ID()})
	if err != nil {
		return s.failure("Enrichment", record, start, err)
	}

	enriched := model.EnrichedRecord{
		Enriched:            true,
		EnrichmentTimestamp: time.Now().UTC(),
		Extra:               record,
	}
	if len(matches) > 0 {
		enriched.AdditionalInfo = matches[0]
	}

	out := enriched.ToRecord()
	saved, err := s.adapter.Save(ctx, out)
	if err == nil && !saved {
		err = errors.New("record was not saved")
	}
	if err != nil {
		return s.failure("Enrichment", record, start, err)
	}
	return s.result(true, out, start, nil)
}
