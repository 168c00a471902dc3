package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// Aggregation summarizes input together with every stored record
type Aggregation struct {
	base
}

// NewAggregation creates an aggregation strategy around adapter
func NewAggregation(adapter model.StorageAdapter) *Aggregation {
	return &Aggregation{base{adapter: adapter, mode: model.ModeAggregation}}
}

// Identify returns the strategy's stable name tag
func (s *Aggregation) Identify() string {
	return "AggregationProcessor"
}

// Describe returns a one-line summary
func (s *Aggregation) Describe() string {
	return "Aggregates incoming data with existing data and saves summary"
}

// Process aggregates input with existing records and saves the summary
func (s *Aggregation) Process(ctx context.Context, input any) model.ProcessingResult {
	start := time.Now()
	record, inputErr := checkInput(input)
	if inputErr != nil {
		return s.result(false, nil, start, inputErr.Messages)
	}

	existing, err := s.adapter.Query(ctx, model.Record{})
	if err != nil {
		return s.failure("Aggregation", record, start, err)
	}

	out := aggregate(record, existing).ToRecord()
	saved, err := s.adapter.Save(ctx, out)
	if err == nil && !saved {
		err = errors.New("record was not saved")
	}
	if err != nil {
		return s.failure("Aggregation", record, start, err)
	}
	return s.result(true, out, start, nil)
}

// aggregate weighs the new record's id equally with every existing id
func aggregate(latest model.Record, existing []model.Record) model.AggregatedRecord {
	average := latest.NumericID()
	if len(existing) > 0 {
		sum := latest.NumericID()
		for _, r := range existing {
			sum += r.NumericID()
		}
		average = sum / float64(len(existing)+1)
	}

	return model.AggregatedRecord{
		Summary: model.AggregationSummary{
			TotalRecords: len(existing) + 1,
			LatestRecord: latest,
			AggregatedAt: time.Now().UTC(),
		},
		Statistics: model.AggregationStatistics{AverageID: average},
	}
}
