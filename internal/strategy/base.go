// Package strategy implements the interchangeable processing modes and the
// selector that builds them around a storage adapter.
package strategy

import (
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

const (
	errInputRequired = "Input data is required"
	errInputObject   = "Input data must be an object"
)

// base carries the immutable state every strategy is built with
type base struct {
	adapter model.StorageAdapter
	mode    model.ProcessingMode
}

// Mode returns the processing mode the strategy was built for
func (b *base) Mode() model.ProcessingMode {
	return b.mode
}

// Adapter returns the storage adapter the strategy wraps
func (b *base) Adapter() model.StorageAdapter {
	return b.adapter
}

func (b *base) result(success bool, data model.Record, start time.Time, errs []string) model.ProcessingResult {
	if errs == nil {
		errs = []string{}
	}
	return model.ProcessingResult{
		Success: success,
		Data:    data,
		Metadata: model.ResultMetadata{
			Mode:          b.mode,
			Backend:       b.adapter.Identify(),
			Timestamp:     time.Now().UTC(),
			ElapsedMillis: time.Since(start).Milliseconds(),
		},
		Errors: errs,
	}
}

func (b *base) failure(variant string, input model.Record, start time.Time, err error) model.ProcessingResult {
	return b.result(false, input, start, []string{variant + " error: " + err.Error()})
}

// checkInput runs the pre-check shared by every strategy. It never touches
// the adapter.
func checkInput(input any) (model.Record, *model.InputError) {
	if input == nil {
		return nil, &model.InputError{Messages: []string{errInputRequired}}
	}
	if _, isMap := input.(map[string]any); isMap || isRecordType(input) {
		if record, ok := model.AsRecord(input); ok {
			return record, nil
		}
		// a nil map is null in JSON terms
		return nil, &model.InputError{Messages: []string{errInputRequired}}
	}

	var msgs []string
	if !model.Truthy(input) {
		msgs = append(msgs, errInputRequired)
	}
	msgs = append(msgs, errInputObject)
	return nil, &model.InputError{Messages: msgs}
}

func isRecordType(v any) bool {
	_, ok := v.(model.Record)
	return ok
}
