package model

import (
	"strings"
	"time"
)

// Record is a JSON-like data record flowing through the pipeline
type Record map[string]any

// AsRecord returns v as a Record when it is object-shaped
func AsRecord(v any) (Record, bool) {
	switch r := v.(type) {
	case Record:
		return r, r != nil
	case map[string]any:
		return Record(r), r != nil
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the record's maps and slices
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []Record:
		out := make([]Record, len(t))
		for i, item := range t {
			out[i] = item.Clone()
		}
		return out
	default:
		return v
	}
}

// With returns a copy of r with key set to value
func (r Record) With(key string, value any) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	out[key] = value
	return out
}

// String returns the string value at key, or "" if absent or not a string
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Name returns the record's name field
func (r Record) Name() string {
	return r.String("name")
}

// Email returns the record's email field
func (r Record) Email() string {
	return r.String("email")
}

// ID returns the raw id field, or nil if absent
func (r Record) ID() any {
	return r["id"]
}

// HasID reports whether the record carries a usable id
func (r Record) HasID() bool {
	return Truthy(r["id"])
}

// NumericID returns the id as a number; absent or non-numeric ids count as 0
func (r Record) NumericID() float64 {
	n, _ := ToFloat(r["id"])
	return n
}

// Matches reports whether every criteria entry equals the record's value.
// A nil criterion matches an absent key.
func (r Record) Matches(criteria Record) bool {
	for k, want := range criteria {
		if !ValuesEqual(r[k], want) {
			return false
		}
	}
	return true
}

// ValuesEqual compares scalar values, treating all Go numeric types by value
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	switch a.(type) {
	case string, bool:
		return a == b
	}
	// composite values never match by identity
	return false
}

// ToFloat converts any Go numeric value to float64
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Truthy mirrors loose JSON truthiness: nil, false, 0, "" are falsy
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if n, ok := ToFloat(v); ok {
		return n != 0
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	return true
}

// NormalizedFields holds the lower-cased, trimmed identity fields of a record
type NormalizedFields struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Normalize lower-cases and trims name and email when they are present
func Normalize(r Record) NormalizedFields {
	var out NormalizedFields
	if name, ok := r["name"].(string); ok {
		n := strings.ToLower(strings.TrimSpace(name))
		out.Name = &n
	}
	if email, ok := r["email"].(string); ok {
		e := strings.ToLower(strings.TrimSpace(email))
		out.Email = &e
	}
	return out
}

// ToRecord flattens the normalized fields into a record
func (n NormalizedFields) ToRecord() Record {
	out := Record{}
	if n.Name != nil {
		out["name"] = *n.Name
	}
	if n.Email != nil {
		out["email"] = *n.Email
	}
	return out
}

// TransformedRecord is the output schema of the transformation strategy
type TransformedRecord struct {
	ID          any
	ProcessedAt time.Time
	Normalized  NormalizedFields
	Extra       Record
}

// ToRecord flattens the transformed record over its extra fields
func (t TransformedRecord) ToRecord() Record {
	out := t.Extra.Clone()
	if out == nil {
		out = Record{}
	}
	out["id"] = t.ID
	out["processedAt"] = t.ProcessedAt
	out["normalized"] = t.Normalized.ToRecord()
	return out
}

// EnrichedRecord is the output schema of the enrichment strategy
type EnrichedRecord struct {
	Enriched            bool
	EnrichmentTimestamp time.Time
	AdditionalInfo      Record
	Extra               Record
}

// ToRecord flattens the enriched record over its extra fields
func (e EnrichedRecord) ToRecord() Record {
	out := e.Extra.Clone()
	if out == nil {
		out = Record{}
	}
	out["enriched"] = e.Enriched
	out["enrichmentTimestamp"] = e.EnrichmentTimestamp
	if e.AdditionalInfo != nil {
		out["additionalInfo"] = e.AdditionalInfo.Clone()
	} else {
		out["additionalInfo"] = nil
	}
	return out
}

// AggregationSummary describes the record set an aggregation ran over
type AggregationSummary struct {
	TotalRecords int
	LatestRecord Record
	AggregatedAt time.Time
}

// AggregationStatistics holds the numeric results of an aggregation
type AggregationStatistics struct {
	AverageID float64
}

// AggregatedRecord is the output schema of the aggregation strategy
type AggregatedRecord struct {
	Summary    AggregationSummary
	Statistics AggregationStatistics
}

// ToRecord flattens the aggregation into a record
func (a AggregatedRecord) ToRecord() Record {
	return Record{
		"summary": Record{
			"totalRecords": a.Summary.TotalRecords,
			"latestRecord": a.Summary.LatestRecord.Clone(),
			"aggregatedAt": a.Summary.AggregatedAt,
		},
		"statistics": Record{
			"averageId": a.Statistics.AverageID,
		},
	}
}
