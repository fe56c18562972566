// Package testutil provides shared test utilities and fixtures.
//
// This package centralises prediction record builders and assertion helpers
// used by the comparison, config and storage tests.
package testutil

import (
	"testing"

	"github.com/banshee-data/predcompare/internal/monitoring"
	"github.com/banshee-data/predcompare/internal/prediction"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// MuteLogs silences monitoring.Logf for the duration of the test.
func MuteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// RecordBuilder assembles a prediction.Record fixture.
type RecordBuilder struct {
	rec prediction.Record
}

// NewRecord starts a record for the given filepath.
func NewRecord(filepath string) *RecordBuilder {
	return &RecordBuilder{rec: prediction.Record{FilePath: filepath}}
}

// Detection appends a detection, marking detections as present.
func (b *RecordBuilder) Detection(category string, conf float64, bbox ...float64) *RecordBuilder {
	if b.rec.Detections == nil {
		b.rec.Detections = &[]prediction.Detection{}
	}
	*b.rec.Detections = append(*b.rec.Detections, prediction.Detection{
		Category: prediction.Label(category),
		Conf:     conf,
		BBox:     append([]float64(nil), bbox...),
	})
	return b
}

// EmptyDetections marks detections as present with no entries.
func (b *RecordBuilder) EmptyDetections() *RecordBuilder {
	b.rec.Detections = &[]prediction.Detection{}
	return b
}

// Classifications sets the parallel classes and scores.
func (b *RecordBuilder) Classifications(classes []string, scores []float64) *RecordBuilder {
	b.rec.Classifications = &prediction.Classifications{
		Classes: append([]string(nil), classes...),
		Scores:  append([]float64(nil), scores...),
	}
	return b
}

// Prediction sets the final prediction, its score and source.
func (b *RecordBuilder) Prediction(class string, score float64, source string) *RecordBuilder {
	b.rec.Prediction = &class
	b.rec.PredictionScore = &score
	b.rec.PredictionSource = &source
	return b
}

// Failures sets the failure tags.
func (b *RecordBuilder) Failures(tags ...string) *RecordBuilder {
	b.rec.Failures = append([]string{}, tags...)
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() prediction.Record {
	return b.rec
}

// Envelope wraps records in a predictions envelope. The Predictions slice is
// always non-nil so the envelope counts as having the key.
func Envelope(records ...prediction.Record) prediction.Envelope {
	return prediction.Envelope{Predictions: append([]prediction.Record{}, records...)}
}
