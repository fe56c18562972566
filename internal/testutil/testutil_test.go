package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/predcompare/internal/monitoring"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("boom"))
}

func TestAssertError_FailurePath(t *testing.T) {
	t.Parallel()

	ok := t.Run("nil error", func(t *testing.T) {
		AssertError(t, nil)
	})
	if ok {
		t.Fatal("expected subtest to fail on nil error")
	}
}

func TestRecordBuilder(t *testing.T) {
	t.Parallel()

	rec := NewRecord("a.jpg").
		Detection("1", 0.9, 0.1, 0.2, 0.3, 0.4).
		Classifications([]string{"cat"}, []float64{0.7}).
		Prediction("cat", 0.7, "classifier").
		Failures("DETECTOR").
		Build()

	if rec.FilePath != "a.jpg" {
		t.Errorf("FilePath = %q", rec.FilePath)
	}
	if rec.Detections == nil || len(*rec.Detections) != 1 {
		t.Fatalf("expected one detection, got %v", rec.Detections)
	}
	if rec.Prediction == nil || *rec.Prediction != "cat" {
		t.Errorf("Prediction = %v", rec.Prediction)
	}
	if rec.PredictionScore == nil || *rec.PredictionScore != 0.7 {
		t.Errorf("PredictionScore = %v", rec.PredictionScore)
	}
	if len(rec.Failures) != 1 || rec.Failures[0] != "DETECTOR" {
		t.Errorf("Failures = %v", rec.Failures)
	}

	empty := NewRecord("b.jpg").EmptyDetections().Build()
	if empty.Detections == nil || len(*empty.Detections) != 0 {
		t.Errorf("expected present empty detections, got %v", empty.Detections)
	}
}

func TestEnvelope(t *testing.T) {
	t.Parallel()

	env := Envelope()
	if !env.HasPredictions() {
		t.Error("empty Envelope() must still carry the predictions key")
	}
	env = Envelope(NewRecord("a.jpg").Build())
	if len(env.Predictions) != 1 {
		t.Errorf("len = %d, want 1", len(env.Predictions))
	}
}

func TestMuteLogs(t *testing.T) {
	called := false
	original := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) { called = true })
	defer func() { monitoring.Logf = original }()

	t.Run("muted", func(t *testing.T) {
		MuteLogs(t)
		monitoring.Logf("quiet")
	})
	if called {
		t.Error("logger called while muted")
	}
	monitoring.Logf("loud")
	if !called {
		t.Error("logger not restored after MuteLogs cleanup")
	}
}
