package compare

import (
	"fmt"

	"github.com/banshee-data/predcompare/internal/prediction"
)

// Policy selects how numeric fields are compared.
type Policy string

const (
	// PolicyTolerance accepts numeric deltas up to a per-class threshold and
	// accumulates RMSE.
	PolicyTolerance Policy = "tolerance"
	// PolicyRounding rounds numeric values at flatten time and requires
	// exact equality of the rounded representation.
	PolicyRounding Policy = "rounding"
)

// NoRounding disables rounding for a metric class.
const NoRounding = -1

// DefaultMaxReportedErrors bounds the missing and mismatched lists of a
// rendered transcript.
const DefaultMaxReportedErrors = 10

// Config is threaded explicitly through every flatten and compare call.
type Config struct {
	Policy Policy

	DetectionIgnore        bool
	ClassificationIgnore   bool
	PredictionSourceIgnore bool

	// Decimal places kept at flatten time, or NoRounding.
	ConfPrecision                int
	BBoxPrecision                int
	ClassificationScorePrecision int
	PredictionScorePrecision     int

	// Classification entries whose score is below this value are dropped
	// from the row. Zero disables suppression.
	ClassificationScoreSuppress float64

	// Absolute error thresholds used by PolicyTolerance. The bbox error is
	// the sum of per-coordinate absolute differences.
	ConfThreshold                float64
	BBoxThreshold                float64
	ClassificationScoreThreshold float64
	PredictionScoreThreshold     float64

	// ReportMissingFields reports ref fields absent from the test row as
	// mismatches against the "missing" marker instead of skipping them.
	ReportMissingFields bool

	// MaxReportedErrors bounds the transcript lists; must be at least 1.
	MaxReportedErrors int

	// Workers > 1 builds the two indices concurrently and spreads the
	// per-identifier comparisons over that many goroutines.
	Workers int
}

// DefaultToleranceConfig mirrors the threshold-based comparison style.
func DefaultToleranceConfig() Config {
	return Config{
		Policy:                       PolicyTolerance,
		ConfPrecision:                NoRounding,
		BBoxPrecision:                NoRounding,
		ClassificationScorePrecision: NoRounding,
		PredictionScorePrecision:     NoRounding,
		ConfThreshold:                0.1,
		BBoxThreshold:                0.1,
		ClassificationScoreThreshold: 0.01,
		PredictionScoreThreshold:     0.01,
		ReportMissingFields:          false,
		MaxReportedErrors:            DefaultMaxReportedErrors,
		Workers:                      1,
	}
}

// DefaultRoundingConfig mirrors the rounding-based comparison style.
func DefaultRoundingConfig() Config {
	return Config{
		Policy:                       PolicyRounding,
		ConfPrecision:                3,
		BBoxPrecision:                2,
		ClassificationScorePrecision: 3,
		PredictionScorePrecision:     3,
		ClassificationScoreSuppress:  0.0001,
		ReportMissingFields:          true,
		MaxReportedErrors:            DefaultMaxReportedErrors,
		Workers:                      1,
	}
}

// DefaultConfig returns the defaults for the given policy.
func DefaultConfig(p Policy) (Config, error) {
	switch p {
	case PolicyTolerance, "":
		return DefaultToleranceConfig(), nil
	case PolicyRounding:
		return DefaultRoundingConfig(), nil
	}
	return Config{}, fmt.Errorf("unknown comparison policy %q", p)
}

// Validate checks the configuration for values the engine cannot use.
func (c Config) Validate() error {
	if c.Policy != PolicyTolerance && c.Policy != PolicyRounding {
		return fmt.Errorf("unknown comparison policy %q", c.Policy)
	}
	for _, mc := range MetricClasses {
		if p := c.Precision(mc); p < NoRounding {
			return fmt.Errorf("%s precision must be >= 0 or %d (no rounding), got %d", mc, NoRounding, p)
		}
		if t := c.Threshold(mc); t < 0 {
			return fmt.Errorf("%s threshold must be non-negative, got %f", mc, t)
		}
	}
	if c.ClassificationScoreSuppress < 0 {
		return fmt.Errorf("classification score suppression must be non-negative, got %f", c.ClassificationScoreSuppress)
	}
	if c.MaxReportedErrors < 1 {
		return fmt.Errorf("max reported errors must be positive, got %d", c.MaxReportedErrors)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// stageIgnored reports whether the stage's fields are dropped entirely.
func (c Config) stageIgnored(s prediction.FailureStage) bool {
	switch s {
	case prediction.StageDetector:
		return c.DetectionIgnore
	case prediction.StageClassifier:
		return c.ClassificationIgnore
	}
	return false
}

// Precision returns the rounding precision configured for a metric class.
func (c Config) Precision(mc MetricClass) int {
	switch mc {
	case DetectionConf:
		return c.ConfPrecision
	case DetectionBBox:
		return c.BBoxPrecision
	case ClassificationScore:
		return c.ClassificationScorePrecision
	case PredictionScore:
		return c.PredictionScorePrecision
	}
	return NoRounding
}

// Threshold returns the tolerance threshold configured for a metric class.
func (c Config) Threshold(mc MetricClass) float64 {
	switch mc {
	case DetectionConf:
		return c.ConfThreshold
	case DetectionBBox:
		return c.BBoxThreshold
	case ClassificationScore:
		return c.ClassificationScoreThreshold
	case PredictionScore:
		return c.PredictionScoreThreshold
	}
	return 0
}
