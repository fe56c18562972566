package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/predcompare/internal/compare"
)

// DefaultConfigPath is the path to the checked-in tolerance defaults file.
const DefaultConfigPath = "config/compare.defaults.json"

// CompareConfig is the on-disk form of the comparison options. Every field
// is optional; an omitted field falls back to the default of the selected
// mode, so partial configs are safe.
type CompareConfig struct {
	// Mode is "tolerance" (default) or "rounding".
	Mode *string `json:"mode,omitempty"`

	// Section switches
	DetectionIgnore        *bool `json:"detection_ignore,omitempty"`
	ClassificationIgnore   *bool `json:"classification_ignore,omitempty"`
	PredictionSourceIgnore *bool `json:"prediction_source_ignore,omitempty"`

	// Rounding params; -1 disables rounding for the class
	ConfPrecision                *int     `json:"conf_precision,omitempty"`
	BBoxPrecision                *int     `json:"bbox_precision,omitempty"`
	ClassificationScorePrecision *int     `json:"classification_score_precision,omitempty"`
	PredictionScorePrecision     *int     `json:"prediction_score_precision,omitempty"`
	ClassificationScoreSuppress  *float64 `json:"classification_score_suppress,omitempty"`

	// Tolerance params
	ConfThreshold                *float64 `json:"conf_threshold,omitempty"`
	BBoxThreshold                *float64 `json:"bbox_threshold,omitempty"`
	ClassificationScoreThreshold *float64 `json:"classification_score_threshold,omitempty"`
	PredictionScoreThreshold     *float64 `json:"prediction_score_threshold,omitempty"`

	// Reporting
	ReportMissingFields *bool `json:"report_missing_fields,omitempty"`
	MaxReportedErrors   *int  `json:"max_reported_errors,omitempty"`
	Workers             *int  `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCompareConfig returns a CompareConfig with all fields set to nil.
func EmptyCompareConfig() *CompareConfig {
	return &CompareConfig{}
}

// FromOptions returns a fully populated CompareConfig for opts. It is the
// inverse of Options and is used to record the effective settings of a run.
func FromOptions(opts compare.Config) *CompareConfig {
	return &CompareConfig{
		Mode:                         ptrString(string(opts.Policy)),
		DetectionIgnore:              ptrBool(opts.DetectionIgnore),
		ClassificationIgnore:         ptrBool(opts.ClassificationIgnore),
		PredictionSourceIgnore:       ptrBool(opts.PredictionSourceIgnore),
		ConfPrecision:                ptrInt(opts.ConfPrecision),
		BBoxPrecision:                ptrInt(opts.BBoxPrecision),
		ClassificationScorePrecision: ptrInt(opts.ClassificationScorePrecision),
		PredictionScorePrecision:     ptrInt(opts.PredictionScorePrecision),
		ClassificationScoreSuppress:  ptrFloat64(opts.ClassificationScoreSuppress),
		ConfThreshold:                ptrFloat64(opts.ConfThreshold),
		BBoxThreshold:                ptrFloat64(opts.BBoxThreshold),
		ClassificationScoreThreshold: ptrFloat64(opts.ClassificationScoreThreshold),
		PredictionScoreThreshold:     ptrFloat64(opts.PredictionScoreThreshold),
		ReportMissingFields:          ptrBool(opts.ReportMissingFields),
		MaxReportedErrors:            ptrInt(opts.MaxReportedErrors),
		Workers:                      ptrInt(opts.Workers),
	}
}

// LoadCompareConfig loads a CompareConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadCompareConfig(path string) (*CompareConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCompareConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *CompareConfig) Validate() error {
	if c.Mode != nil {
		if _, err := compare.DefaultConfig(compare.Policy(*c.Mode)); err != nil {
			return fmt.Errorf("mode must be %q or %q, got %q", compare.PolicyTolerance, compare.PolicyRounding, *c.Mode)
		}
	}

	precisions := map[string]*int{
		"conf_precision":                 c.ConfPrecision,
		"bbox_precision":                 c.BBoxPrecision,
		"classification_score_precision": c.ClassificationScorePrecision,
		"prediction_score_precision":     c.PredictionScorePrecision,
	}
	for name, p := range precisions {
		if p != nil && *p < compare.NoRounding {
			return fmt.Errorf("%s must be >= 0 or %d to disable rounding, got %d", name, compare.NoRounding, *p)
		}
	}

	thresholds := map[string]*float64{
		"conf_threshold":                 c.ConfThreshold,
		"bbox_threshold":                 c.BBoxThreshold,
		"classification_score_threshold": c.ClassificationScoreThreshold,
		"prediction_score_threshold":     c.PredictionScoreThreshold,
	}
	for name, t := range thresholds {
		if t != nil && *t < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *t)
		}
	}

	if c.ClassificationScoreSuppress != nil {
		if *c.ClassificationScoreSuppress < 0 || *c.ClassificationScoreSuppress > 1 {
			return fmt.Errorf("classification_score_suppress must be between 0 and 1, got %f", *c.ClassificationScoreSuppress)
		}
	}
	if c.MaxReportedErrors != nil && *c.MaxReportedErrors < 1 {
		return fmt.Errorf("max_reported_errors must be positive, got %d", *c.MaxReportedErrors)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", *c.Workers)
	}
	return nil
}

// GetMode returns the comparison policy or the default.
func (c *CompareConfig) GetMode() compare.Policy {
	if c.Mode == nil || *c.Mode == "" {
		return compare.PolicyTolerance
	}
	return compare.Policy(*c.Mode)
}

// defaults returns the engine defaults of the selected mode.
func (c *CompareConfig) defaults() compare.Config {
	d, err := compare.DefaultConfig(c.GetMode())
	if err != nil {
		return compare.DefaultToleranceConfig()
	}
	return d
}

// GetDetectionIgnore returns the detection_ignore value or the default.
func (c *CompareConfig) GetDetectionIgnore() bool {
	if c.DetectionIgnore == nil {
		return c.defaults().DetectionIgnore
	}
	return *c.DetectionIgnore
}

// GetClassificationIgnore returns the classification_ignore value or the default.
func (c *CompareConfig) GetClassificationIgnore() bool {
	if c.ClassificationIgnore == nil {
		return c.defaults().ClassificationIgnore
	}
	return *c.ClassificationIgnore
}

// GetPredictionSourceIgnore returns the prediction_source_ignore value or the default.
func (c *CompareConfig) GetPredictionSourceIgnore() bool {
	if c.PredictionSourceIgnore == nil {
		return c.defaults().PredictionSourceIgnore
	}
	return *c.PredictionSourceIgnore
}

// GetConfPrecision returns the conf_precision value or the mode default.
func (c *CompareConfig) GetConfPrecision() int {
	if c.ConfPrecision == nil {
		return c.defaults().ConfPrecision
	}
	return *c.ConfPrecision
}

// GetBBoxPrecision returns the bbox_precision value or the mode default.
func (c *CompareConfig) GetBBoxPrecision() int {
	if c.BBoxPrecision == nil {
		return c.defaults().BBoxPrecision
	}
	return *c.BBoxPrecision
}

// GetClassificationScorePrecision returns the classification_score_precision value or the mode default.
func (c *CompareConfig) GetClassificationScorePrecision() int {
	if c.ClassificationScorePrecision == nil {
		return c.defaults().ClassificationScorePrecision
	}
	return *c.ClassificationScorePrecision
}

// GetPredictionScorePrecision returns the prediction_score_precision value or the mode default.
func (c *CompareConfig) GetPredictionScorePrecision() int {
	if c.PredictionScorePrecision == nil {
		return c.defaults().PredictionScorePrecision
	}
	return *c.PredictionScorePrecision
}

// GetClassificationScoreSuppress returns the classification_score_suppress value or the mode default.
func (c *CompareConfig) GetClassificationScoreSuppress() float64 {
	if c.ClassificationScoreSuppress == nil {
		return c.defaults().ClassificationScoreSuppress
	}
	return *c.ClassificationScoreSuppress
}

// GetConfThreshold returns the conf_threshold value or the default.
func (c *CompareConfig) GetConfThreshold() float64 {
	if c.ConfThreshold == nil {
		return c.defaults().ConfThreshold
	}
	return *c.ConfThreshold
}

// GetBBoxThreshold returns the bbox_threshold value or the default.
func (c *CompareConfig) GetBBoxThreshold() float64 {
	if c.BBoxThreshold == nil {
		return c.defaults().BBoxThreshold
	}
	return *c.BBoxThreshold
}

// GetClassificationScoreThreshold returns the classification_score_threshold value or the default.
func (c *CompareConfig) GetClassificationScoreThreshold() float64 {
	if c.ClassificationScoreThreshold == nil {
		return c.defaults().ClassificationScoreThreshold
	}
	return *c.ClassificationScoreThreshold
}

// GetPredictionScoreThreshold returns the prediction_score_threshold value or the default.
func (c *CompareConfig) GetPredictionScoreThreshold() float64 {
	if c.PredictionScoreThreshold == nil {
		return c.defaults().PredictionScoreThreshold
	}
	return *c.PredictionScoreThreshold
}

// GetReportMissingFields returns the report_missing_fields value or the mode default.
func (c *CompareConfig) GetReportMissingFields() bool {
	if c.ReportMissingFields == nil {
		return c.defaults().ReportMissingFields
	}
	return *c.ReportMissingFields
}

// GetMaxReportedErrors returns the max_reported_errors value or the default.
func (c *CompareConfig) GetMaxReportedErrors() int {
	if c.MaxReportedErrors == nil {
		return compare.DefaultMaxReportedErrors
	}
	return *c.MaxReportedErrors
}

// GetWorkers returns the workers value or the default.
func (c *CompareConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// RoundsNothing reports whether rounding mode resolved with every precision
// set to compare.NoRounding, so values are compared unrounded.
func (c *CompareConfig) RoundsNothing() bool {
	if c.GetMode() != compare.PolicyRounding {
		return false
	}
	opts := c.Options()
	for _, mc := range compare.MetricClasses {
		if opts.Precision(mc) != compare.NoRounding {
			return false
		}
	}
	return true
}

// Options resolves every field into the engine configuration.
func (c *CompareConfig) Options() compare.Config {
	return compare.Config{
		Policy:                       c.GetMode(),
		DetectionIgnore:              c.GetDetectionIgnore(),
		ClassificationIgnore:         c.GetClassificationIgnore(),
		PredictionSourceIgnore:       c.GetPredictionSourceIgnore(),
		ConfPrecision:                c.GetConfPrecision(),
		BBoxPrecision:                c.GetBBoxPrecision(),
		ClassificationScorePrecision: c.GetClassificationScorePrecision(),
		PredictionScorePrecision:     c.GetPredictionScorePrecision(),
		ClassificationScoreSuppress:  c.GetClassificationScoreSuppress(),
		ConfThreshold:                c.GetConfThreshold(),
		BBoxThreshold:                c.GetBBoxThreshold(),
		ClassificationScoreThreshold: c.GetClassificationScoreThreshold(),
		PredictionScoreThreshold:     c.GetPredictionScoreThreshold(),
		ReportMissingFields:          c.GetReportMissingFields(),
		MaxReportedErrors:            c.GetMaxReportedErrors(),
		Workers:                      c.GetWorkers(),
	}
}
