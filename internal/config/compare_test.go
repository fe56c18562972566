package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/predcompare/internal/compare"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyCompareConfig_Defaults(t *testing.T) {
	cfg := EmptyCompareConfig()
	if diff := cmp.Diff(compare.DefaultToleranceConfig(), cfg.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareConfig_RoundingModeDefaults(t *testing.T) {
	cfg := &CompareConfig{Mode: ptrString("rounding")}
	if diff := cmp.Diff(compare.DefaultRoundingConfig(), cfg.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsFileMatchesEngine(t *testing.T) {
	cfg, err := LoadCompareConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)
	if diff := cmp.Diff(compare.DefaultToleranceConfig(), cfg.Options()); diff != "" {
		t.Errorf("%s drifted from the engine defaults (-want +got):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadCompareConfig(t *testing.T) {
	path := writeConfig(t, "cmp.json", `{
  "mode": "rounding",
  "bbox_precision": 4,
  "classification_score_suppress": 0.05,
  "prediction_source_ignore": true,
  "max_reported_errors": 25,
  "workers": 4
}`)

	cfg, err := LoadCompareConfig(path)
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, compare.PolicyRounding, opts.Policy)
	assert.Equal(t, 4, opts.BBoxPrecision)
	assert.Equal(t, 3, opts.ConfPrecision, "unset precision falls back to the rounding default")
	assert.Equal(t, 0.05, opts.ClassificationScoreSuppress)
	assert.True(t, opts.PredictionSourceIgnore)
	assert.True(t, opts.ReportMissingFields)
	assert.Equal(t, 25, opts.MaxReportedErrors)
	assert.Equal(t, 4, opts.Workers)
	require.NoError(t, opts.Validate())
}

func TestLoadCompareConfig_PartialToleranceOverride(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"conf_threshold": 0.2, "report_missing_fields": true}`)

	cfg, err := LoadCompareConfig(path)
	require.NoError(t, err)
	assert.Equal(t, compare.PolicyTolerance, cfg.GetMode())
	assert.Equal(t, 0.2, cfg.GetConfThreshold())
	assert.Equal(t, 0.1, cfg.GetBBoxThreshold())
	assert.Equal(t, 0.01, cfg.GetPredictionScoreThreshold())
	assert.True(t, cfg.GetReportMissingFields())
	assert.Equal(t, compare.NoRounding, cfg.GetConfPrecision())
}

func TestLoadCompareConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{name: "wrong extension", file: "cfg.yaml", body: `{}`, wantErr: ".json extension"},
		{name: "bad json", file: "cfg.json", body: `{"mode":`, wantErr: "failed to parse config JSON"},
		{name: "unknown mode", file: "cfg.json", body: `{"mode":"fuzzy"}`, wantErr: "mode must be"},
		{name: "negative threshold", file: "cfg.json", body: `{"bbox_threshold":-0.5}`, wantErr: "bbox_threshold must be non-negative"},
		{name: "precision below sentinel", file: "cfg.json", body: `{"conf_precision":-2}`, wantErr: "conf_precision must be >= 0"},
		{name: "suppress out of range", file: "cfg.json", body: `{"classification_score_suppress":1.5}`, wantErr: "between 0 and 1"},
		{name: "zero max errors", file: "cfg.json", body: `{"max_reported_errors":0}`, wantErr: "max_reported_errors must be positive"},
		{name: "zero workers", file: "cfg.json", body: `{"workers":0}`, wantErr: "workers must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCompareConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCompareConfig_MissingFile(t *testing.T) {
	_, err := LoadCompareConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat config file")
}

func TestLoadCompareConfig_TooLarge(t *testing.T) {
	body := `{"mode":"tolerance","pad":"` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadCompareConfig(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestFromOptionsRoundTrip(t *testing.T) {
	for _, opts := range []compare.Config{compare.DefaultToleranceConfig(), compare.DefaultRoundingConfig()} {
		opts.Workers = 3
		opts.DetectionIgnore = true
		got := FromOptions(opts).Options()
		if diff := cmp.Diff(opts, got); diff != "" {
			t.Errorf("round trip mismatch for %s (-want +got):\n%s", opts.Policy, diff)
		}
		require.NoError(t, FromOptions(opts).Validate())
	}
}

func TestCompareConfig_RoundsNothing(t *testing.T) {
	tests := []struct {
		name string
		cfg  *CompareConfig
		want bool
	}{
		{name: "tolerance mode", cfg: EmptyCompareConfig(), want: false},
		{name: "rounding defaults", cfg: &CompareConfig{Mode: ptrString("rounding")}, want: false},
		{
			name: "rounding with all precisions disabled",
			cfg: &CompareConfig{
				Mode:                         ptrString("rounding"),
				ConfPrecision:                ptrInt(-1),
				BBoxPrecision:                ptrInt(-1),
				ClassificationScorePrecision: ptrInt(-1),
				PredictionScorePrecision:     ptrInt(-1),
			},
			want: true,
		},
		{
			name: "rounding with one precision kept",
			cfg: &CompareConfig{
				Mode:                         ptrString("rounding"),
				ConfPrecision:                ptrInt(-1),
				BBoxPrecision:                ptrInt(-1),
				ClassificationScorePrecision: ptrInt(-1),
				PredictionScorePrecision:     ptrInt(3),
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.RoundsNothing())
		})
	}

	loaded, err := LoadCompareConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)
	mode := "rounding"
	loaded.Mode = &mode
	assert.True(t, loaded.RoundsNothing(), "the defaults file pins precisions to no rounding")
}
