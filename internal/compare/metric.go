package compare

import (
	"fmt"
	"strings"
)

// MetricClass is one of the numeric quantity categories tracked separately
// for tolerance and RMSE purposes.
type MetricClass int

const (
	DetectionBBox MetricClass = iota
	DetectionConf
	ClassificationScore
	PredictionScore

	numMetricClasses
)

// MetricClasses lists every metric class in summary order.
var MetricClasses = []MetricClass{DetectionBBox, DetectionConf, ClassificationScore, PredictionScore}

// String returns the machine name, e.g. "detection_bbox".
func (mc MetricClass) String() string {
	switch mc {
	case DetectionBBox:
		return "detection_bbox"
	case DetectionConf:
		return "detection_conf"
	case ClassificationScore:
		return "classification_score"
	case PredictionScore:
		return "prediction_score"
	}
	return fmt.Sprintf("MetricClass(%d)", int(mc))
}

// Title returns the human readable name used in transcripts.
func (mc MetricClass) Title() string {
	return strings.ReplaceAll(mc.String(), "_", " ")
}

// MarshalText lets MetricClass key JSON objects.
func (mc MetricClass) MarshalText() ([]byte, error) {
	if mc < 0 || mc >= numMetricClasses {
		return nil, fmt.Errorf("invalid metric class %d", int(mc))
	}
	return []byte(mc.String()), nil
}

// UnmarshalText parses the machine name.
func (mc *MetricClass) UnmarshalText(b []byte) error {
	for _, c := range MetricClasses {
		if c.String() == string(b) {
			*mc = c
			return nil
		}
	}
	return fmt.Errorf("unknown metric class %q", b)
}

// classifyField maps a flattened field name to its metric class. Fields
// that are not numeric quantities report ok=false.
func classifyField(name string) (mc MetricClass, ok bool) {
	switch {
	case strings.HasPrefix(name, "detection_") && strings.HasSuffix(name, "_conf"):
		return DetectionConf, true
	case strings.HasPrefix(name, "detection_") && strings.HasSuffix(name, "_bbox"):
		return DetectionBBox, true
	case strings.HasPrefix(name, "classification_") && strings.HasSuffix(name, "_score"):
		return ClassificationScore, true
	case name == "prediction_score":
		return PredictionScore, true
	}
	return 0, false
}

// genericFieldName collapses positional indices, so detection_3_conf
// becomes detection_<i>_conf.
func genericFieldName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "<i>"
		}
	}
	return strings.Join(parts, "_")
}
