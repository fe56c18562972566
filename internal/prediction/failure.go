package prediction

import "fmt"

// FailureStage is the pipeline stage a failure tag refers to.
type FailureStage int

const (
	StageDetector FailureStage = iota
	StageClassifier
	StagePredictor
)

// Stages lists every failure stage in comparison order.
var Stages = []FailureStage{StageDetector, StageClassifier, StagePredictor}

// ParseFailureStage maps a failure tag such as "DETECTOR" to its stage.
func ParseFailureStage(tag string) (FailureStage, error) {
	switch tag {
	case "DETECTOR":
		return StageDetector, nil
	case "CLASSIFIER":
		return StageClassifier, nil
	case "PREDICTOR":
		return StagePredictor, nil
	}
	return 0, fmt.Errorf("unknown failure tag %q", tag)
}

// String returns the tag as it appears in a predictions file.
func (s FailureStage) String() string {
	switch s {
	case StageDetector:
		return "DETECTOR"
	case StageClassifier:
		return "CLASSIFIER"
	case StagePredictor:
		return "PREDICTOR"
	}
	return fmt.Sprintf("FailureStage(%d)", int(s))
}

// Prefix returns the flattened field prefix owned by the stage, e.g.
// "detection" for StageDetector.
func (s FailureStage) Prefix() string {
	switch s {
	case StageDetector:
		return "detection"
	case StageClassifier:
		return "classification"
	case StagePredictor:
		return "prediction"
	}
	return ""
}

// FailedField is the synthesized boolean field set when the stage failed.
func (s FailureStage) FailedField() string {
	return s.Prefix() + "s_failed"
}

// FoundField is the presence flag for the stage's output.
func (s FailureStage) FoundField() string {
	return s.Prefix() + "s_found"
}
