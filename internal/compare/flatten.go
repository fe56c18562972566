package compare

import (
	"fmt"
	"strings"

	"github.com/banshee-data/predcompare/internal/prediction"
)

// bboxLen is the number of coordinates of a detection bounding box.
const bboxLen = 4

// failureSeparator joins failure tags in the derived "failures" field.
const failureSeparator = "+"

// Flatten converts one prediction record into a Row. It is a pure function
// of the record and cfg.
//
// Field names are positional and zero-based per source sequence:
// detection_<i>_{category,conf,bbox}, classification_<i>_{class,score} and
// prediction_{class,score,source}. The presence flags detections_found,
// classifications_found and predictions_found are always set. Each failure
// tag sets <stage>s_failed and the tags are joined into "failures".
func Flatten(rec prediction.Record, cfg Config) (Row, error) {
	row := newRow()
	id := rec.FilePath

	if rec.Detections != nil && !cfg.DetectionIgnore {
		for i, det := range *rec.Detections {
			prefix := fmt.Sprintf("detection_%d_", i)
			if len(det.BBox) != bboxLen {
				return Row{}, schemaErrorf(id, prefix+"bbox", "bbox must have %d coordinates, got %d", bboxLen, len(det.BBox))
			}
			row.set(prefix+"category", Text(string(det.Category)))
			row.set(prefix+"conf", roundedNumber(det.Conf, cfg.ConfPrecision))
			row.set(prefix+"bbox", roundedBBox(det.BBox, cfg.BBoxPrecision))
		}
	}

	if rec.Classifications != nil && !cfg.ClassificationIgnore {
		classes, scores := rec.Classifications.Classes, rec.Classifications.Scores
		if len(classes) != len(scores) {
			return Row{}, schemaErrorf(id, "classifications", "%d classes but %d scores", len(classes), len(scores))
		}
		for i, class := range classes {
			if cfg.ClassificationScoreSuppress > 0 && scores[i] < cfg.ClassificationScoreSuppress {
				continue
			}
			prefix := fmt.Sprintf("classification_%d_", i)
			row.set(prefix+"class", Text(class))
			row.set(prefix+"score", roundedNumber(scores[i], cfg.ClassificationScorePrecision))
		}
	}

	if rec.Prediction != nil {
		if rec.PredictionScore == nil {
			return Row{}, schemaErrorf(id, "prediction_score", "prediction %q has no prediction_score", *rec.Prediction)
		}
		row.set("prediction_class", Text(*rec.Prediction))
		row.set("prediction_score", roundedNumber(*rec.PredictionScore, cfg.PredictionScorePrecision))
		if !cfg.PredictionSourceIgnore && rec.PredictionSource != nil {
			row.set("prediction_source", Text(*rec.PredictionSource))
		}
	}

	row.set(prediction.StageDetector.FoundField(), Bool(rec.Detections != nil))
	row.set(prediction.StageClassifier.FoundField(), Bool(rec.Classifications != nil))
	row.set(prediction.StagePredictor.FoundField(), Bool(rec.Prediction != nil))

	if rec.Failures != nil {
		for _, tag := range rec.Failures {
			stage, err := prediction.ParseFailureStage(tag)
			if err != nil {
				return Row{}, &SchemaError{Identifier: id, Field: "failures", Err: err}
			}
			row.set(stage.FailedField(), Bool(true))
		}
		row.set("failures", Text(strings.Join(rec.Failures, failureSeparator)))
	}

	return row, nil
}
