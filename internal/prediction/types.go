// Package prediction defines the on-disk shape of a model predictions file
// and loads it into memory for comparison.
//
// A predictions file is a JSON envelope of the form {"predictions": [...]},
// one record per input image keyed by its filepath.
package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is the top-level object of a predictions file. A nil Predictions
// slice means the "predictions" key was absent (or null); an empty,
// non-nil slice is a valid collection with zero records.
type Envelope struct {
	Predictions []Record `json:"predictions"`
}

// HasPredictions reports whether the envelope carried a "predictions" key.
func (e Envelope) HasPredictions() bool {
	return e.Predictions != nil
}

// Record is one model's output for one input image.
//
// Pointer fields distinguish an absent key from a present but empty value,
// which matters because presence is itself compared.
type Record struct {
	FilePath         string           `json:"filepath"`
	Country          *string          `json:"country,omitempty"`
	Admin1Region     *string          `json:"admin1_region,omitempty"`
	Detections       *[]Detection     `json:"detections,omitempty"`
	Classifications  *Classifications `json:"classifications,omitempty"`
	Prediction       *string          `json:"prediction,omitempty"`
	PredictionScore  *float64         `json:"prediction_score,omitempty"`
	PredictionSource *string          `json:"prediction_source,omitempty"`
	Failures         []string         `json:"failures,omitempty"`
	ModelVersion     *string          `json:"model_version,omitempty"`
}

// Detection is a single object found by the detector.
type Detection struct {
	Category Label     `json:"category"`
	Label    string    `json:"label,omitempty"`
	Conf     float64   `json:"conf"`
	BBox     []float64 `json:"bbox"`
}

// Classifications holds the ranked classifier output. Classes and Scores are
// parallel slices.
type Classifications struct {
	Classes []string  `json:"classes"`
	Scores  []float64 `json:"scores"`
}

// Label is an opaque category token. Producers disagree on whether detector
// categories are emitted as strings ("1") or numbers (1), so both decode to
// the same textual form.
type Label string

// UnmarshalJSON accepts a JSON string or number.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("category must be a string or number, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*l = Label(strconv.FormatInt(i, 10))
		return nil
	}
	*l = Label(n.String())
	return nil
}

// Summary renders a short one-line description of the record, used for the
// "first prediction" preview of a comparison transcript.
func (r Record) Summary() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("{filepath: %q}", r.FilePath)
	}
	return string(b)
}
