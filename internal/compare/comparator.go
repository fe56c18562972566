package compare

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/predcompare/internal/prediction"
)

// Mismatch is one field that failed the configured comparison policy. Ref or
// Test hold the Missing marker when the field is absent on that side.
type Mismatch struct {
	Field string `json:"field"`
	Ref   Value  `json:"ref"`
	Test  Value  `json:"test"`
}

// String renders the mismatch as a transcript line body.
func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s != %s", m.Field, m.Ref, m.Test)
}

// CompareRows compares a reference row with a test row and returns the
// fields that do not match, in visit order.
//
// Stages are visited in failure-stage order (detection, classification,
// prediction). When a stage's failure flag is present on exactly one side a
// single mismatch is reported for the flag and the stage's fields are not
// examined. Otherwise the stage's presence flag, unless the stage is
// ignored, and every reference field with the stage prefix are compared.
//
// Under PolicyTolerance every numeric field present on both sides feeds agg
// before its threshold is applied. agg may be nil under PolicyRounding.
func CompareRows(ref, test Row, agg *Aggregator, cfg Config) ([]Mismatch, error) {
	var out []Mismatch

	for _, stage := range prediction.Stages {
		failed := stage.FailedField()
		refFailed, testFailed := ref.Has(failed), test.Has(failed)
		switch {
		case refFailed && !testFailed:
			out = append(out, Mismatch{Field: failed, Ref: Bool(true), Test: Missing()})
			continue
		case !refFailed && testFailed:
			out = append(out, Mismatch{Field: failed, Ref: Missing(), Test: Bool(true)})
			continue
		}

		found := stage.FoundField()
		if refV, ok := ref.Get(found); ok && !cfg.stageIgnored(stage) {
			testV, ok := test.Get(found)
			if !ok {
				testV = Missing()
			}
			if !refV.Equal(testV) {
				out = append(out, Mismatch{Field: found, Ref: refV, Test: testV})
			}
		}

		prefix := stage.Prefix() + "_"
		for _, name := range ref.names {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			refV := ref.values[name]
			testV, ok := test.Get(name)
			if !ok {
				if cfg.ReportMissingFields {
					out = append(out, Mismatch{Field: name, Ref: refV, Test: Missing()})
				}
				continue
			}

			mc, numeric := classifyField(name)
			if numeric && cfg.Policy == PolicyTolerance {
				absErr, err := absoluteError(mc, refV, testV)
				if err != nil {
					return nil, &SchemaError{Field: name, Err: err}
				}
				if agg != nil {
					agg.Accumulate(mc, absErr)
				}
				if absErr > cfg.Threshold(mc) {
					out = append(out, Mismatch{Field: name, Ref: refV, Test: testV})
				}
				continue
			}

			if !refV.Equal(testV) {
				out = append(out, Mismatch{Field: name, Ref: refV, Test: testV})
			}
		}
	}

	return out, nil
}

// absoluteError is |ref - test| for scalars and the L1 distance between the
// coordinate vectors for boxes.
func absoluteError(mc MetricClass, ref, test Value) (float64, error) {
	if mc == DetectionBBox {
		r, okR := ref.Coords()
		t, okT := test.Coords()
		if !okR || !okT {
			return 0, fmt.Errorf("bbox values must be coordinate vectors")
		}
		if len(r) != len(t) {
			return 0, fmt.Errorf("bbox length mismatch: ref %d, test %d", len(r), len(t))
		}
		return floats.Distance(r, t, 1), nil
	}

	r, okR := ref.Float()
	t, okT := test.Float()
	if !okR || !okT {
		return 0, fmt.Errorf("%s values must be numeric", mc)
	}
	return math.Abs(r - t), nil
}
