package compare

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/predcompare/internal/monitoring"
	"github.com/banshee-data/predcompare/internal/prediction"
)

// FileMismatches groups the mismatched fields of one identifier.
type FileMismatches struct {
	Identifier string     `json:"filepath"`
	Entries    []Mismatch `json:"mismatches"`
}

// Report is the full, untruncated result of comparing two collections.
type Report struct {
	Policy    Policy `json:"policy"`
	TestCount int    `json:"test_count"`
	RefCount  int    `json:"ref_count"`

	// MissingIdentifiers are reference filepaths absent from the test
	// collection, in reference order.
	MissingIdentifiers []string `json:"missing_filepaths"`
	// Mismatches lists every shared filepath whose rows differ, in
	// reference order.
	Mismatches []FileMismatches `json:"mismatched_filepaths"`

	// RMSE holds the root-mean-square error of each metric class that
	// received at least one sample. Only PolicyTolerance populates it.
	RMSE       map[MetricClass]float64    `json:"rmse,omitempty"`
	ErrorStats map[MetricClass]ErrorStats `json:"error_stats,omitempty"`

	TestSample *prediction.Record `json:"test_sample,omitempty"`
	RefSample  *prediction.Record `json:"ref_sample,omitempty"`

	// Samples retains every absolute error per class for charting. It is
	// not serialised.
	Samples map[MetricClass][]float64 `json:"-"`
}

// HasDifferences reports whether any identifier is missing or mismatched.
func (r *Report) HasDifferences() bool {
	return len(r.MissingIdentifiers) > 0 || len(r.Mismatches) > 0
}

// MismatchCountsByField counts mismatches per field name with positional
// indices collapsed, e.g. detection_3_conf counts as detection_<i>_conf.
func (r *Report) MismatchCountsByField() map[string]int {
	out := make(map[string]int)
	for _, fm := range r.Mismatches {
		for _, m := range fm.Entries {
			out[genericFieldName(m.Field)]++
		}
	}
	return out
}

// Compare runs a full comparison of test against ref.
func Compare(test, ref prediction.Envelope, cfg Config) (*Report, error) {
	return CompareContext(context.Background(), test, ref, cfg)
}

// CompareContext is Compare with cancellation checked between identifiers.
//
// The only envelope-level check is for the "predictions" key; it fails with
// a SchemaError wrapping ErrPredictionsKeyMissing before any indexing.
func CompareContext(ctx context.Context, test, ref prediction.Envelope, cfg Config) (*Report, error) {
	if !test.HasPredictions() {
		return nil, &SchemaError{Collection: "test", Err: ErrPredictionsKeyMissing}
	}
	if !ref.HasPredictions() {
		return nil, &SchemaError{Collection: "ref", Err: ErrPredictionsKeyMissing}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid comparison config: %w", err)
	}

	testIdx, refIdx, err := buildIndices(test.Predictions, ref.Predictions, cfg)
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("indexed %d test and %d ref filepaths", testIdx.Len(), refIdx.Len())

	report := &Report{
		Policy:    cfg.Policy,
		TestCount: len(test.Predictions),
		RefCount:  len(ref.Predictions),
	}
	if len(test.Predictions) > 0 {
		report.TestSample = &test.Predictions[0]
	}
	if len(ref.Predictions) > 0 {
		report.RefSample = &ref.Predictions[0]
	}

	ids := refIdx.Identifiers()
	results := make([][]Mismatch, len(ids))
	missing := make([]bool, len(ids))
	agg := NewAggregator(WithSamples())

	compareOne := func(i int, local *Aggregator) error {
		refRow, _ := refIdx.Lookup(ids[i])
		testRow, ok := testIdx.Lookup(ids[i])
		if !ok {
			missing[i] = true
			return nil
		}
		mm, err := CompareRows(refRow, testRow, local, cfg)
		if err != nil {
			var se *SchemaError
			if errors.As(err, &se) && se.Identifier == "" {
				se.Identifier = ids[i]
			}
			return err
		}
		results[i] = mm
		return nil
	}

	if workers := cfg.Workers; workers > 1 && len(ids) > 1 {
		if err := compareParallel(ctx, len(ids), workers, agg, compareOne); err != nil {
			return nil, err
		}
	} else {
		for i := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := compareOne(i, agg); err != nil {
				return nil, err
			}
		}
	}

	for i, id := range ids {
		switch {
		case missing[i]:
			report.MissingIdentifiers = append(report.MissingIdentifiers, id)
		case len(results[i]) > 0:
			report.Mismatches = append(report.Mismatches, FileMismatches{Identifier: id, Entries: results[i]})
			monitoring.Debugf("%s: %d mismatched fields", id, len(results[i]))
		}
	}

	report.RMSE = agg.RMSEByClass()
	report.ErrorStats = errorStats(agg)
	report.Samples = make(map[MetricClass][]float64)
	for _, mc := range MetricClasses {
		if s := agg.Samples(mc); len(s) > 0 {
			report.Samples[mc] = s
		}
	}
	return report, nil
}

// buildIndices indexes both collections, concurrently when cfg.Workers > 1.
func buildIndices(test, ref []prediction.Record, cfg Config) (testIdx, refIdx *Index, err error) {
	build := func(collection string, records []prediction.Record, dst **Index) error {
		idx, err := BuildIndex(records, cfg)
		if err != nil {
			return fmt.Errorf("failed to index %s data: %w", collection, err)
		}
		*dst = idx
		return nil
	}

	if cfg.Workers <= 1 {
		if err := build("test", test, &testIdx); err != nil {
			return nil, nil, err
		}
		if err := build("ref", ref, &refIdx); err != nil {
			return nil, nil, err
		}
		return testIdx, refIdx, nil
	}

	var g errgroup.Group
	g.Go(func() error { return build("test", test, &testIdx) })
	g.Go(func() error { return build("ref", ref, &refIdx) })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return testIdx, refIdx, nil
}

// compareParallel spreads n comparisons over workers goroutines, each with
// its own Aggregator, and merges the aggregators into agg once all are done.
// Workers own disjoint index ranges so results land in distinct slots.
func compareParallel(ctx context.Context, n, workers int, agg *Aggregator, compareOne func(int, *Aggregator) error) error {
	if workers > n {
		workers = n
	}
	locals := make([]*Aggregator, workers)
	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start, end := w*chunk, (w+1)*chunk
		if end > n {
			end = n
		}
		local := NewAggregator(WithSamples())
		locals[w] = local
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := compareOne(i, local); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, local := range locals {
		agg.Merge(local)
	}
	return nil
}
