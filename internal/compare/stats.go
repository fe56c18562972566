package compare

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrorStats summarises the distribution of absolute errors of one metric
// class over a comparison run.
type ErrorStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
}

// errorStats computes ErrorStats for every class with retained samples.
func errorStats(agg *Aggregator) map[MetricClass]ErrorStats {
	out := make(map[MetricClass]ErrorStats)
	for _, mc := range MetricClasses {
		samples := agg.Samples(mc)
		if len(samples) == 0 {
			continue
		}
		sort.Float64s(samples)
		out[mc] = ErrorStats{
			Count: len(samples),
			Mean:  stat.Mean(samples, nil),
			P95:   stat.Quantile(0.95, stat.Empirical, samples, nil),
			Max:   floats.Max(samples),
		}
	}
	return out
}
