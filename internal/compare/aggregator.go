package compare

import "math"

// Aggregator accumulates squared absolute errors per metric class and
// reports the root-mean-square error on demand.
//
// An Aggregator is not safe for concurrent use. Parallel comparisons give
// each worker its own Aggregator and fold them together with Merge.
type Aggregator struct {
	sumSq       [numMetricClasses]float64
	count       [numMetricClasses]int
	samples     [numMetricClasses][]float64
	keepSamples bool
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSamples keeps every absolute error so distribution statistics and
// histograms can be produced after the run.
func WithSamples() AggregatorOption {
	return func(a *Aggregator) {
		a.keepSamples = true
	}
}

// NewAggregator returns a zeroed Aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Accumulate adds absErr² to the class sum and increments its count.
func (a *Aggregator) Accumulate(mc MetricClass, absErr float64) {
	if mc < 0 || mc >= numMetricClasses {
		return
	}
	a.sumSq[mc] += absErr * absErr
	a.count[mc]++
	if a.keepSamples {
		a.samples[mc] = append(a.samples[mc], absErr)
	}
}

// Count returns how many errors were accumulated for the class.
func (a *Aggregator) Count(mc MetricClass) int {
	if mc < 0 || mc >= numMetricClasses {
		return 0
	}
	return a.count[mc]
}

// RMSE returns sqrt(sum/count) for the class. ok is false when nothing was
// accumulated, in which case the class is left out of reports.
func (a *Aggregator) RMSE(mc MetricClass) (rmse float64, ok bool) {
	if mc < 0 || mc >= numMetricClasses || a.count[mc] == 0 {
		return 0, false
	}
	return math.Sqrt(a.sumSq[mc] / float64(a.count[mc])), true
}

// Samples returns a copy of the retained absolute errors for the class. It
// is empty unless the Aggregator was built WithSamples.
func (a *Aggregator) Samples(mc MetricClass) []float64 {
	if mc < 0 || mc >= numMetricClasses {
		return nil
	}
	return append([]float64(nil), a.samples[mc]...)
}

// Merge folds other into a.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	for mc := MetricClass(0); mc < numMetricClasses; mc++ {
		a.sumSq[mc] += other.sumSq[mc]
		a.count[mc] += other.count[mc]
		if a.keepSamples {
			a.samples[mc] = append(a.samples[mc], other.samples[mc]...)
		}
	}
}

// RMSEByClass returns the RMSE of every class that has at least one sample.
func (a *Aggregator) RMSEByClass() map[MetricClass]float64 {
	out := make(map[MetricClass]float64)
	for _, mc := range MetricClasses {
		if v, ok := a.RMSE(mc); ok {
			out[mc] = v
		}
	}
	return out
}
