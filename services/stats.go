package services

import (
	"errors"
	"math"
)

// ErrNoValidSamples means listings were found but every price was dropped,
// either at parse time or by the outlier filter. Distinct from ErrNoListings:
// a zero average has no meaning, so no observation is produced.
var ErrNoValidSamples = errors.New("no valid price samples")

// FilterOutliers removes samples more than threshold standard deviations
// from the mean. Inputs with fewer than 3 samples, or with zero spread, are
// returned unchanged; the z-score is undefined or meaningless there.
//
// The filter is single-pass: mean and deviation are computed once over the
// full input, so one extreme outlier can widen the deviation enough to keep
// a second, milder outlier. That behaviour is intentional; re-filtering
// iteratively would shift alerting thresholds.
func FilterOutliers(samples []float64, threshold float64) []float64 {
	if len(samples) < 3 {
		return samples
	}

	mean, stddev := meanStddev(samples)
	if stddev == 0 {
		return samples
	}

	kept := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.Abs(s-mean) <= threshold*stddev {
			kept = append(kept, s)
		}
	}
	return kept
}

// Aggregate reduces the filtered samples to their arithmetic mean, rounded
// to cents. Rounding happens only here, at the single point where averages
// enter logs and the history ledger.
func Aggregate(filtered []float64) (float64, error) {
	if len(filtered) == 0 {
		return 0, ErrNoValidSamples
	}

	var total float64
	for _, s := range filtered {
		total += s
	}
	return round2(total / float64(len(filtered))), nil
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(samples []float64) (float64, float64) {
	var total float64
	for _, s := range samples {
		total += s
	}
	mean := total / float64(len(samples))

	var sqDiff float64
	for _, s := range samples {
		d := s - mean
		sqDiff += d * d
	}
	return mean, math.Sqrt(sqDiff / float64(len(samples)))
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
