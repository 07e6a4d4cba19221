package ta

import "math"

// RollingMean returns the running simple moving average of vals with window
// n. Positions with fewer than n samples average whatever is available, so
// the output always has the same length as the input.
func RollingMean(vals []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		w := i + 1
		if w > n {
			w = n
		}
		out[i] = sum / float64(w)
	}
	return out
}

// EMA returns the exponentially weighted moving average of vals with the
// given smoothing factor: out[i] = alpha*vals[i] + (1-alpha)*out[i-1].
func EMA(vals []float64, alpha float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

// Rising reports whether the last sample of series is above the one before
// it. Series shorter than two samples are never rising.
func Rising(series []float64) bool {
	n := len(series)
	if n < 2 {
		return false
	}
	return series[n-1] > series[n-2]
}

// TickAngle is the slope of the two most recent samples expressed as an
// angle in radians, with the sample spacing normalized to one interval.
func TickAngle(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	return math.Atan2(vals[n-1]-vals[n-2], 1)
}

// Mean returns the arithmetic mean of vals, NaN for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// StdDev returns the population standard deviation of vals.
func StdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := Mean(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)))
}

// NormalCDF is the cumulative distribution function of N(mean, sd) at x.
func NormalCDF(x, mean, sd float64) float64 {
	if sd <= 0 {
		if x < mean {
			return 0
		}
		return 1
	}
	return 0.5 * (1 + math.Erf((x-mean)/(sd*math.Sqrt2)))
}
