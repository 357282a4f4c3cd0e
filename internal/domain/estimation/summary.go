package estimation

import "slices"

// Summary aggregates the estimates of one task, in days.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
}

// Summarize computes the summary of estimations.
func Summarize(estimations []Estimation) Summary {
	values := make([]float64, len(estimations))
	for i, e := range estimations {
		values[i] = e.Estimation
	}
	slices.Sort(values)

	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean = mean(values)
	s.Median = percentile(values, 0.5)
	s.Min = values[0]
	s.Max = values[len(values)-1]
	s.P10 = percentile(values, 0.1)
	s.P90 = percentile(values, 0.9)
	return s
}

// percentile calculates the p-th percentile of sorted data
// p should be in range [0, 1]
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
