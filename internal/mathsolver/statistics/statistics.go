// Package statistics computes descriptive statistics over numeric
// samples.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// Descriptive is the summary of a sample. Values are rounded to 4
// decimal places.
type Descriptive struct {
	Count             int       `json:"count"`
	Mean              float64   `json:"mean"`
	Median            float64   `json:"median"`
	Mode              []float64 `json:"mode"`
	Range             float64   `json:"range"`
	Variance          float64   `json:"variance"`
	StandardDeviation float64   `json:"standard_deviation"`
	Min               float64   `json:"min"`
	Max               float64   `json:"max"`
	Interpretation    string    `json:"interpretation"`
}

// Describe computes descriptive statistics for the sample.
func Describe(data []float64) (*Descriptive, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("Data array cannot be empty")
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	n := float64(len(sorted))

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= n

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	stddev := math.Sqrt(variance)
	min, max := sorted[0], sorted[len(sorted)-1]

	d := &Descriptive{
		Count:             len(sorted),
		Mean:              expr.Round(mean, 4),
		Median:            expr.Round(median, 4),
		Mode:              mode(sorted),
		Range:             expr.Round(max-min, 4),
		Variance:          expr.Round(variance, 4),
		StandardDeviation: expr.Round(stddev, 4),
		Min:               min,
		Max:               max,
	}
	d.Interpretation = interpret(d)
	return d, nil
}

// mode returns the most frequent values, or nil when every value is
// unique.
func mode(sorted []float64) []float64 {
	bestCount := 1
	counts := map[float64]int{}
	for _, v := range sorted {
		counts[v]++
		if counts[v] > bestCount {
			bestCount = counts[v]
		}
	}
	if bestCount == 1 {
		return nil
	}

	var out []float64
	seen := map[float64]bool{}
	for _, v := range sorted {
		if counts[v] == bestCount && !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

func interpret(d *Descriptive) string {
	spread := "low"
	if d.Mean != 0 {
		cv := math.Abs(d.StandardDeviation / d.Mean)
		switch {
		case cv > 0.5:
			spread = "high"
		case cv > 0.2:
			spread = "moderate"
		}
	} else if d.StandardDeviation > 0 {
		spread = "high"
	}

	return fmt.Sprintf(
		"The sample of %d values has a mean of %s and a median of %s, with %s variability (standard deviation %s).",
		d.Count,
		expr.FormatNumber(d.Mean),
		expr.FormatNumber(d.Median),
		spread,
		expr.FormatNumber(d.StandardDeviation),
	)
}
