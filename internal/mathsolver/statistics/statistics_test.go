package statistics

import (
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name         string
		data         []float64
		wantMean     float64
		wantMedian   float64
		wantMode     []float64
		wantRange    float64
		wantVariance float64
		wantStddev   float64
	}{
		{
			name:         "odd count",
			data:         []float64{2, 4, 4, 4, 5, 5, 7, 9, 9},
			wantMean:     5.4444,
			wantMedian:   5,
			wantMode:     []float64{4},
			wantRange:    7,
			wantVariance: 5.1358,
			wantStddev:   2.2662,
		},
		{
			name:       "even count",
			data:       []float64{1, 2, 3, 4},
			wantMean:   2.5,
			wantMedian: 2.5,
			wantMode:   nil,
			wantRange:  3,
		},
		{
			name:       "single value",
			data:       []float64{5},
			wantMean:   5,
			wantMedian: 5,
			wantMode:   nil,
			wantRange:  0,
		},
		{
			name:       "bimodal",
			data:       []float64{1, 1, 2, 2, 3},
			wantMean:   1.8,
			wantMedian: 2,
			wantMode:   []float64{1, 2},
			wantRange:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Describe(tt.data)
			if err != nil {
				t.Fatalf("Describe failed: %v", err)
			}
			if got.Count != len(tt.data) {
				t.Errorf("Count = %d, want %d", got.Count, len(tt.data))
			}
			if got.Mean != tt.wantMean {
				t.Errorf("Mean = %v, want %v", got.Mean, tt.wantMean)
			}
			if got.Median != tt.wantMedian {
				t.Errorf("Median = %v, want %v", got.Median, tt.wantMedian)
			}
			if got.Range != tt.wantRange {
				t.Errorf("Range = %v, want %v", got.Range, tt.wantRange)
			}
			if len(got.Mode) != len(tt.wantMode) {
				t.Fatalf("Mode = %v, want %v", got.Mode, tt.wantMode)
			}
			for i := range tt.wantMode {
				if got.Mode[i] != tt.wantMode[i] {
					t.Errorf("Mode[%d] = %v, want %v", i, got.Mode[i], tt.wantMode[i])
				}
			}
			if tt.wantVariance != 0 && got.Variance != tt.wantVariance {
				t.Errorf("Variance = %v, want %v", got.Variance, tt.wantVariance)
			}
			if tt.wantStddev != 0 && got.StandardDeviation != tt.wantStddev {
				t.Errorf("StandardDeviation = %v, want %v", got.StandardDeviation, tt.wantStddev)
			}
			if got.Interpretation == "" || !strings.Contains(got.Interpretation, "mean") {
				t.Errorf("Interpretation = %q", got.Interpretation)
			}
		})
	}
}

func TestDescribeEmpty(t *testing.T) {
	_, err := Describe(nil)
	if err == nil || err.Error() != "Data array cannot be empty" {
		t.Fatalf("err = %v, want empty-data error", err)
	}
}
