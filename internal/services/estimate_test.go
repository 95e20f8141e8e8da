package services

import (
	"testing"
)

func TestBlendEstimateTwoSources(t *testing.T) {
	estimate := BlendEstimate([]float64{150.0, 160.0})
	if estimate == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if *estimate != 155.0 {
		t.Errorf("BlendEstimate(150, 160) = %v, want 155.0", *estimate)
	}
}

func TestBlendEstimateSingleValuePassesThrough(t *testing.T) {
	estimate := BlendEstimate([]float64{42.5})
	if estimate == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if *estimate != 42.5 {
		t.Errorf("BlendEstimate(42.5) = %v, want 42.5", *estimate)
	}
}

func TestBlendEstimateEmptyIsUnavailable(t *testing.T) {
	if estimate := BlendEstimate(nil); estimate != nil {
		t.Errorf("BlendEstimate(nil) = %v, want nil (no estimate available)", *estimate)
	}
	if estimate := BlendEstimate([]float64{}); estimate != nil {
		t.Errorf("BlendEstimate(empty) = %v, want nil", *estimate)
	}
}

func TestBlendEstimateRounding(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"thirds round to cents", []float64{10.0, 10.0, 10.01}, 10.0},
		{"repeating decimal", []float64{1.0, 2.0, 2.0}, 1.67},
		{"half cent rounds up", []float64{0.01, 0.02}, 0.02},
		{"large values", []float64{1999.99, 2000.01}, 2000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimate := BlendEstimate(tt.values)
			if estimate == nil {
				t.Fatal("expected an estimate, got nil")
			}
			if *estimate != tt.expected {
				t.Errorf("BlendEstimate(%v) = %v, want %v", tt.values, *estimate, tt.expected)
			}
		})
	}
}
