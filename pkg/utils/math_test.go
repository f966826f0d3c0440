package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float64{3, 4}
	norm := NormalizeL2(x)
	if norm != 5 {
		t.Errorf("norm = %v, want 5", norm)
	}
	if math.Abs(x[0]-0.6) > 1e-12 || math.Abs(x[1]-0.8) > 1e-12 {
		t.Errorf("got %v", x)
	}

	zero := []float64{0, 0}
	if NormalizeL2(zero) != 0 || zero[0] != 0 {
		t.Error("zero vector should be unchanged")
	}
}
