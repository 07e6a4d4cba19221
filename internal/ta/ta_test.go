package ta

import (
	"math"
	"testing"
)

func TestRollingMean(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	if len(out) != len(want) {
		t.Fatalf("Expected %d values, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("Expected out[%d]=%v, got %v", i, want[i], out[i])
		}
	}
}

func TestRollingMeanShortWindowPositions(t *testing.T) {
	// Positions before the window fills average what is available.
	out := RollingMean([]float64{10, 20, 30}, 99)
	if out[0] != 10 || out[1] != 15 || out[2] != 20 {
		t.Errorf("Expected partial-window means [10 15 20], got %v", out)
	}
}

func TestEMA(t *testing.T) {
	out := EMA([]float64{10, 20}, 0.3)
	if out[0] != 10 {
		t.Errorf("Expected seed 10, got %v", out[0])
	}
	want := 0.3*20 + 0.7*10
	if math.Abs(out[1]-want) > 1e-9 {
		t.Errorf("Expected %v, got %v", want, out[1])
	}
}

func TestRising(t *testing.T) {
	if !Rising([]float64{1, 2}) {
		t.Error("Expected rising series")
	}
	if Rising([]float64{2, 2}) {
		t.Error("Expected flat series to not be rising")
	}
	if Rising([]float64{5}) {
		t.Error("Expected single sample to not be rising")
	}
}

func TestTickAngle(t *testing.T) {
	got := TickAngle([]float64{1, 2})
	if math.Abs(got-math.Pi/4) > 1e-9 {
		t.Errorf("Expected pi/4, got %v", got)
	}
	if TickAngle([]float64{2, 1}) >= 0 {
		t.Error("Expected negative angle for falling ticks")
	}
	if TickAngle([]float64{1}) != 0 {
		t.Error("Expected zero angle for a single sample")
	}
}

func TestNormalCDF(t *testing.T) {
	if got := NormalCDF(0, 0, 1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 at the mean, got %v", got)
	}
	if got := NormalCDF(10, 0, 1); got < 0.999 {
		t.Errorf("Expected near 1 far above the mean, got %v", got)
	}
	if got := NormalCDF(1, 2, 0); got != 0 {
		t.Errorf("Expected degenerate CDF below mean to be 0, got %v", got)
	}
}

func TestMeanAndStdDev(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if m := Mean(vals); m != 5 {
		t.Errorf("Expected mean 5, got %v", m)
	}
	if sd := StdDev(vals); math.Abs(sd-2) > 1e-9 {
		t.Errorf("Expected stddev 2, got %v", sd)
	}
}
