package analytics

import (
	"math"
	"testing"
	"testing/quick"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		rf       float64
		expected float64
	}{
		{name: "empty returns", returns: nil, rf: DefaultRiskFreeRate, expected: 0},
		{name: "zero variance", returns: []float64{0.5, 0.5, 0.5, 0.5}, rf: DefaultRiskFreeRate, expected: 0},
		{name: "constant tenths", returns: []float64{0.1, 0.1, 0.1}, rf: DefaultRiskFreeRate, expected: 0},
		{name: "constant seven", returns: []float64{0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05}, rf: DefaultRiskFreeRate, expected: 0},
		{name: "two point series", returns: []float64{0.01, 0.03}, rf: 0, expected: 2},
		{name: "excess return cancels", returns: []float64{0.01, 0.03}, rf: 0.02, expected: 0},
		{name: "negative excess", returns: []float64{-0.01, 0.01}, rf: 0.02, expected: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SharpeRatio(tt.returns, tt.rf)
			if !almostEqual(got, tt.expected) {
				t.Errorf("SharpeRatio() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSharpeRatioZeroStdDevProperty(t *testing.T) {
	property := func(value float64, n uint8, rf float64) bool {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return true
		}
		returns := make([]float64, int(n)+1)
		for i := range returns {
			returns[i] = value
		}
		return SharpeRatio(returns, rf) == 0
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestRatiosIgnoreRoundingNoise(t *testing.T) {
	// Mean of these picks up rounding error, so the raw deviation is ~1e-17
	returns := []float64{0.1, 0.1, 0.1}
	if sd := StdDev(returns, Mean(returns)); sd > 1e-12 {
		t.Fatalf("unexpected deviation %v", sd)
	}
	if got := SharpeRatio(returns, DefaultRiskFreeRate); got != 0 {
		t.Errorf("SharpeRatio = %v, want 0", got)
	}
	if !negligible(1e-17, 0.1) || negligible(1e-3, 0.1) {
		t.Error("negligible threshold misplaced")
	}
}

func TestSortinoRatio(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		rf       float64
		target   float64
		expected float64
	}{
		{name: "empty returns", returns: nil, expected: 0},
		{name: "nothing below target", returns: []float64{0.01, 0.02, 0.03}, rf: 0, target: 0, expected: 0},
		{name: "mixed returns", returns: []float64{0.04, -0.02, 0.06, -0.02}, rf: 0, target: 0, expected: 0.75},
		{name: "target above all", returns: []float64{0.5, 0.5}, rf: 0, target: 1, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortinoRatio(tt.returns, tt.rf, tt.target)
			if !almostEqual(got, tt.expected) {
				t.Errorf("SortinoRatio() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected float64
	}{
		{name: "empty", prices: nil, expected: 0},
		{name: "single price", prices: []float64{100}, expected: 0},
		{name: "half drawdown and recovery", prices: []float64{100, 50, 100}, expected: 0.5},
		{name: "deepest trough wins", prices: []float64{100, 80, 120, 60, 130}, expected: 0.5},
		{name: "falling from first bar", prices: []float64{200, 150, 100}, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.prices)
			if !almostEqual(got, tt.expected) {
				t.Errorf("MaxDrawdown() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMaxDrawdownStrictlyIncreasingProperty(t *testing.T) {
	property := func(start uint16, steps []uint8) bool {
		prices := make([]float64, 0, len(steps)+1)
		price := float64(start) + 1
		prices = append(prices, price)
		for _, s := range steps {
			price += float64(s) + 1
			prices = append(prices, price)
		}
		return MaxDrawdown(prices) == 0
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestROI(t *testing.T) {
	if got := ROI(100, 150); got != 50 {
		t.Errorf("ROI(100, 150) = %v, want 50", got)
	}
	if got := ROI(100, 50); got != -50 {
		t.Errorf("ROI(100, 50) = %v, want -50", got)
	}
	if got := ROI(0, 50); got != 0 {
		t.Errorf("ROI(0, 50) = %v, want 0", got)
	}
}

func TestReturnsAndEquityCurve(t *testing.T) {
	returns := Returns([]float64{100, 110, 99})
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if !almostEqual(returns[0], 0.1) || !almostEqual(returns[1], -0.1) {
		t.Errorf("Returns() = %v, want [0.1 -0.1]", returns)
	}

	if got := Returns([]float64{100}); got != nil {
		t.Errorf("Returns() of single price = %v, want nil", got)
	}

	curve := EquityCurve(1000, []float64{100, -300})
	want := []float64{1000, 1100, 800}
	for i := range want {
		if curve[i] != want[i] {
			t.Fatalf("EquityCurve() = %v, want %v", curve, want)
		}
	}
}
