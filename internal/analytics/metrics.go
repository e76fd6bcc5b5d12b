// Package analytics holds the pure numeric functions used to score price series
// and trade returns. Nothing in here performs I/O.
package analytics

import "math"

// DefaultRiskFreeRate is the per-period risk-free rate used when callers have none
const DefaultRiskFreeRate = 0.02

// SharpeRatio computes (mean - riskFreeRate) / population stddev of returns.
// Returns 0 when returns is empty or has zero variance.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 || isConstant(returns) {
		return 0
	}

	m := Mean(returns)
	sd := StdDev(returns, m)
	if negligible(sd, m) {
		return 0
	}

	return (m - riskFreeRate) / sd
}

// SortinoRatio is SharpeRatio with the denominator restricted to returns below targetReturn.
// Returns 0 when no return falls below target or the downside deviation is zero.
func SortinoRatio(returns []float64, riskFreeRate, targetReturn float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var sumSquares float64
	downside := 0
	for _, r := range returns {
		if r < targetReturn {
			diff := r - targetReturn
			sumSquares += diff * diff
			downside++
		}
	}
	if downside == 0 {
		return 0
	}

	m := Mean(returns)
	dd := math.Sqrt(sumSquares / float64(downside))
	if negligible(dd, m) {
		return 0
	}

	return (m - riskFreeRate) / dd
}

// isConstant reports whether every value equals the first
func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// negligible treats a deviation lost in the rounding noise of mean as zero
func negligible(deviation, mean float64) bool {
	return deviation <= 1e-12*math.Max(1, math.Abs(mean))
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction of the peak.
// The running peak starts at prices[0]; an empty series yields 0.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - price) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// ROI returns the percentage change from initial to final
func ROI(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return (final - initial) / initial * 100
}

// Returns converts a price series into simple period returns
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// EquityCurve accumulates pnls on top of a starting balance
func EquityCurve(start float64, pnls []float64) []float64 {
	curve := make([]float64, 0, len(pnls)+1)
	equity := start
	curve = append(curve, equity)
	for _, p := range pnls {
		equity += p
		curve = append(curve, equity)
	}
	return curve
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around mean
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}

// SMA is the unweighted mean of values
func SMA(values []float64) float64 {
	return Mean(values)
}
