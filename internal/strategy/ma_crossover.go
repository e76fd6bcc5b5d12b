// Package strategy turns market bar sequences into trade setups.
package strategy

import (
	"fmt"
	"math"

	"coinpilot/internal/analytics"
	"coinpilot/internal/domain"
)

const (
	// MACrossoverName labels setups produced by MACrossover
	MACrossoverName = "ma_crossover"

	// stopLookback is the number of trailing bars scanned for the stop level
	stopLookback = 5

	// rewardMultiple sets take-profit at this multiple of the stop distance
	rewardMultiple = 2.0

	// baseConfidence is assigned to every crossover setup
	baseConfidence = 70
)

// Signal is the last direction a strategy emitted
type Signal int

const (
	SignalNone Signal = iota
	SignalLong
	SignalShort
)

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return domain.SetupLong
	case SignalShort:
		return domain.SetupShort
	default:
		return "none"
	}
}

// MACrossover emits a setup when the short SMA sits on a new side of the long SMA.
// It remembers the last emitted direction so a persisting crossover fires once.
// An instance is bound to a single market feed and is not safe for concurrent use.
type MACrossover struct {
	shortPeriod int
	longPeriod  int
	lastSignal  Signal
}

// NewMACrossover creates a crossover strategy. shortPeriod must be positive and below longPeriod.
func NewMACrossover(shortPeriod, longPeriod int) (*MACrossover, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, fmt.Errorf("periods must be positive: short=%d long=%d", shortPeriod, longPeriod)
	}
	if shortPeriod >= longPeriod {
		return nil, fmt.Errorf("short period %d must be less than long period %d", shortPeriod, longPeriod)
	}

	return &MACrossover{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}, nil
}

// ShortPeriod returns the fast SMA length
func (s *MACrossover) ShortPeriod() int { return s.shortPeriod }

// LongPeriod returns the slow SMA length
func (s *MACrossover) LongPeriod() int { return s.longPeriod }

// LastSignal returns the direction of the last emitted setup
func (s *MACrossover) LastSignal() Signal { return s.lastSignal }

// Reset forgets the last emitted direction
func (s *MACrossover) Reset() { s.lastSignal = SignalNone }

// Analyze returns at most one setup for the latest bar. Fewer than longPeriod bars
// is a no-signal result, not an error.
func (s *MACrossover) Analyze(bars []domain.MarketBar) []domain.TradeSetup {
	if len(bars) < s.longPeriod {
		return nil
	}

	closes := domain.Closes(bars)
	n := len(closes)
	shortSMA := analytics.SMA(closes[n-s.shortPeriod:])
	longSMA := analytics.SMA(closes[n-s.longPeriod:])

	last := bars[n-1]
	entry := last.Close
	window := bars[max(0, n-stopLookback):]

	switch {
	case shortSMA > longSMA && s.lastSignal != SignalLong:
		stop := lowestLow(window)
		s.lastSignal = SignalLong
		return []domain.TradeSetup{{
			Type:       domain.SetupLong,
			Entry:      entry,
			StopLoss:   stop,
			TakeProfit: entry + (entry-stop)*rewardMultiple,
			Confidence: baseConfidence,
			Strategy:   MACrossoverName,
			Timestamp:  last.Timestamp,
		}}

	case shortSMA < longSMA && s.lastSignal != SignalShort:
		stop := highestHigh(window)
		s.lastSignal = SignalShort
		return []domain.TradeSetup{{
			Type:       domain.SetupShort,
			Entry:      entry,
			StopLoss:   stop,
			TakeProfit: entry - (stop-entry)*rewardMultiple,
			Confidence: baseConfidence,
			Strategy:   MACrossoverName,
			Timestamp:  last.Timestamp,
		}}
	}

	return nil
}

func lowestLow(bars []domain.MarketBar) float64 {
	low := math.Inf(1)
	for _, b := range bars {
		low = math.Min(low, b.Low)
	}
	return low
}

func highestHigh(bars []domain.MarketBar) float64 {
	high := math.Inf(-1)
	for _, b := range bars {
		high = math.Max(high, b.High)
	}
	return high
}
