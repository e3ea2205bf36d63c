// Package estimate derives duration predictions from approved ledger time.
package estimate

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// SampleSize is how many recent approved entries feed an estimate.
const SampleSize = 50

type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence tiers from none (0) to high (3).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// ConfidenceFor returns the tier for a sample count.
func ConfidenceFor(n int) Confidence {
	switch {
	case n >= 10:
		return ConfidenceHigh
	case n >= 3:
		return ConfidenceMedium
	case n > 0:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Scope names the filter an estimate was finally computed over.
type Scope string

const (
	ScopeDomicileExecutor Scope = "domicile_executor"
	ScopeDomicile         Scope = "domicile"
	ScopeExecutor         Scope = "executor"
	ScopeGlobal           Scope = "global"
)

// Stats summarizes a sample of hours, each value rounded to 2 places.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_hours"`
	Median float64 `json:"median_hours"`
	Min    float64 `json:"min_hours"`
	Max    float64 `json:"max_hours"`
}

// Estimate is the result of an estimation request. Stats is nil when there
// is no approved history at all.
type Estimate struct {
	Scope      Scope      `json:"scope"`
	FellBack   bool       `json:"fell_back"`
	Confidence Confidence `json:"confidence"`
	Stats      *Stats     `json:"stats,omitempty"`
}

// Summarize computes Stats over hours. ok is false for an empty sample.
func Summarize(hours []float64) (Stats, bool) {
	if len(hours) == 0 {
		return Stats{}, false
	}

	sorted := make([]float64, len(hours))
	copy(sorted, hours)
	sort.Float64s(sorted)

	var sum float64
	for _, h := range sorted {
		sum += h
	}

	n := len(sorted)
	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	return Stats{
		Count:  n,
		Mean:   round2(sum / float64(n)),
		Median: round2(median),
		Min:    round2(sorted[0]),
		Max:    round2(sorted[n-1]),
	}, true
}

// New builds an Estimate from a sample.
func New(scope Scope, fellBack bool, hours []float64) Estimate {
	est := Estimate{Scope: scope, FellBack: fellBack, Confidence: ConfidenceFor(len(hours))}
	if s, ok := Summarize(hours); ok {
		est.Stats = &s
	}
	return est
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// MinOverrunSamples is the history needed before overruns are judged.
const MinOverrunSamples = 2

// overrunMargin is the tolerance over the average before work counts as
// overrunning.
var overrunMargin = decimal.RequireFromString("1.2")

// Overrun reports whether a task's current logged time exceeds its expected
// duration.
type Overrun struct {
	Overrun          bool    `json:"overrun"`
	SampleSize       int64   `json:"sample_size"`
	AverageHours     float64 `json:"average_hours"`
	EstimatedSeconds int64   `json:"estimated_seconds"`
	ThresholdSeconds int64   `json:"threshold_seconds"`
	CurrentSeconds   int64   `json:"current_seconds"`
	PercentOver      int64   `json:"percent_over"`
	Message          string  `json:"message"`
}

// CheckOverrun compares currentSeconds with an average of entries whose
// durations total totalSeconds.
func CheckOverrun(totalSeconds, entries, currentSeconds int64) Overrun {
	out := Overrun{SampleSize: entries, CurrentSeconds: currentSeconds}
	if entries < MinOverrunSamples {
		out.Message = fmt.Sprintf("not enough history: %d approved entries, need %d", entries, MinOverrunSamples)
		return out
	}

	avgSeconds := decimal.NewFromInt(totalSeconds).Div(decimal.NewFromInt(entries))
	out.AverageHours = round2(avgSeconds.Div(decimal.NewFromInt(3600)).InexactFloat64())
	out.EstimatedSeconds = avgSeconds.Round(0).IntPart()
	threshold := avgSeconds.Mul(overrunMargin)
	out.ThresholdSeconds = threshold.Round(0).IntPart()
	out.Overrun = decimal.NewFromInt(currentSeconds).GreaterThan(threshold)

	if avgSeconds.IsPositive() {
		ratio := decimal.NewFromInt(currentSeconds).Div(avgSeconds).Sub(decimal.NewFromInt(1))
		pct := ratio.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		out.PercentOver = int64(math.Max(0, float64(pct)))
	}

	if out.Overrun {
		out.Message = fmt.Sprintf("%d%% over the %.2fh average", out.PercentOver, out.AverageHours)
	} else {
		out.Message = "within expected duration"
	}
	return out
}
