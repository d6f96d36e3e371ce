package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// anomalyMinPoints is the minimum series length for detection.
	anomalyMinPoints = 3

	// zFlag is the z-score at which a day counts as anomalous. The
	// bound is inclusive: in a short window with otherwise identical
	// days the outlier's population z-score tops out at exactly 2.0.
	zFlag = 2.0

	zHigh     = 2.5
	zCritical = 3.0
)

// DetectAnomalies flags daily cost outliers in the trailing window
// using z-scores over the window's population standard deviation.
// Fewer than three data points, or a perfectly flat series, yield an
// empty result.
func (a *Aggregator) DetectAnomalies(ctx context.Context, days int) ([]*CostAnomaly, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	daily, err := a.Query(ctx, start, end, GranularityDaily)
	if err != nil {
		return nil, err
	}
	if len(daily) < anomalyMinPoints {
		return nil, nil
	}

	var mean float64
	for _, rec := range daily {
		mean += rec.TotalCostUSD
	}
	mean /= float64(len(daily))

	var variance float64
	for _, rec := range daily {
		d := rec.TotalCostUSD - mean
		variance += d * d
	}
	variance /= float64(len(daily))
	stddev := math.Sqrt(variance)

	var anomalies []*CostAnomaly
	for _, rec := range daily {
		diff := math.Abs(rec.TotalCostUSD - mean)
		var z float64
		if stddev > 0 {
			z = diff / stddev
		}
		if z < zFlag || stddev == 0 {
			continue
		}

		kind := AnomalyDrop
		if rec.TotalCostUSD > mean {
			kind = AnomalySpike
		}
		var pctChange float64
		if mean > 0 {
			pctChange = diff / mean * 100
		}

		anomalies = append(anomalies, &CostAnomaly{
			ID:                fmt.Sprintf("anomaly-%s-%s", rec.Date, uuid.NewString()[:8]),
			Date:              rec.Date,
			Timestamp:         rec.Timestamp,
			Kind:              kind,
			Severity:          severityFor(z),
			CostDifferenceUSD: diff,
			PercentageChange:  pctChange,
			ExpectedCostUSD:   mean,
			ActualCostUSD:     rec.TotalCostUSD,
			ConfidenceScore:   math.Min(z/zCritical, 1.0),
		})
	}

	if len(anomalies) > 0 {
		a.logger.Info("cost anomalies detected",
			"window_days", days,
			"count", len(anomalies))
	}
	return anomalies, nil
}

func severityFor(z float64) AnomalySeverity {
	switch {
	case z > zCritical:
		return SeverityCritical
	case z > zHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
