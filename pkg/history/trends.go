package history

import (
	"context"
	"sort"
	"time"
)

// stableBandPct is the change band classified as a stable trend.
const stableBandPct = 5.0

// daysPerPeriod returns the day count used to spread a period total
// into an average daily cost.
func daysPerPeriod(g Granularity) float64 {
	switch g {
	case GranularityWeekly:
		return 7
	case GranularityMonthly:
		return 30
	case GranularityQuarterly:
		return 91
	case GranularityYearly:
		return 365
	default:
		return 1
	}
}

// periodTotals carries one calendar bucket's total and its daily
// extremes.
type periodTotals struct {
	key      string
	totalUSD float64
	peakUSD  float64
	lowUSD   float64
}

// AnalyzeTrends derives period-over-period trends from the trailing
// days of history at the given granularity. N periods yield N-1 trends;
// fewer than two periods yield none.
func (a *Aggregator) AnalyzeTrends(ctx context.Context, days int, g Granularity) ([]*CostTrend, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	daily, err := a.Query(ctx, start, end, GranularityDaily)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*periodTotals)
	for _, rec := range daily {
		key, err := bucketKey(rec.Date, g)
		if err != nil {
			return nil, err
		}
		p, ok := buckets[key]
		if !ok {
			p = &periodTotals{key: key, peakUSD: rec.TotalCostUSD, lowUSD: rec.TotalCostUSD}
			buckets[key] = p
		}
		p.totalUSD += rec.TotalCostUSD
		if rec.TotalCostUSD > p.peakUSD {
			p.peakUSD = rec.TotalCostUSD
		}
		if rec.TotalCostUSD < p.lowUSD {
			p.lowUSD = rec.TotalCostUSD
		}
	}

	periods := make([]*periodTotals, 0, len(buckets))
	for _, p := range buckets {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].key < periods[j].key })

	var trends []*CostTrend
	for i := 1; i < len(periods); i++ {
		prev, curr := periods[i-1], periods[i]

		var changePct float64
		if prev.totalUSD > 0 {
			changePct = (curr.totalUSD - prev.totalUSD) / prev.totalUSD * 100
		}

		trends = append(trends, &CostTrend{
			Period:                curr.key,
			TotalCostUSD:          curr.totalUSD,
			AvgDailyCostUSD:       curr.totalUSD / daysPerPeriod(g),
			CostChangePercent:     changePct,
			Direction:             direction(changePct),
			PeakUSD:               curr.peakUSD,
			LowUSD:                curr.lowUSD,
			ForecastNextPeriodUSD: curr.totalUSD * (1 + changePct/100),
		})
	}
	return trends, nil
}

// direction classifies a change percentage: within the stable band it
// is stable, otherwise the sign decides.
func direction(changePct float64) TrendDirection {
	switch {
	case changePct > stableBandPct:
		return TrendIncreasing
	case changePct < -stableBandPct:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
