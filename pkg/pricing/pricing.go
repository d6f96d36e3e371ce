package pricing

import "sync"

const (
	// bytesPerTiB is the divisor for data-processing pricing.
	bytesPerTiB = 1 << 40

	// slotMSPerHour converts slot-milliseconds to slot-hours.
	slotMSPerHour = 1000 * 3600
)

// Rates contains the monetary rates applied to resource consumption.
type Rates struct {
	// DataPerTiBUSD is the cost per TiB of data scanned.
	// Default: 5.00
	DataPerTiBUSD float64

	// ComputePerSlotHourUSD is the cost per slot-hour of compute time.
	// Default: 0.01
	ComputePerSlotHourUSD float64

	// EstimateSlotMS is the fixed compute-time surcharge, in
	// slot-milliseconds, assumed for operations whose compute usage is not
	// yet known (i.e. cost estimates from a dry run).
	// Default: 1000 (one slot-second)
	EstimateSlotMS int64
}

// DefaultRates returns the default pricing table.
func DefaultRates() Rates {
	return Rates{
		DataPerTiBUSD:         5.00,
		ComputePerSlotHourUSD: 0.01,
		EstimateSlotMS:        1000,
	}
}

// Table converts resource volumes into USD cost. It is thread-safe and
// supports hot-reload of rates via Update.
type Table struct {
	rates Rates
	mu    sync.RWMutex
}

// NewTable creates a pricing table with the given rates. Zero-valued rate
// fields are replaced with defaults.
func NewTable(rates Rates) *Table {
	defaults := DefaultRates()
	if rates.DataPerTiBUSD == 0 {
		rates.DataPerTiBUSD = defaults.DataPerTiBUSD
	}
	if rates.ComputePerSlotHourUSD == 0 {
		rates.ComputePerSlotHourUSD = defaults.ComputePerSlotHourUSD
	}
	if rates.EstimateSlotMS == 0 {
		rates.EstimateSlotMS = defaults.EstimateSlotMS
	}
	return &Table{rates: rates}
}

// DataCost returns the data-processing cost for the given byte volume.
func (t *Table) DataCost(bytes int64) float64 {
	if bytes <= 0 {
		return 0.0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return (float64(bytes) / float64(bytesPerTiB)) * t.rates.DataPerTiBUSD
}

// ComputeCost returns the compute cost for the given slot-milliseconds.
func (t *Table) ComputeCost(slotMS int64) float64 {
	if slotMS <= 0 {
		return 0.0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return (float64(slotMS) / float64(slotMSPerHour)) * t.rates.ComputePerSlotHourUSD
}

// Cost returns the total cost for actual resource consumption.
func (t *Table) Cost(bytes, slotMS int64) float64 {
	return t.DataCost(bytes) + t.ComputeCost(slotMS)
}

// EstimateCost returns the projected cost for an operation known only by
// its dry-run byte volume. The compute component uses the configured fixed
// surcharge, since dry runs report no slot usage.
func (t *Table) EstimateCost(bytes int64) float64 {
	t.mu.RLock()
	surcharge := t.rates.EstimateSlotMS
	t.mu.RUnlock()

	return t.DataCost(bytes) + t.ComputeCost(surcharge)
}

// Rates returns a copy of the current rates.
func (t *Table) Rates() Rates {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rates
}

// Update replaces the rates (hot-reload support). This is thread-safe and
// can be called while the table is in use.
func (t *Table) Update(rates Rates) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates = rates
}
