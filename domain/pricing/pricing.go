// Package pricing provides the static per-model token price table and
// cost calculation. All functions are pure - no side effects.
package pricing

// Rates holds per-million-token prices in USD for one model.
type Rates struct {
	Model             string
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheReadPerMTok  float64
	CacheWritePerMTok float64
}

// FallbackModel is used when a cost is requested for an unknown model.
// Estimation is advisory, so lookups never fail.
const FallbackModel = "claude-sonnet-4-5-20250514"

// Table is the static price list, in USD per million tokens.
var Table = []Rates{
	{
		Model:             "claude-opus-4-5-20251101",
		InputPerMTok:      15.0,
		OutputPerMTok:     75.0,
		CacheReadPerMTok:  1.5,
		CacheWritePerMTok: 18.75,
	},
	{
		Model:             "claude-sonnet-4-5-20250514",
		InputPerMTok:      3.0,
		OutputPerMTok:     15.0,
		CacheReadPerMTok:  0.3,
		CacheWritePerMTok: 3.75,
	},
	{
		Model:             "claude-sonnet-4-20250514",
		InputPerMTok:      3.0,
		OutputPerMTok:     15.0,
		CacheReadPerMTok:  0.3,
		CacheWritePerMTok: 3.75,
	},
	{
		Model:             "claude-haiku-3-5-20241022",
		InputPerMTok:      0.8,
		OutputPerMTok:     4.0,
		CacheReadPerMTok:  0.08,
		CacheWritePerMTok: 1.0,
	},
}

// Lookup returns the rates for a model.
// This is a PURE function.
func Lookup(model string) (Rates, bool) {
	for _, r := range Table {
		if r.Model == model {
			return r, true
		}
	}
	return Rates{}, false
}

// Resolve returns the rates for a model, falling back to FallbackModel
// for unknown models. This is a PURE function.
func Resolve(model string) Rates {
	if r, ok := Lookup(model); ok {
		return r
	}
	r, _ := Lookup(FallbackModel)
	return r
}

// Cost returns the USD cost of the given token counts under a model's rates.
// Unknown models use the fallback rates rather than erroring.
// This is a PURE function.
func Cost(model string, inputTokens, outputTokens, cacheReadTokens, cacheWriteTokens int64) float64 {
	r := Resolve(model)
	return float64(inputTokens)/1_000_000*r.InputPerMTok +
		float64(outputTokens)/1_000_000*r.OutputPerMTok +
		float64(cacheReadTokens)/1_000_000*r.CacheReadPerMTok +
		float64(cacheWriteTokens)/1_000_000*r.CacheWritePerMTok
}
