package cost

import "go.uber.org/zap"

// Rates holds per-model pricing for the summarization providers.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    map[string]ModelRate `yaml:"gemini" mapstructure:"gemini"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	return tokens(c.rates.Anthropic[model], input, output)
}

// Gemini computes the cost for a Gemini call. Unknown models cost 0.
func (c *Calculator) Gemini(model string, input, output int64) float64 {
	return tokens(c.rates.Gemini[model], input, output)
}

func tokens(rate ModelRate, input, output int64) float64 {
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// LogUsage logs token usage and the estimated cost with structured fields.
func LogUsage(provider, model, phase string, input, output int64, usd float64) {
	zap.L().Info("cost attribution",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", input),
		zap.Int64("output_tokens", output),
		zap.Float64("estimated_cost_usd", usd),
	)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.5-flash":      {Input: 0.30, Output: 2.50},
			"gemini-2.5-flash-lite": {Input: 0.10, Output: 0.40},
			"gemini-2.5-pro":        {Input: 1.25, Output: 10.00},
		},
	}
}
