package queryengine

// modelPricing is the USD price per 1K input/output tokens for the models
// the service is expected to run. Cost is a deterministic function of
// (model, input tokens, output tokens); unknown models cost zero, which
// covers locally hosted ones.
type modelPricing struct {
	inputPer1K  float64
	outputPer1K float64
}

var pricingTable = map[string]modelPricing{
	"gpt-4o":           {inputPer1K: 0.0025, outputPer1K: 0.01},
	"gpt-4o-mini":      {inputPer1K: 0.00015, outputPer1K: 0.0006},
	"gpt-4-turbo":      {inputPer1K: 0.01, outputPer1K: 0.03},
	"gpt-3.5-turbo":    {inputPer1K: 0.0005, outputPer1K: 0.0015},
	"gemini-1.5-pro":   {inputPer1K: 0.00125, outputPer1K: 0.005},
	"gemini-1.5-flash": {inputPer1K: 0.000075, outputPer1K: 0.0003},
	"gemini-2.0-flash": {inputPer1K: 0.0001, outputPer1K: 0.0004},
}

// estimateCost returns the deterministic cost of one completion call.
func estimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := pricingTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*pricing.inputPer1K +
		float64(outputTokens)/1000*pricing.outputPer1K
}
