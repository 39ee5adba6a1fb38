// Package pricing estimates USD cost from token usage.
package pricing

import (
	"strings"

	"github.com/velkovn/agentchat/internal/stream"
)

// Pricing is USD per million tokens.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// modelPricing is keyed by model name prefix; the longest matching prefix
// wins. Dated model suffixes resolve to their family rate.
var modelPricing = map[string]Pricing{
	"claude-opus":   {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"gpt-4":         {InputPerMTok: 2.00, OutputPerMTok: 8.00},
}

// defaultPricing is used for unknown models so the estimate is never zero
// for a non-zero reply.
var defaultPricing = Pricing{InputPerMTok: 3.00, OutputPerMTok: 15.00}

// For resolves the rate for a model name.
func For(model string) Pricing {
	var bestPrefix string
	best := defaultPricing
	for prefix, p := range modelPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			best = p
		}
	}
	return best
}

// Estimate converts token usage into an estimated USD cost.
func Estimate(model string, u stream.Usage) float64 {
	p := For(model)
	return float64(u.InputTokens)/1e6*p.InputPerMTok + float64(u.OutputTokens)/1e6*p.OutputPerMTok
}
