package budget

import "fmt"

// CostTable maps a model name to its price in USD per one million
// tokens.
type CostTable map[string]float64

// DefaultCostTable returns published per-model pricing for the models
// the pipeline calls.
func DefaultCostTable() CostTable {
	return CostTable{
		"text-embedding-3-small": 0.02,
		"text-embedding-3-large": 0.13,
		"text-embedding-ada-002": 0.10,
		"gpt-4o-mini":            0.15,
		"gpt-4o":                 2.50,
	}
}

// Cost returns the USD cost of processing the given token count with the
// model. Unknown models are rejected rather than priced at zero, so a
// misconfigured model name can never bypass the cap.
func (t CostTable) Cost(model string, tokens int) (float64, error) {
	perMillion, ok := t[model]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	if tokens < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTokenCount, tokens)
	}
	return float64(tokens) / 1_000_000 * perMillion, nil
}
