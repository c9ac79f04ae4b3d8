package profit

import "shard-profit-tracker/internal/models"

// Quote field names a pricing policy may select. They match the upstream
// quick_status JSON keys: buyPrice is the instant-buy price, sellPrice the
// instant-sell price.
const (
	PriceFieldBuy  = "buyPrice"
	PriceFieldSell = "sellPrice"
)

// Policy selects which quote fields value ingredient costs and output
// revenue. The zero value is not valid; use DefaultPolicy or NewPolicy.
type Policy struct {
	IngredientPriceField string
	OutputPriceField     string
}

// DefaultPolicy prices both sides with the instant-buy field.
func DefaultPolicy() Policy {
	return Policy{
		IngredientPriceField: PriceFieldBuy,
		OutputPriceField:     PriceFieldBuy,
	}
}

// NewPolicy validates the two field names, falling back to the default for
// any value that is not one of the two allowed fields. Invalid input is a
// caller preference problem, never an error.
func NewPolicy(ingredientField, outputField string) Policy {
	return Policy{
		IngredientPriceField: normalizeField(ingredientField),
		OutputPriceField:     normalizeField(outputField),
	}
}

func normalizeField(field string) string {
	if field == PriceFieldSell {
		return PriceFieldSell
	}
	return PriceFieldBuy
}

// IngredientPrice reads the policy-selected field for an ingredient quote.
func (p Policy) IngredientPrice(q models.BazaarQuote) float64 {
	return fieldValue(q, p.IngredientPriceField)
}

// OutputPrice reads the policy-selected field for an output quote.
func (p Policy) OutputPrice(q models.BazaarQuote) float64 {
	return fieldValue(q, p.OutputPriceField)
}

func fieldValue(q models.BazaarQuote, field string) float64 {
	if field == PriceFieldSell {
		return q.SellPrice
	}
	return q.BuyPrice
}
