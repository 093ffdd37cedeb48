package reply

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/diane/internal/domain"
)

// samePriceThreshold is the percentage below which two prices are "the same".
var samePriceThreshold = decimal.NewFromFloat(0.1)

// PriceComparison confirms a recorded price and compares it with the
// current price at every other market.
func PriceComparison(product, market string, price float64, others []domain.ProductPrice) string {
	lines := []string{fmt.Sprintf("Registrei %s no %s por %s (data de hoje).", product, market, FormatBRL(price))}

	base := decimal.NewFromFloat(price)
	for _, o := range others {
		other := decimal.NewFromFloat(o.Price)
		diff := PercentDiff(base, other)
		abs := diff.Abs()

		switch {
		case abs.LessThan(samePriceThreshold):
			lines = append(lines, fmt.Sprintf("No %s está %s, praticamente o mesmo preço.", o.MarketName, FormatBRL(o.Price)))
		case diff.IsPositive():
			lines = append(lines, fmt.Sprintf("No %s está %s, cerca de %s%% mais caro.", o.MarketName, FormatBRL(o.Price), abs.StringFixed(1)))
		default:
			lines = append(lines, fmt.Sprintf("No %s está %s, cerca de %s%% mais barato.", o.MarketName, FormatBRL(o.Price), abs.StringFixed(1)))
		}
	}
	return strings.Join(lines, "\n")
}

// PercentDiff returns ((other - base) / base) * 100. base must be non-zero.
func PercentDiff(base, other decimal.Decimal) decimal.Decimal {
	return other.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
}
