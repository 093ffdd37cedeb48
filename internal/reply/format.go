// Package reply renders the deterministic parts of a chat answer and merges
// them with the generated reply.
package reply

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders v as Brazilian reais, e.g. 1234.5 -> "R$ 1.234,50".
func FormatBRL(v float64) string {
	return "R$ " + formatDecimal(decimal.NewFromFloat(v), 2)
}

// formatDecimal renders d with places fraction digits, "." as thousands
// separator and "," as decimal separator.
func formatDecimal(d decimal.Decimal, places int32) string {
	fixed := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return sign + b.String()
}
