package quotations

import "strings"

// CalculateLineTotals applies a percentage discount and then tax to a line.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	grossAmount := quantity * unitPrice
	discountAmount = grossAmount * (discountPercent / 100)
	netAmount := grossAmount - discountAmount
	taxAmount = netAmount * (taxPercent / 100)
	lineTotal = netAmount + taxAmount
	return
}

// DiscountPercent normalises a discount to a percentage of the gross amount.
// Flat discounts ("amount", "fixed", "flat") are converted; anything else is
// already a percentage. The result is clamped to [0, 100].
func DiscountPercent(value float64, kind string, quantity, unitPrice float64) float64 {
	pct := value
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "amount", "fixed", "flat":
		gross := quantity * unitPrice
		if gross <= 0 {
			return 0
		}
		pct = value / gross * 100
	}
	return min(max(pct, 0), 100)
}
