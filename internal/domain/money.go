package domain

// PercentRound applies an integer percentage to a whole-unit amount and
// rounds half up. The storefront currency carries no minor unit, so every
// monetary value in the system is a whole number of currency units.
func PercentRound(amount int64, percent int) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return amount
	}
	scaled := amount * int64(percent)
	quotient := scaled / 100
	if scaled%100*2 >= 100 {
		quotient++
	}
	return quotient
}

// DiscountedPrice returns the unit price after applying a percentage
// discount. The rounding is applied to the resulting price, not to the
// discount amount, so DiscountedPrice(p, pct) == round(p * (100-pct) / 100).
func DiscountedPrice(unitPrice int64, percent int) int64 {
	if unitPrice <= 0 {
		return 0
	}
	if percent <= 0 {
		return unitPrice
	}
	if percent >= 100 {
		return 0
	}
	return PercentRound(unitPrice, 100-percent)
}
