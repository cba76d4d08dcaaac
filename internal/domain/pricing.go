package domain

import "github.com/shopspring/decimal"

// EffectiveQuantity returns the effective quantity of the line, defaulting to one.
func (l ServiceLine) EffectiveQuantity() int {
	if l.Quantity == 0 {
		return 1
	}

	return l.Quantity
}

// ComputeTotal returns schedulePrice*seatCount plus the sum of every service line.
func ComputeTotal(schedulePrice decimal.Decimal, seatCount int, lines []ServiceLine) (decimal.Decimal, error) {
	if schedulePrice.IsNegative() {
		return decimal.Zero, validationError("schedule price must not be negative")
	}

	if seatCount < 0 {
		return decimal.Zero, validationError("seat count must not be negative")
	}

	total := schedulePrice.Mul(decimal.NewFromInt(int64(seatCount)))

	for _, l := range lines {
		if l.UnitPrice.IsNegative() {
			return decimal.Zero, validationError("price of service %d must not be negative", l.ServiceID)
		}

		if l.Quantity < 0 {
			return decimal.Zero, validationError("quantity of service %d must not be negative", l.ServiceID)
		}

		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.EffectiveQuantity()))))
	}

	return total, nil
}
