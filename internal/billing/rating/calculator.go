// Package rating holds the pure tariff arithmetic. No I/O, no clock.
package rating

import (
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/shopspring/decimal"
)

// Charges is the output of one calculator run. Matched mirrors the rate
// card: an unmatched card yields zero charges instead of an error.
type Charges struct {
	ConsumptionCharge decimal.Decimal
	FixedCharges      decimal.Decimal
	Matched           bool
}

// Calculate maps consumption to a consumption charge and fixed charge under
// the utility-specific rule carried by the rate card.
func Calculate(card tariffdomain.RateCard, class customerdomain.CustomerClass, consumed decimal.Decimal) Charges {
	if !card.Matched {
		return Charges{
			ConsumptionCharge: decimal.Zero,
			FixedCharges:      decimal.Zero,
			Matched:           false,
		}
	}

	switch card.Utility {
	case meterdomain.UtilityElectricity:
		if card.Electricity == nil {
			break
		}
		return Charges{
			ConsumptionCharge: electricityCharge(card.Electricity, consumed).Round(2),
			FixedCharges:      decimal.Zero,
			Matched:           true,
		}
	case meterdomain.UtilityWater:
		if card.Water == nil {
			break
		}
		return Charges{
			ConsumptionCharge: consumed.Mul(card.Water.FlatRate).Round(2),
			FixedCharges:      card.Water.FixedCharge.Round(2),
			Matched:           true,
		}
	case meterdomain.UtilityGas:
		if card.Gas == nil {
			break
		}
		return Charges{
			ConsumptionCharge: gasCharge(card.Gas, class, consumed).Round(2),
			FixedCharges:      decimal.Zero,
			Matched:           true,
		}
	}

	return Charges{
		ConsumptionCharge: decimal.Zero,
		FixedCharges:      decimal.Zero,
		Matched:           false,
	}
}

// electricityCharge bills three progressive bands. Only the portion of
// consumption falling inside each band is billed at that band's rate.
func electricityCharge(t *tariffdomain.ElectricityTariff, consumed decimal.Decimal) decimal.Decimal {
	if consumed.LessThanOrEqual(t.Slab1Max) {
		return consumed.Mul(t.Slab1Rate)
	}
	charge := t.Slab1Max.Mul(t.Slab1Rate)
	if consumed.LessThanOrEqual(t.Slab2Max) {
		return charge.Add(consumed.Sub(t.Slab1Max).Mul(t.Slab2Rate))
	}
	charge = charge.Add(t.Slab2Max.Sub(t.Slab1Max).Mul(t.Slab2Rate))
	return charge.Add(consumed.Sub(t.Slab2Max).Mul(t.Slab3Rate))
}

// gasCharge bills two bands after deducting the household subsidy. The
// subsidy never applies to non-household customers and never drives the
// billable volume negative.
func gasCharge(t *tariffdomain.GasTariff, class customerdomain.CustomerClass, consumed decimal.Decimal) decimal.Decimal {
	billable := consumed
	if class == customerdomain.ClassHousehold && t.SubsidyAmount.IsPositive() {
		billable = consumed.Sub(t.SubsidyAmount)
		if billable.IsNegative() {
			billable = decimal.Zero
		}
	}
	if billable.LessThanOrEqual(t.Slab1Max) {
		return billable.Mul(t.Slab1Rate)
	}
	return t.Slab1Max.Mul(t.Slab1Rate).
		Add(billable.Sub(t.Slab1Max).Mul(t.Slab2Rate))
}
