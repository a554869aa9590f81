// Package format renders assembled bills for API and PDF consumption.
package format

import (
	"fmt"
	"time"

	"github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/config"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "Jan 02, 2006"

// Money renders an amount with the configured currency symbol and two
// fractional digits.
func Money(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// DateLabel renders a calendar date the way it appears on printed bills.
func DateLabel(t time.Time) string {
	return t.Format(dateLayout)
}

// PeriodLabel renders a billing period as "<start> - <end>".
func PeriodLabel(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", DateLabel(start), DateLabel(end))
}

// BuildResult assembles the caller-facing shape for a persisted bill. The
// persisted line items come first in their stored order; late fee and
// previous balance are display-only rows appended when positive, never
// persisted as line items.
func BuildResult(cfg config.BillingConfig, bill *domain.Bill, items []domain.BillLineItem, customer *customerdomain.Customer, meter *meterdomain.Meter) domain.BillResult {
	charges := make([]domain.ChargeLine, 0, len(items)+2)
	for _, item := range items {
		charges = append(charges, domain.ChargeLine{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}
	if bill.LateFee.IsPositive() {
		charges = append(charges, domain.ChargeLine{
			Description: "Late Fee",
			Amount:      bill.LateFee,
		})
	}
	if bill.PreviousBalance.IsPositive() {
		charges = append(charges, domain.ChargeLine{
			Description: "Previous Balance",
			Amount:      bill.PreviousBalance,
		})
	}

	return domain.BillResult{
		BillID:          bill.ID.String(),
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerAddress: customer.Address,
		Utility:         string(bill.Utility),
		Meter:           meter.Serial,
		BillingPeriod:   PeriodLabel(bill.PeriodStart, bill.PeriodEnd),
		PreviousReading: bill.PreviousReading,
		CurrentReading:  bill.CurrentReading,
		Consumption:     bill.Consumption,
		Unit:            bill.Utility.Unit(),
		Charges:         charges,
		TotalAmount:     Money(cfg.CurrencySymbol, bill.TotalAmount),
		DueDate:         DateLabel(bill.DueDate),
		IssueDate:       DateLabel(bill.IssueDate),
		Status:          string(bill.Status),
	}
}

// ConsumptionDescription labels the consumption line for a utility.
func ConsumptionDescription(utility meterdomain.UtilityType) string {
	return fmt.Sprintf("%s Consumption", utility)
}
