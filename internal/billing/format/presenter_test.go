package format

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/config"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$35.00", Money("$", decimal.RequireFromString("35")))
	assert.Equal(t, "Rp1234.50", Money("Rp", decimal.RequireFromString("1234.5")))
}

func TestPeriodLabel(t *testing.T) {
	got := PeriodLabel(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, "Mar 01, 2026 - Mar 31, 2026", got)
}

func TestBuildResultAppendsDisplayOnlyRows(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bill := &domain.Bill{
		ID:              node.Generate(),
		Utility:         meterdomain.UtilityElectricity,
		PeriodStart:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		PreviousReading: decimal.RequireFromString("1000"),
		CurrentReading:  decimal.RequireFromString("1250"),
		Consumption:     decimal.RequireFromString("250"),
		LateFee:         decimal.RequireFromString("5"),
		PreviousBalance: decimal.RequireFromString("135"),
		TotalAmount:     decimal.RequireFromString("175"),
		IssueDate:       time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		Status:          domain.BillUnpaid,
	}
	items := []domain.BillLineItem{
		{Description: "Electricity Consumption", Amount: decimal.RequireFromString("35")},
	}
	customer := &customerdomain.Customer{Name: "Ayu", Email: "ayu@example.com", Address: "12 Jalan Melati"}
	meter := &meterdomain.Meter{Serial: "ELEC-0001", Utility: meterdomain.UtilityElectricity}

	result := BuildResult(config.BillingConfig{CurrencySymbol: "$"}, bill, items, customer, meter)

	assert.Equal(t, "kWh", result.Unit)
	assert.Equal(t, "$175.00", result.TotalAmount)
	require.Len(t, result.Charges, 3)
	assert.Equal(t, "Electricity Consumption", result.Charges[0].Description)
	assert.Equal(t, "Late Fee", result.Charges[1].Description)
	assert.Equal(t, "Previous Balance", result.Charges[2].Description)
}

func TestBuildResultOmitsZeroDisplayRows(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bill := &domain.Bill{
		ID:          node.Generate(),
		Utility:     meterdomain.UtilityWater,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.Zero,
		Status:      domain.BillUnpaid,
	}
	customer := &customerdomain.Customer{Name: "Ayu"}
	meter := &meterdomain.Meter{Serial: "WATR-0001", Utility: meterdomain.UtilityWater}

	result := BuildResult(config.BillingConfig{CurrencySymbol: "$"}, bill, nil, customer, meter)
	assert.Empty(t, result.Charges)
	assert.Equal(t, "m3", result.Unit)
}
