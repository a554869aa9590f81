package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type BillData struct {
	BillNumber    string
	IssueDate     string
	DueDate       string
	BillingPeriod string
	Status        string

	CustomerName    string
	CustomerAddress string
	CustomerEmail   string

	Utility         string
	MeterSerial     string
	PreviousReading string
	CurrentReading  string
	Consumption     string
	Unit            string

	Charges []ChargeRow

	TotalAmount string
}

type ChargeRow struct {
	Description string
	Amount      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateBill(ctx context.Context, data BillData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Utility Bill", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Bill number: "+data.BillNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Date due: "+data.DueDate, props.Text{Top: 8}),
			text.New("Billing period: "+data.BillingPeriod, props.Text{Top: 12}),
			text.New("Status: "+data.Status, props.Text{Top: 16}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.CustomerName, props.Text{Top: 5}),
			text.New(data.CustomerAddress, props.Text{Top: 9}),
			text.New(data.CustomerEmail, props.Text{Top: 13}),
		),
	)

	m.AddRow(20,
		col.New(12).Add(
			text.New("Supply", props.Text{Style: fontstyle.Bold}),
			text.New(data.Utility+" meter "+data.MeterSerial, props.Text{Top: 5}),
			text.New("Readings: "+data.PreviousReading+" to "+data.CurrentReading+
				" ("+data.Consumption+" "+data.Unit+")", props.Text{Top: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range data.Charges {
		m.AddRow(8,
			text.NewCol(8, row.Description, props.Text{Size: 9}),
			text.NewCol(4, row.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "Total due", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, data.TotalAmount, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
