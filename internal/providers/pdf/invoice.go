package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	LandlordName    string
	LandlordAddress string
	LandlordEmail   string

	TenantName    string
	TenantAddress string

	InvoiceNumber string
	PeriodLabel   string
	IssueDate     string
	DueDate       string
	Currency      string

	Lines []InvoiceLine

	GrandTotal string
	Paid       string
	Balance    string
}

type InvoiceLine struct {
	Label  string
	Kind   string
	Amount string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderInvoice(_ context.Context, data InvoiceData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Rent invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Rental period: "+data.PeriodLabel, props.Text{Top: 4}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 8}),
			text.New("Date due: "+data.DueDate, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(32,
		col.New(6).Add(
			text.New(data.LandlordName, props.Text{Style: fontstyle.Bold}),
			text.New(data.LandlordAddress, props.Text{Top: 5}),
			text.New(data.LandlordEmail, props.Text{Top: 14}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.TenantName, props.Text{Top: 5}),
			text.New(data.TenantAddress, props.Text{Top: 9}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, "Type", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Lines {
		m.AddRow(6,
			text.NewCol(6, item.Label),
			text.NewCol(3, item.Kind),
			text.NewCol(3, item.Amount, props.Text{Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(9, "Total due", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, data.GrandTotal, props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(9, "Paid"),
		text.NewCol(3, data.Paid, props.Text{Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(9, "Balance", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, data.Balance, props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)

	document, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return document.GetBytes(), nil
}
