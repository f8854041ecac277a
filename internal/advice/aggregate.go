package advice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
)

// Row is one printed line of the advice table.
type Row struct {
	Particulars     string
	InvoiceNo       string
	InvoiceDate     time.Time
	GrossAmount     decimal.Decimal
	TDS             decimal.Decimal
	OtherDeductions decimal.Decimal
	NetAmount       decimal.Decimal
}

// Totals are column sums over every row of a line.
type Totals struct {
	Gross           decimal.Decimal
	TDS             decimal.Decimal
	OtherDeductions decimal.Decimal
	Net             decimal.Decimal
}

// Rows flattens a line into the primary row followed by its additional
// invoices. Rows without an invoice date carry the batch transaction date.
func Rows(b *payment.Batch, l *payment.Line) []Row {
	additional := l.Additional()
	rows := make([]Row, 0, 1+len(additional))

	rows = append(rows, newRow(b, l.Particulars, l.InvoiceNo, l.InvoiceDate, l.Amounts))
	for _, a := range additional {
		rows = append(rows, newRow(b, a.Particulars, a.InvoiceNo, a.InvoiceDate, a.Amounts))
	}

	return rows
}

func newRow(b *payment.Batch, particulars, invoiceNo string, date *time.Time, amounts payment.Amounts) Row {
	r := Row{
		Particulars:     particulars,
		InvoiceNo:       invoiceNo,
		InvoiceDate:     b.TransactionDate,
		GrossAmount:     amounts.GrossAmount,
		TDS:             amounts.TDS,
		OtherDeductions: amounts.OtherDeductions,
		NetAmount:       amounts.NetAmount,
	}

	if date != nil && !date.IsZero() {
		r.InvoiceDate = *date
	}

	return r
}

// Aggregate sums the amount columns of a line and its additional invoices.
// Net is the sum of the stored net amounts; it is never recomputed from the
// other columns.
func Aggregate(l *payment.Line) Totals {
	t := Totals{
		Gross:           l.GrossAmount,
		TDS:             l.TDS,
		OtherDeductions: l.OtherDeductions,
		Net:             l.NetAmount,
	}

	for _, a := range l.Additional() {
		t.Gross = t.Gross.Add(a.GrossAmount)
		t.TDS = t.TDS.Add(a.TDS)
		t.OtherDeductions = t.OtherDeductions.Add(a.OtherDeductions)
		t.Net = t.Net.Add(a.NetAmount)
	}

	return t
}
