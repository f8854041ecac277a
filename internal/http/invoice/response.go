package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

type additionalResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceNo       string          `json:"invoiceNo"`
	InvoiceDate     *time.Time      `json:"invoiceDate,omitempty"`
	Particulars     string          `json:"particulars"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	TDS             decimal.Decimal `json:"tds"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
	NetAmount       decimal.Decimal `json:"netAmount"`
}

type lineResponse struct {
	ID                 uuid.UUID            `json:"id"`
	RefNo              string               `json:"refNo"`
	RecipientName      string               `json:"recipientName"`
	RecipientEmail     string               `json:"recipientEmail"`
	RecipientAddress   string               `json:"recipientAddress,omitempty"`
	Phone              string               `json:"phone,omitempty"`
	AccountNumber      string               `json:"accountNumber"`
	IFSCCode           string               `json:"ifscCode"`
	Date               *time.Time           `json:"date,omitempty"`
	InvoiceNo          string               `json:"invoiceNo"`
	InvoiceDate        *time.Time           `json:"invoiceDate,omitempty"`
	Particulars        string               `json:"particulars"`
	GrossAmount        decimal.Decimal      `json:"grossAmount"`
	TDS                decimal.Decimal      `json:"tds"`
	OtherDeductions    decimal.Decimal      `json:"otherDeductions"`
	NetAmount          decimal.Decimal      `json:"netAmount"`
	NetPayable         decimal.Decimal      `json:"netPayable"`
	Status             payment.Status       `json:"status"`
	Version            int64                `json:"version"`
	AdditionalInvoices []additionalResponse `json:"additionalInvoices"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          *time.Time           `json:"updatedAt,omitempty"`
}

type batchResponse struct {
	ID                  uuid.UUID       `json:"id"`
	PaymentType         payment.Method  `json:"paymentType"`
	UTRNo               string          `json:"utrNo"`
	BankName            string          `json:"bankName,omitempty"`
	SenderAccountNumber string          `json:"senderAccountNumber,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	TransactionDate     time.Time       `json:"transactionDate"`
	Company             tenant.Tenant   `json:"company"`
	Invoices            []lineResponse  `json:"invoices"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           *time.Time      `json:"updatedAt,omitempty"`
}

// listItem is one invoice line flattened with the transfer it belongs to.
type listItem struct {
	lineResponse
	BatchID         uuid.UUID       `json:"batchId"`
	PaymentType     payment.Method  `json:"paymentType"`
	UTRNo           string          `json:"utrNo"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transactionDate"`
	Company         tenant.Tenant   `json:"company"`
}

func toLineResponse(l *payment.Line) lineResponse {
	extra := l.Additional()

	resp := lineResponse{
		ID:                 l.ID,
		RefNo:              l.RefNo,
		RecipientName:      l.RecipientName,
		RecipientEmail:     l.RecipientEmail,
		RecipientAddress:   l.RecipientAddress,
		Phone:              l.Phone,
		AccountNumber:      l.AccountNumber,
		IFSCCode:           l.IFSCCode,
		Date:               l.Date,
		InvoiceNo:          l.InvoiceNo,
		InvoiceDate:        l.InvoiceDate,
		Particulars:        l.Particulars,
		GrossAmount:        l.GrossAmount,
		TDS:                l.TDS,
		OtherDeductions:    l.OtherDeductions,
		NetAmount:          l.NetAmount,
		NetPayable:         l.NetPayable(),
		Status:             l.Status,
		Version:            l.Version,
		AdditionalInvoices: make([]additionalResponse, len(extra)),
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}

	for i, a := range extra {
		resp.AdditionalInvoices[i] = additionalResponse{
			ID:              a.ID,
			InvoiceNo:       a.InvoiceNo,
			InvoiceDate:     a.InvoiceDate,
			Particulars:     a.Particulars,
			GrossAmount:     a.GrossAmount,
			TDS:             a.TDS,
			OtherDeductions: a.OtherDeductions,
			NetAmount:       a.NetAmount,
		}
	}

	return resp
}

func toBatchResponse(b *payment.Batch) batchResponse {
	resp := batchResponse{
		ID:                  b.ID,
		PaymentType:         b.Method,
		UTRNo:               b.UTR,
		BankName:            b.BankName,
		SenderAccountNumber: b.SenderAccountNumber,
		Amount:              b.Amount,
		TransactionDate:     b.TransactionDate,
		Company:             b.Tenant,
		Invoices:            make([]lineResponse, len(b.Lines)),
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}

	for i, l := range b.Lines {
		resp.Invoices[i] = toLineResponse(l)
	}

	return resp
}

func toListItems(batches []*payment.Batch) []listItem {
	items := []listItem{}

	for _, b := range batches {
		for _, l := range b.Lines {
			items = append(items, listItem{
				lineResponse:    toLineResponse(l),
				BatchID:         b.ID,
				PaymentType:     b.Method,
				UTRNo:           b.UTR,
				Amount:          b.Amount,
				TransactionDate: b.TransactionDate,
				Company:         b.Tenant,
			})
		}
	}

	return items
}
