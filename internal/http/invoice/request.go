package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
)

// date accepts the date formats the dashboard has sent over time.
type date struct {
	time.Time
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "02-01-2006"}

func (d *date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}

	return fmt.Errorf("invalid date %q", s)
}

func (d *date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}

	t := d.Time

	return &t
}

type additionalRequest struct {
	InvoiceNo       string          `json:"invoiceNo"`
	InvoiceDate     *date           `json:"invoiceDate"`
	Particulars     string          `json:"particulars"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	TDS             decimal.Decimal `json:"tds"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
	NetAmount       decimal.Decimal `json:"netAmount"`
}

type lineRequest struct {
	RefNo              string              `json:"refNo"`
	RecipientName      string              `json:"recipientName"`
	RecipientEmail     string              `json:"recipientEmail"`
	RecipientAddress   string              `json:"recipientAddress"`
	Phone              string              `json:"phone"`
	AccountNumber      string              `json:"accountNumber"`
	IFSCCode           string              `json:"ifscCode"`
	Date               *date               `json:"date"`
	InvoiceNo          string              `json:"invoiceNo"`
	InvoiceDate        *date               `json:"invoiceDate"`
	Particulars        string              `json:"particulars"`
	GrossAmount        decimal.Decimal     `json:"grossAmount"`
	TDS                decimal.Decimal     `json:"tds"`
	OtherDeductions    decimal.Decimal     `json:"otherDeductions"`
	NetAmount          decimal.Decimal     `json:"netAmount"`
	Status             payment.Status      `json:"status"`
	AdditionalInvoices []additionalRequest `json:"additionalInvoices"`
}

func (l lineRequest) params() payment.LineParams {
	p := payment.LineParams{
		RefNo:            strings.TrimSpace(l.RefNo),
		RecipientName:    strings.TrimSpace(l.RecipientName),
		RecipientEmail:   strings.TrimSpace(l.RecipientEmail),
		RecipientAddress: strings.TrimSpace(l.RecipientAddress),
		Phone:            strings.TrimSpace(l.Phone),
		AccountNumber:    strings.TrimSpace(l.AccountNumber),
		IFSCCode:         strings.TrimSpace(l.IFSCCode),
		Date:             l.Date.ptr(),
		InvoiceNo:        strings.TrimSpace(l.InvoiceNo),
		InvoiceDate:      l.InvoiceDate.ptr(),
		Particulars:      strings.TrimSpace(l.Particulars),
		Amounts: payment.Amounts{
			GrossAmount:     l.GrossAmount,
			TDS:             l.TDS,
			OtherDeductions: l.OtherDeductions,
			NetAmount:       l.NetAmount,
		},
		Status: l.Status,
	}

	for _, a := range l.AdditionalInvoices {
		p.Additional = append(p.Additional, payment.AdditionalInvoice{
			InvoiceNo:   strings.TrimSpace(a.InvoiceNo),
			InvoiceDate: a.InvoiceDate.ptr(),
			Particulars: strings.TrimSpace(a.Particulars),
			Amounts: payment.Amounts{
				GrossAmount:     a.GrossAmount,
				TDS:             a.TDS,
				OtherDeductions: a.OtherDeductions,
				NetAmount:       a.NetAmount,
			},
		})
	}

	return p
}

type createBatchRequest struct {
	PaymentType         payment.Method  `json:"paymentType"`
	UTRNo               string          `json:"utrNo"`
	BankName            string          `json:"bankName"`
	SenderAccountNumber string          `json:"senderAccountNumber"`
	Amount              decimal.Decimal `json:"amount"`
	TransactionDate     date            `json:"transactionDate"`
	Invoices            []lineRequest   `json:"invoices"`
}

type editLineRequest struct {
	lineRequest
	Version int64 `json:"version"`
}

type statusRequest struct {
	Status      string `json:"status"`
	InvoiceHTML string `json:"invoiceHtml"`
	SendSMS     bool   `json:"sendSMS"`
}

type resendRequest struct {
	SendSMS bool `json:"sendSMS"`
}

// decode reads a JSON body into dst. An empty body leaves dst untouched when
// optional is set.
func decode(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: invalid request body: %v", payment.ErrValidation, err)
	}

	return nil
}
