package payment

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

// Method is how the batch was transferred.
type Method string

const (
	MethodNEFT Method = "nft"
	MethodUPI  Method = "upi"
)

func (m Method) Valid() bool {
	return m == MethodNEFT || m == MethodUPI
}

// Status represents the lifecycle state of an invoice line.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// CanTransitionTo reports whether a line in status s may be moved to next.
// Pending lines may go anywhere. Rejected lines may be re-reviewed into
// Approved. Approved only accepts Approved again, which re-sends the advice.
// Re-saving the current status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}

	switch s {
	case StatusPending, "":
		return next == StatusApproved || next == StatusRejected
	case StatusRejected:
		return next == StatusApproved
	default:
		return false
	}
}

// Amounts is the monetary shape shared by invoice lines and their
// additional invoices.
type Amounts struct {
	GrossAmount     decimal.Decimal
	TDS             decimal.Decimal
	OtherDeductions decimal.Decimal
	NetAmount       decimal.Decimal
}

// Consistent reports whether net = gross - tds - other deductions, to the paisa.
func (a Amounts) Consistent() bool {
	want := a.GrossAmount.Sub(a.TDS).Sub(a.OtherDeductions).Round(2)
	return want.Equal(a.NetAmount.Round(2))
}

// Batch is one submitted payment transfer covering one or more invoice lines.
type Batch struct {
	ID                  uuid.UUID
	Method              Method
	UTR                 string
	BankName            string
	SenderAccountNumber string
	Amount              decimal.Decimal
	TransactionDate     time.Time
	Tenant              tenant.Tenant
	Lines               []*Line
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}

// Line returns the line with the given id, or nil. The returned pointer
// refers to the batch's own line, so mutating it mutates the batch.
func (b *Batch) Line(id uuid.UUID) *Line {
	for _, l := range b.Lines {
		if l.ID == id {
			return l
		}
	}

	return nil
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	c := *b

	c.Lines = make([]*Line, len(b.Lines))
	for i, l := range b.Lines {
		c.Lines[i] = l.Clone()
	}

	return &c
}

// Line is one recipient's invoice within a batch. Recipient fields are a
// snapshot taken when the line was entered.
type Line struct {
	ID               uuid.UUID
	RefNo            string
	RecipientName    string
	RecipientEmail   string
	RecipientAddress string
	Phone            string
	AccountNumber    string
	IFSCCode         string
	Date             *time.Time
	InvoiceNo        string
	InvoiceDate      *time.Time
	Particulars      string
	Amounts
	Status    Status
	Version   int64
	CreatedAt time.Time
	UpdatedAt *time.Time

	additional []AdditionalInvoice
}

// AdditionalInvoice is a supplementary invoice billed to the same recipient
// within one line.
type AdditionalInvoice struct {
	ID          uuid.UUID
	InvoiceNo   string
	InvoiceDate *time.Time
	Particulars string
	Amounts
}

// NewLine builds a line from params. A line without an explicit status
// starts out Pending.
func NewLine(p LineParams) *Line {
	l := &Line{
		ID:     uuid.New(),
		Status: p.Status,
	}
	if l.Status == "" {
		l.Status = StatusPending
	}

	l.apply(p)

	return l
}

func (l *Line) apply(p LineParams) {
	l.RefNo = p.RefNo
	l.RecipientName = p.RecipientName
	l.RecipientEmail = p.RecipientEmail
	l.RecipientAddress = p.RecipientAddress
	l.Phone = p.Phone
	l.AccountNumber = p.AccountNumber
	l.IFSCCode = p.IFSCCode
	l.Date = p.Date
	l.InvoiceNo = p.InvoiceNo
	l.InvoiceDate = p.InvoiceDate
	l.Particulars = p.Particulars
	l.Amounts = p.Amounts

	l.ReplaceAdditional(p.Additional)
}

// Additional returns a copy of the line's additional invoices in order.
func (l *Line) Additional() []AdditionalInvoice {
	return slices.Clone(l.additional)
}

// AddAdditional appends an additional invoice, assigning an id when missing.
func (l *Line) AddAdditional(a AdditionalInvoice) AdditionalInvoice {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	l.additional = append(l.additional, a)

	return a
}

// UpdateAdditional applies fn to the additional invoice with the given id.
func (l *Line) UpdateAdditional(id uuid.UUID, fn func(a *AdditionalInvoice)) error {
	i := slices.IndexFunc(l.additional, func(a AdditionalInvoice) bool { return a.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: additional invoice %s", ErrNotFound, id)
	}

	fn(&l.additional[i])
	l.additional[i].ID = id

	return nil
}

func (l *Line) RemoveAdditional(id uuid.UUID) error {
	i := slices.IndexFunc(l.additional, func(a AdditionalInvoice) bool { return a.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: additional invoice %s", ErrNotFound, id)
	}

	l.additional = slices.Delete(l.additional, i, i+1)

	return nil
}

// ReplaceAdditional swaps the whole collection, keeping the given order.
func (l *Line) ReplaceAdditional(items []AdditionalInvoice) {
	l.additional = nil
	for _, a := range items {
		l.AddAdditional(a)
	}
}

// NetPayable is the line's net amount plus the net of every additional invoice.
func (l *Line) NetPayable() decimal.Decimal {
	total := l.NetAmount
	for _, a := range l.additional {
		total = total.Add(a.NetAmount)
	}

	return total
}

// Clone returns a deep copy of the line.
func (l *Line) Clone() *Line {
	c := *l
	c.additional = slices.Clone(l.additional)

	return &c
}
