package recipient

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

// Type classifies who is being paid.
type Type string

const (
	TypeCompany  Type = "company"
	TypeEmployee Type = "employee"
)

// Recipient is a payee registered by a tenant. Invoice lines copy its
// details when they are entered, so editing a recipient never changes
// existing lines.
type Recipient struct {
	ID            uuid.UUID
	Tenant        tenant.Tenant
	Name          string
	Email         string
	Phone         string
	BankName      string
	AccountNumber string
	IFSCCode      string
	BankAddress   string
	State         string
	District      string
	Type          Type
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type Params struct {
	Name          string `validate:"required,max=200"`
	Email         string `validate:"required,email"`
	Phone         string `validate:"required,max=20"`
	BankName      string `validate:"max=200"`
	AccountNumber string `validate:"omitempty,numeric,max=20"`
	IFSCCode      string `validate:"omitempty,alphanum,len=11"`
	BankAddress   string
	State         string
	District      string
	Type          Type `validate:"omitempty,oneof=company employee"`
}

func (p *Params) apply(r *Recipient) {
	r.Name = p.Name
	r.Email = p.Email
	r.Phone = p.Phone
	r.BankName = p.BankName
	r.AccountNumber = p.AccountNumber
	r.IFSCCode = p.IFSCCode
	r.BankAddress = p.BankAddress
	r.State = p.State
	r.District = p.District
	r.Type = p.Type
}
