package recipient

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

type recipientRequest struct {
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	BankName      string         `json:"bankName"`
	AccountNumber string         `json:"accountNumber"`
	IFSCCode      string         `json:"ifscCode"`
	BankAddress   string         `json:"bankAddress"`
	State         string         `json:"state"`
	District      string         `json:"district"`
	Type          recipient.Type `json:"type"`
}

func (r recipientRequest) params() recipient.Params {
	return recipient.Params{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		IFSCCode:      r.IFSCCode,
		BankAddress:   r.BankAddress,
		State:         r.State,
		District:      r.District,
		Type:          r.Type,
	}
}

type recipientResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	BankName      string         `json:"bankName,omitempty"`
	AccountNumber string         `json:"accountNumber,omitempty"`
	IFSCCode      string         `json:"ifscCode,omitempty"`
	BankAddress   string         `json:"bankAddress,omitempty"`
	State         string         `json:"state,omitempty"`
	District      string         `json:"district,omitempty"`
	Type          recipient.Type `json:"type,omitempty"`
	Company       tenant.Tenant  `json:"company"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

type bulkUploadResponse struct {
	Imported   int                 `json:"imported"`
	Recipients []recipientResponse `json:"recipients"`
}

func toResponse(r *recipient.Recipient) recipientResponse {
	return recipientResponse{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		IFSCCode:      r.IFSCCode,
		BankAddress:   r.BankAddress,
		State:         r.State,
		District:      r.District,
		Type:          r.Type,
		Company:       r.Tenant,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toResponseList(rs []*recipient.Recipient) []recipientResponse {
	resp := make([]recipientResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResponse(r)
	}

	return resp
}
