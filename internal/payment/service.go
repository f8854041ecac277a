package payment

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	CreateBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*Batch, error)
	ListBatches(ctx context.Context, t tenant.Tenant) ([]*Batch, error)
	DeleteBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) error

	// FindLine returns the batch owning the line, with all of its lines loaded.
	FindLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) (*Batch, error)
	// FindDuplicateRefs returns the ref and invoice numbers among the given
	// ones that already exist for the tenant, ignoring the excluded line.
	FindDuplicateRefs(ctx context.Context, t tenant.Tenant, refNos, invoiceNos []string, exclude uuid.UUID) ([]string, error)

	// UpdateLineStatus writes only the status of the line and bumps its
	// version, provided the stored version still equals line.Version. It
	// returns ErrConflict otherwise.
	UpdateLineStatus(ctx context.Context, t tenant.Tenant, line *Line) error
	// UpdateLine writes every editable field of the line, provided the stored
	// version still equals line.Version. It returns ErrConflict otherwise.
	UpdateLine(ctx context.Context, t tenant.Tenant, line *Line) error
	DeleteLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateBatchParams struct {
	Tenant              tenant.Tenant
	Method              Method
	UTR                 string
	BankName            string
	SenderAccountNumber string
	Amount              decimal.Decimal
	TransactionDate     time.Time
	Lines               []LineParams
}

type LineParams struct {
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
	Status     Status
	Additional []AdditionalInvoice
}

type EditLineParams struct {
	LineParams
	Version int64
}

func (s *Service) CreateBatch(ctx context.Context, params CreateBatchParams) (*Batch, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if err := s.checkDuplicates(ctx, params.Tenant, params.Lines, uuid.Nil); err != nil {
		return nil, err
	}

	b := &Batch{
		Method:              params.Method,
		UTR:                 strings.TrimSpace(params.UTR),
		BankName:            params.BankName,
		SenderAccountNumber: params.SenderAccountNumber,
		Amount:              params.Amount,
		TransactionDate:     params.TransactionDate,
		Tenant:              params.Tenant,
		Lines:               make([]*Line, 0, len(params.Lines)),
	}

	for _, lp := range params.Lines {
		b.Lines = append(b.Lines, NewLine(lp))
	}

	if err := s.repo.CreateBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	return b, nil
}

func (s *Service) GetBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*Batch, error) {
	return s.repo.GetBatch(ctx, t, id)
}

func (s *Service) ListBatches(ctx context.Context, t tenant.Tenant) ([]*Batch, error) {
	return s.repo.ListBatches(ctx, t)
}

func (s *Service) DeleteBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) error {
	return s.repo.DeleteBatch(ctx, t, id)
}

// LocateLine finds the batch holding the line under the caller's tenant and
// returns it along with a pointer to the line inside it.
func (s *Service) LocateLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) (*Batch, *Line, error) {
	if lineID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: invoice id is required", ErrValidation)
	}

	b, err := s.repo.FindLine(ctx, t, lineID)
	if err != nil {
		return nil, nil, err
	}

	line := b.Line(lineID)
	if line == nil {
		return nil, nil, ErrNotFound
	}

	return b, line, nil
}

// SetStatus persists a new status on an already located line. The in-memory
// line only keeps the new status when the write succeeded.
func (s *Service) SetStatus(ctx context.Context, t tenant.Tenant, line *Line, status Status) error {
	if !line.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, line.Status, status)
	}

	prev := line.Status
	line.Status = status

	if err := s.repo.UpdateLineStatus(ctx, t, line); err != nil {
		line.Status = prev
		return fmt.Errorf("update status: %w", err)
	}

	return nil
}

func (s *Service) EditLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID, params EditLineParams) (*Line, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	_, line, err := s.LocateLine(ctx, t, lineID)
	if err != nil {
		return nil, err
	}

	if line.Version != params.Version {
		return nil, ErrConflict
	}

	if err := s.checkDuplicates(ctx, t, []LineParams{params.LineParams}, lineID); err != nil {
		return nil, err
	}

	edited := line.Clone()
	edited.apply(params.LineParams)

	if err := s.repo.UpdateLine(ctx, t, edited); err != nil {
		return nil, fmt.Errorf("update line: %w", err)
	}

	return edited, nil
}

func (s *Service) DeleteLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) error {
	if lineID == uuid.Nil {
		return fmt.Errorf("%w: invoice id is required", ErrValidation)
	}

	return s.repo.DeleteLine(ctx, t, lineID)
}

func (s *Service) checkDuplicates(ctx context.Context, t tenant.Tenant, lines []LineParams, exclude uuid.UUID) error {
	var refNos, invoiceNos []string

	seenRef := make(map[string]bool)
	seenInv := make(map[string]bool)

	for _, l := range lines {
		if l.RefNo != "" {
			if seenRef[l.RefNo] {
				return fmt.Errorf("%w: ref no %s appears more than once", ErrDuplicate, l.RefNo)
			}

			seenRef[l.RefNo] = true
			refNos = append(refNos, l.RefNo)
		}

		if l.InvoiceNo != "" {
			if seenInv[l.InvoiceNo] {
				return fmt.Errorf("%w: invoice no %s appears more than once", ErrDuplicate, l.InvoiceNo)
			}

			seenInv[l.InvoiceNo] = true
			invoiceNos = append(invoiceNos, l.InvoiceNo)
		}
	}

	if len(refNos) == 0 && len(invoiceNos) == 0 {
		return nil
	}

	existing, err := s.repo.FindDuplicateRefs(ctx, t, refNos, invoiceNos, exclude)
	if err != nil {
		return fmt.Errorf("find duplicates: %w", err)
	}

	if len(existing) > 0 {
		slices.Sort(existing)
		return fmt.Errorf("%w: %s already exists", ErrDuplicate, strings.Join(existing, ", "))
	}

	return nil
}

func (p CreateBatchParams) validate() error {
	if !p.Tenant.Valid() {
		return fmt.Errorf("%w: unknown company %q", ErrValidation, p.Tenant)
	}

	if !p.Method.Valid() {
		return fmt.Errorf("%w: unknown payment type %q", ErrValidation, p.Method)
	}

	if strings.TrimSpace(p.UTR) == "" {
		return fmt.Errorf("%w: UTR number is required", ErrValidation)
	}

	if p.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrValidation)
	}

	if len(p.Lines) == 0 {
		return fmt.Errorf("%w: at least one invoice is required", ErrValidation)
	}

	for i, l := range p.Lines {
		if err := l.validate(); err != nil {
			return fmt.Errorf("invoice %d: %w", i+1, err)
		}
	}

	return nil
}

func (p LineParams) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"recipient name", p.RecipientName},
		{"recipient email", p.RecipientEmail},
		{"account number", p.AccountNumber},
		{"IFSC code", p.IFSCCode},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, r.name)
		}
	}

	if _, err := mail.ParseAddress(p.RecipientEmail); err != nil {
		return fmt.Errorf("%w: invalid recipient email %q", ErrValidation, p.RecipientEmail)
	}

	if p.Status != "" {
		if _, err := ParseStatus(string(p.Status)); err != nil {
			return err
		}
	}

	if !p.Amounts.Consistent() {
		return fmt.Errorf("%w: net amount %s does not equal gross - tds - other deductions", ErrValidation, p.NetAmount.StringFixed(2))
	}

	for i, a := range p.Additional {
		if !a.Amounts.Consistent() {
			return fmt.Errorf("%w: additional invoice %d: net amount %s does not equal gross - tds - other deductions",
				ErrValidation, i+1, a.NetAmount.StringFixed(2))
		}
	}

	return nil
}
