package recipient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

// SearchLimit caps the number of autocomplete suggestions.
const SearchLimit = 10

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=recipient
type Repository interface {
	Create(ctx context.Context, r *Recipient) error
	// CreateMany inserts all recipients or none of them.
	CreateMany(ctx context.Context, rs []*Recipient) error
	Get(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*Recipient, error)
	List(ctx context.Context, t tenant.Tenant) ([]*Recipient, error)
	Update(ctx context.Context, r *Recipient) error
	Delete(ctx context.Context, t tenant.Tenant, id uuid.UUID) error
	// SearchByName returns recipients whose name starts with prefix,
	// ignoring case, ordered by name.
	SearchByName(ctx context.Context, t tenant.Tenant, prefix string, limit int) ([]*Recipient, error)
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Create(ctx context.Context, t tenant.Tenant, p Params) (*Recipient, error) {
	p = normalize(p)
	if err := s.check(t, p); err != nil {
		return nil, err
	}

	r := &Recipient{ID: uuid.New(), Tenant: t}
	p.apply(r)

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create recipient: %w", err)
	}

	return r, nil
}

func (s *Service) Get(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*Recipient, error) {
	return s.repo.Get(ctx, t, id)
}

func (s *Service) List(ctx context.Context, t tenant.Tenant) ([]*Recipient, error) {
	return s.repo.List(ctx, t)
}

func (s *Service) Update(ctx context.Context, t tenant.Tenant, id uuid.UUID, p Params) (*Recipient, error) {
	p = normalize(p)
	if err := s.check(t, p); err != nil {
		return nil, err
	}

	r, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}

	p.apply(r)

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update recipient: %w", err)
	}

	return r, nil
}

func (s *Service) Delete(ctx context.Context, t tenant.Tenant, id uuid.UUID) error {
	return s.repo.Delete(ctx, t, id)
}

// Search returns up to SearchLimit recipients whose name starts with prefix.
// A blank prefix matches nothing.
func (s *Service) Search(ctx context.Context, t tenant.Tenant, prefix string) ([]*Recipient, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*Recipient{}, nil
	}

	return s.repo.SearchByName(ctx, t, prefix, SearchLimit)
}

// BulkUpload registers every recipient in a CSV or XLSX file. The upload is
// rejected as a whole when any row is invalid.
func (s *Service) BulkUpload(ctx context.Context, t tenant.Tenant, filename string, r io.Reader) ([]*Recipient, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown company %q", ErrValidation, t)
	}

	rows, err := ParseUpload(filename, r)
	if err != nil {
		return nil, err
	}

	out := make([]*Recipient, 0, len(rows))

	for i, p := range rows {
		p = normalize(p)

		if p.Name == "" || p.Email == "" || p.Phone == "" {
			return nil, fmt.Errorf("%w: Row %d is missing required fields (name, email, or phone)", ErrValidation, i+1)
		}

		if err := s.validateParams(p); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		rec := &Recipient{ID: uuid.New(), Tenant: t}
		p.apply(rec)
		out = append(out, rec)
	}

	if err := s.repo.CreateMany(ctx, out); err != nil {
		return nil, fmt.Errorf("create recipients: %w", err)
	}

	return out, nil
}

func (s *Service) check(t tenant.Tenant, p Params) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown company %q", ErrValidation, t)
	}

	return s.validateParams(p)
}

func (s *Service) validateParams(p Params) error {
	err := s.validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, describe(verrs[0]))
	}

	return fmt.Errorf("%w: %v", ErrValidation, err)
}

var fieldLabels = map[string]string{
	"Name":          "name",
	"Email":         "email",
	"Phone":         "phone",
	"BankName":      "bank name",
	"AccountNumber": "account number",
	"IFSCCode":      "IFSC code",
	"Type":          "type",
}

func describe(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = strings.ToLower(fe.Field())
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "numeric":
		return label + " must contain only digits"
	default:
		return label + " is invalid"
	}
}

func normalize(p Params) Params {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.BankName = strings.TrimSpace(p.BankName)
	p.AccountNumber = strings.TrimSpace(p.AccountNumber)
	p.IFSCCode = strings.ToUpper(strings.TrimSpace(p.IFSCCode))
	p.BankAddress = strings.TrimSpace(p.BankAddress)
	p.State = strings.TrimSpace(p.State)
	p.District = strings.TrimSpace(p.District)
	p.Type = Type(strings.ToLower(strings.TrimSpace(string(p.Type))))

	return p
}
