package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

const uniqueViolation = "23505"

// constraintFields maps the unique indexes of the recipients table to the
// field a collision on them is reported against.
var constraintFields = map[string]string{
	"recipients_tenant_email_key":          recipient.FieldEmail,
	"recipients_tenant_phone_key":          recipient.FieldPhone,
	"recipients_tenant_account_number_key": recipient.FieldAccountNumber,
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	id, tenant, name, email, phone, bank_name, account_number, ifsc_code,
	bank_address, state, district, type, created_at, updated_at
`

func scanRecipient(s scanner) (*recipient.Recipient, error) {
	var r recipient.Recipient

	var tenantStr, typeStr string

	if err := s.Scan(
		&r.ID, &tenantStr, &r.Name, &r.Email, &r.Phone, &r.BankName, &r.AccountNumber, &r.IFSCCode,
		&r.BankAddress, &r.State, &r.District, &typeStr, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Tenant = tenant.Tenant(tenantStr)
	r.Type = recipient.Type(typeStr)

	return &r, nil
}

// mapError turns unique index violations into recipient.DuplicateError.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}

		return &recipient.DuplicateError{Field: field}
	}

	return err
}

const insertQuery = `
	INSERT INTO recipients (
		id, tenant, name, email, phone, bank_name, account_number, ifsc_code,
		bank_address, state, district, type, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
	RETURNING created_at
`

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q execer, r *recipient.Recipient) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	err := q.QueryRowContext(ctx, insertQuery,
		r.ID, r.Tenant, r.Name, r.Email, r.Phone, r.BankName, r.AccountNumber, r.IFSCCode,
		r.BankAddress, r.State, r.District, r.Type,
	).Scan(&r.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	return nil
}

func (s *Store) Create(ctx context.Context, r *recipient.Recipient) error {
	if err := insert(ctx, s.db, r); err != nil {
		return fmt.Errorf("creating recipient: %w", err)
	}

	return nil
}

func (s *Store) CreateMany(ctx context.Context, rs []*recipient.Recipient) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for i, r := range rs {
		if err := insert(ctx, dbTx, r); err != nil {
			return fmt.Errorf("creating recipient %d: %w", i+1, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*recipient.Recipient, error) {
	query := `SELECT ` + selectColumns + ` FROM recipients WHERE id = $1 AND tenant = $2`

	r, err := scanRecipient(s.db.QueryRowContext(ctx, query, id, t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recipient.ErrNotFound
		}

		return nil, fmt.Errorf("getting recipient: %w", err)
	}

	return r, nil
}

func (s *Store) List(ctx context.Context, t tenant.Tenant) ([]*recipient.Recipient, error) {
	query := `SELECT ` + selectColumns + ` FROM recipients WHERE tenant = $1 ORDER BY created_at DESC`

	return s.query(ctx, query, t)
}

// SearchByName matches on a lower(name) prefix so the text_pattern_ops index
// can serve it. LIKE metacharacters in prefix are matched literally.
func (s *Store) SearchByName(ctx context.Context, t tenant.Tenant, prefix string, limit int) ([]*recipient.Recipient, error) {
	query := `SELECT ` + selectColumns + `
		FROM recipients
		WHERE tenant = $1 AND lower(name) LIKE $2 ESCAPE '\'
		ORDER BY name
		LIMIT $3`

	return s.query(ctx, query, t, escapeLike(strings.ToLower(prefix))+"%", limit)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*recipient.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	defer rows.Close()

	out := []*recipient.Recipient{}

	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recipient: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipient rows: %w", err)
	}

	return out, nil
}

func (s *Store) Update(ctx context.Context, r *recipient.Recipient) error {
	query := `
		UPDATE recipients
		SET name = $1, email = $2, phone = $3, bank_name = $4, account_number = $5, ifsc_code = $6,
		    bank_address = $7, state = $8, district = $9, type = $10, updated_at = NOW()
		WHERE id = $11 AND tenant = $12
		RETURNING updated_at
	`

	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, query,
		r.Name, r.Email, r.Phone, r.BankName, r.AccountNumber, r.IFSCCode,
		r.BankAddress, r.State, r.District, r.Type,
		r.ID, r.Tenant,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recipient.ErrNotFound
		}

		return fmt.Errorf("updating recipient: %w", mapError(err))
	}

	r.UpdatedAt = &updatedAt

	return nil
}

func (s *Store) Delete(ctx context.Context, t tenant.Tenant, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = $1 AND tenant = $2`, id, t)
	if err != nil {
		return fmt.Errorf("deleting recipient: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting recipient: %w", err)
	}

	if n == 0 {
		return recipient.ErrNotFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
