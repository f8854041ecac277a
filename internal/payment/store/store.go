package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

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

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectBatchColumns = `
	b.id, b.tenant, b.method, b.utr_no, b.bank_name, b.sender_account_number,
	b.amount, b.transaction_date, b.created_at, b.updated_at
`

// scanBatch expects the column order of selectBatchColumns.
func scanBatch(s scanner) (*payment.Batch, error) {
	var b payment.Batch

	var tenantStr, methodStr string

	if err := s.Scan(
		&b.ID, &tenantStr, &methodStr, &b.UTR, &b.BankName, &b.SenderAccountNumber,
		&b.Amount, &b.TransactionDate, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.Tenant = tenant.Tenant(tenantStr)
	b.Method = payment.Method(methodStr)

	return &b, nil
}

const selectLineColumns = `
	l.id, l.batch_id, l.ref_no, l.recipient_name, l.recipient_email, l.recipient_address,
	l.phone, l.account_number, l.ifsc_code, l.date, l.invoice_no, l.invoice_date, l.particulars,
	l.gross_amount, l.tds, l.other_deductions, l.net_amount, l.status, l.version,
	l.created_at, l.updated_at
`

// scanLine expects the column order of selectLineColumns.
func scanLine(s scanner) (*payment.Line, uuid.UUID, error) {
	var l payment.Line

	var batchID uuid.UUID

	var statusStr string

	if err := s.Scan(
		&l.ID, &batchID, &l.RefNo, &l.RecipientName, &l.RecipientEmail, &l.RecipientAddress,
		&l.Phone, &l.AccountNumber, &l.IFSCCode, &l.Date, &l.InvoiceNo, &l.InvoiceDate, &l.Particulars,
		&l.GrossAmount, &l.TDS, &l.OtherDeductions, &l.NetAmount, &statusStr, &l.Version,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, uuid.Nil, err
	}

	l.Status = payment.Status(statusStr)

	return &l, batchID, nil
}

const selectAdditionalColumns = `
	a.id, a.line_id, a.invoice_no, a.invoice_date, a.particulars,
	a.gross_amount, a.tds, a.other_deductions, a.net_amount
`

func scanAdditional(s scanner) (payment.AdditionalInvoice, uuid.UUID, error) {
	var a payment.AdditionalInvoice

	var lineID uuid.UUID

	err := s.Scan(
		&a.ID, &lineID, &a.InvoiceNo, &a.InvoiceDate, &a.Particulars,
		&a.GrossAmount, &a.TDS, &a.OtherDeductions, &a.NetAmount,
	)

	return a, lineID, err
}

func (s *Store) CreateBatch(ctx context.Context, b *payment.Batch) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_batches (id, tenant, method, utr_no, bank_name, sender_account_number, amount, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		b.ID,
		b.Tenant,
		b.Method,
		b.UTR,
		b.BankName,
		b.SenderAccountNumber,
		b.Amount,
		b.TransactionDate,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating batch: %w", err)
	}

	for i, l := range b.Lines {
		if err := insertLine(ctx, dbTx, b.ID, i, l); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertLine(ctx context.Context, q querier, batchID uuid.UUID, position int, l *payment.Line) error {
	query := `
		INSERT INTO invoice_lines (
			id, batch_id, position, ref_no, recipient_name, recipient_email, recipient_address,
			phone, account_number, ifsc_code, date, invoice_no, invoice_date, particulars,
			gross_amount, tds, other_deductions, net_amount, status, version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 1, NOW())
		RETURNING version, created_at
	`

	err := q.QueryRowContext(ctx, query,
		l.ID, batchID, position, l.RefNo, l.RecipientName, l.RecipientEmail, l.RecipientAddress,
		l.Phone, l.AccountNumber, l.IFSCCode, l.Date, l.InvoiceNo, l.InvoiceDate, l.Particulars,
		l.GrossAmount, l.TDS, l.OtherDeductions, l.NetAmount, l.Status,
	).Scan(&l.Version, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating invoice line: %w", err)
	}

	return insertAdditional(ctx, q, l)
}

func insertAdditional(ctx context.Context, q querier, l *payment.Line) error {
	query := `
		INSERT INTO additional_invoices (
			id, line_id, position, invoice_no, invoice_date, particulars,
			gross_amount, tds, other_deductions, net_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i, a := range l.Additional() {
		if _, err := q.ExecContext(ctx, query,
			a.ID, l.ID, i, a.InvoiceNo, a.InvoiceDate, a.Particulars,
			a.GrossAmount, a.TDS, a.OtherDeductions, a.NetAmount,
		); err != nil {
			return fmt.Errorf("creating additional invoice: %w", err)
		}
	}

	return nil
}

func (s *Store) GetBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*payment.Batch, error) {
	batches, err := s.loadBatches(ctx, s.db, `b.tenant = $1 AND b.id = $2`, t, id)
	if err != nil {
		return nil, err
	}

	if len(batches) == 0 {
		return nil, payment.ErrNotFound
	}

	return batches[0], nil
}

func (s *Store) ListBatches(ctx context.Context, t tenant.Tenant) ([]*payment.Batch, error) {
	return s.loadBatches(ctx, s.db, `b.tenant = $1`, t)
}

// FindLine resolves the owning batch through the line and the tenant in a
// single join, so a line belonging to another tenant is indistinguishable
// from a missing one.
func (s *Store) FindLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) (*payment.Batch, error) {
	query := `
		SELECT l.batch_id
		FROM invoice_lines l
		JOIN payment_batches b ON b.id = l.batch_id
		WHERE l.id = $1 AND b.tenant = $2
	`

	var batchID uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, lineID, t).Scan(&batchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("finding invoice line: %w", err)
	}

	return s.GetBatch(ctx, t, batchID)
}

// loadBatches reads the batches matching where (which may only reference the
// b alias) together with their lines and additional invoices.
func (s *Store) loadBatches(ctx context.Context, q querier, where string, args ...any) ([]*payment.Batch, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+selectBatchColumns+`
		FROM payment_batches b
		WHERE `+where+`
		ORDER BY b.transaction_date DESC, b.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []*payment.Batch

	byID := make(map[uuid.UUID]*payment.Batch)

	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}

		batches = append(batches, b)
		byID[b.ID] = b
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}

	if len(batches) == 0 {
		return nil, nil
	}

	lines, err := loadLines(ctx, q, where, args...)
	if err != nil {
		return nil, err
	}

	for _, ll := range lines {
		if b, ok := byID[ll.batchID]; ok {
			b.Lines = append(b.Lines, ll.line)
		}
	}

	return batches, nil
}

type loadedLine struct {
	line    *payment.Line
	batchID uuid.UUID
}

func loadLines(ctx context.Context, q querier, where string, args ...any) ([]loadedLine, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+selectLineColumns+`
		FROM invoice_lines l
		JOIN payment_batches b ON b.id = l.batch_id
		WHERE `+where+`
		ORDER BY l.batch_id, l.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []loadedLine

	byID := make(map[uuid.UUID]*payment.Line)

	for rows.Next() {
		l, batchID, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice line: %w", err)
		}

		lines = append(lines, loadedLine{line: l, batchID: batchID})
		byID[l.ID] = l
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice line rows: %w", err)
	}

	addRows, err := q.QueryContext(ctx, `SELECT `+selectAdditionalColumns+`
		FROM additional_invoices a
		JOIN invoice_lines l ON l.id = a.line_id
		JOIN payment_batches b ON b.id = l.batch_id
		WHERE `+where+`
		ORDER BY a.line_id, a.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing additional invoices: %w", err)
	}
	defer addRows.Close()

	for addRows.Next() {
		a, lineID, err := scanAdditional(addRows)
		if err != nil {
			return nil, fmt.Errorf("scanning additional invoice: %w", err)
		}

		if l, ok := byID[lineID]; ok {
			l.AddAdditional(a)
		}
	}

	if err := addRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating additional invoice rows: %w", err)
	}

	return lines, nil
}

func (s *Store) DeleteBatch(ctx context.Context, t tenant.Tenant, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payment_batches WHERE id = $1 AND tenant = $2`, id, t)
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}

	return expectOne(res, "deleting batch")
}

func (s *Store) FindDuplicateRefs(
	ctx context.Context, t tenant.Tenant, refNos, invoiceNos []string, exclude uuid.UUID,
) ([]string, error) {
	if refNos == nil {
		refNos = []string{}
	}

	if invoiceNos == nil {
		invoiceNos = []string{}
	}

	query := `
		SELECT l.ref_no, l.invoice_no
		FROM invoice_lines l
		JOIN payment_batches b ON b.id = l.batch_id
		WHERE b.tenant = $1
		  AND l.id <> $4
		  AND (l.ref_no = ANY($2) OR l.invoice_no = ANY($3))
	`

	rows, err := s.db.QueryContext(ctx, query, t, refNos, invoiceNos, exclude)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	wantRef := toSet(refNos)
	wantInv := toSet(invoiceNos)
	found := make(map[string]struct{})

	for rows.Next() {
		var ref, inv string
		if err := rows.Scan(&ref, &inv); err != nil {
			return nil, fmt.Errorf("scanning duplicate: %w", err)
		}

		if _, ok := wantRef[ref]; ok {
			found["ref no "+ref] = struct{}{}
		}

		if _, ok := wantInv[inv]; ok {
			found["invoice no "+inv] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	dups := make([]string, 0, len(found))
	for k := range found {
		dups = append(dups, k)
	}

	return dups, nil
}

func (s *Store) UpdateLineStatus(ctx context.Context, t tenant.Tenant, line *payment.Line) error {
	query := `
		UPDATE invoice_lines l
		SET status = $1, version = l.version + 1, updated_at = NOW()
		FROM payment_batches b
		WHERE b.id = l.batch_id AND l.id = $2 AND b.tenant = $3 AND l.version = $4
		RETURNING l.version, l.updated_at
	`

	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, query, line.Status, line.ID, t, line.Version).Scan(&line.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missingOrConflict(ctx, s.db, t, line.ID)
		}

		return fmt.Errorf("updating status: %w", err)
	}

	line.UpdatedAt = &updatedAt

	return nil
}

// UpdateLine rewrites the line and its additional invoices, provided nobody
// else has written it since line.Version was read.
func (s *Store) UpdateLine(ctx context.Context, t tenant.Tenant, line *payment.Line) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE invoice_lines l
		SET ref_no = $1, recipient_name = $2, recipient_email = $3, recipient_address = $4,
		    phone = $5, account_number = $6, ifsc_code = $7, date = $8, invoice_no = $9,
		    invoice_date = $10, particulars = $11, gross_amount = $12, tds = $13,
		    other_deductions = $14, net_amount = $15,
		    version = l.version + 1, updated_at = NOW()
		FROM payment_batches b
		WHERE b.id = l.batch_id AND l.id = $16 AND b.tenant = $17 AND l.version = $18
		RETURNING l.version, l.updated_at
	`

	var updatedAt time.Time

	err = dbTx.QueryRowContext(ctx, query,
		line.RefNo, line.RecipientName, line.RecipientEmail, line.RecipientAddress,
		line.Phone, line.AccountNumber, line.IFSCCode, line.Date, line.InvoiceNo,
		line.InvoiceDate, line.Particulars, line.GrossAmount, line.TDS,
		line.OtherDeductions, line.NetAmount,
		line.ID, t, line.Version,
	).Scan(&line.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missingOrConflict(ctx, dbTx, t, line.ID)
		}

		return fmt.Errorf("updating invoice line: %w", err)
	}

	line.UpdatedAt = &updatedAt

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM additional_invoices WHERE line_id = $1`, line.ID); err != nil {
		return fmt.Errorf("clearing additional invoices: %w", err)
	}

	if err := insertAdditional(ctx, dbTx, line); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) missingOrConflict(ctx context.Context, q querier, t tenant.Tenant, lineID uuid.UUID) error {
	var exists bool

	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invoice_lines l
			JOIN payment_batches b ON b.id = l.batch_id
			WHERE l.id = $1 AND b.tenant = $2
		)`, lineID, t).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking invoice line: %w", err)
	}

	if exists {
		return payment.ErrConflict
	}

	return payment.ErrNotFound
}

func (s *Store) DeleteLine(ctx context.Context, t tenant.Tenant, lineID uuid.UUID) error {
	query := `
		DELETE FROM invoice_lines l
		USING payment_batches b
		WHERE b.id = l.batch_id AND l.id = $1 AND b.tenant = $2
	`

	res, err := s.db.ExecContext(ctx, query, lineID, t)
	if err != nil {
		return fmt.Errorf("deleting invoice line: %w", err)
	}

	return expectOne(res, "deleting invoice line")
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return payment.ErrNotFound
	}

	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}
