package invoices

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, inv Invoice) error {
	const query = `
INSERT INTO invoices (
    id,
    customer_name,
    vendor_name,
    invoice_number,
    invoice_date,
    due_date,
    amount,
    line_items,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var dueDate sql.NullString
	if inv.DueDate != "" {
		dueDate = sql.NullString{String: inv.DueDate, Valid: true}
	}
	var invoiceDate sql.NullString
	if inv.InvoiceDate != "" {
		invoiceDate = sql.NullString{String: inv.InvoiceDate, Valid: true}
	}
	lineItems := inv.LineItems
	if lineItems == nil {
		lineItems = []byte("[]")
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		inv.ID,
		inv.CustomerName,
		inv.VendorName,
		inv.InvoiceNumber,
		invoiceDate,
		dueDate,
		inv.Amount,
		[]byte(lineItems),
		inv.CreatedAt,
	)
	return err
}

// List returns all invoices ordered by the requested field. The sort field
// is resolved against a fixed allow-list, never interpolated from input.
func (r *PGRepo) List(ctx context.Context, sortField, sortOrder string) ([]Invoice, error) {
	column := "invoice_date"
	switch sortField {
	case SortByAmount:
		column = "amount"
	case SortByVendorName:
		column = "vendor_name"
	}
	direction := "ASC"
	if sortOrder == "desc" {
		direction = "DESC"
	}
	query := `
SELECT id, customer_name, vendor_name, invoice_number, invoice_date, due_date, amount, line_items, created_at
FROM invoices
ORDER BY ` + column + ` ` + direction

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, id string) (Invoice, error) {
	const query = `
SELECT id, customer_name, vendor_name, invoice_number, invoice_date, due_date, amount, line_items, created_at
FROM invoices
WHERE id = $1`
	inv, err := scanInvoice(func(dest ...any) error {
		return r.DB.QueryRowContext(ctx, query, id).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *PGRepo) Update(ctx context.Context, id string, fields UpdateFields) (Invoice, error) {
	const query = `
UPDATE invoices
SET customer_name = $1,
    vendor_name = $2,
    invoice_number = $3,
    invoice_date = $4,
    due_date = $5,
    amount = $6,
    line_items = $7
WHERE id = $8`

	var dueDate sql.NullString
	if fields.DueDate != "" {
		dueDate = sql.NullString{String: fields.DueDate, Valid: true}
	}
	var invoiceDate sql.NullString
	if fields.InvoiceDate != "" {
		invoiceDate = sql.NullString{String: fields.InvoiceDate, Valid: true}
	}
	lineItems := fields.LineItems
	if lineItems == nil {
		lineItems = []byte("[]")
	}

	res, err := r.DB.ExecContext(ctx, query,
		fields.CustomerName,
		fields.VendorName,
		fields.InvoiceNumber,
		invoiceDate,
		dueDate,
		fields.Amount,
		[]byte(lineItems),
		id,
	)
	if err != nil {
		return Invoice{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Invoice{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func scanInvoice(scan func(dest ...any) error) (Invoice, error) {
	var inv Invoice
	var invoiceDate, dueDate sql.NullString
	var lineItems []byte
	err := scan(
		&inv.ID,
		&inv.CustomerName,
		&inv.VendorName,
		&inv.InvoiceNumber,
		&invoiceDate,
		&dueDate,
		&inv.Amount,
		&lineItems,
		&inv.CreatedAt,
	)
	if err != nil {
		return Invoice{}, err
	}
	if invoiceDate.Valid {
		inv.InvoiceDate = invoiceDate.String
	}
	if dueDate.Valid {
		inv.DueDate = dueDate.String
	}
	if len(lineItems) > 0 {
		inv.LineItems = lineItems
	} else {
		inv.LineItems = []byte("[]")
	}
	return inv, nil
}
