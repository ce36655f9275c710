package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	inv := Invoice{
		ID:            "inv-1",
		CustomerName:  "Bob",
		VendorName:    "Acme",
		InvoiceNumber: "1042",
		InvoiceDate:   "2025-02-01",
		Amount:        450,
		LineItems:     []byte("[]"),
		CreatedAt:     time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, customer_name").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListSortAllowList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "customer_name", "vendor_name", "invoice_number", "invoice_date", "due_date", "amount", "line_items", "created_at"}
	mock.ExpectQuery("ORDER BY invoice_date ASC").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("inv-1", "Bob", "Acme", "1042", "2025-02-01", nil, 450.0, []byte("[]"), time.Now()))

	repo := &PGRepo{DB: db}
	// Unknown sort fields must fall back to invoice_date, never reach SQL raw.
	out, err := repo.List(context.Background(), "drop table", "asc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].VendorName != "Acme" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
