package invoices

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an invoice id does not exist.
var ErrNotFound = errors.New("invoice not found")

// Sort fields accepted by List. Anything else falls back to invoiceDate.
const (
	SortByInvoiceDate = "invoiceDate"
	SortByAmount      = "amount"
	SortByVendorName  = "vendorName"
)

// Repo defines persistence operations for invoices.
type Repo interface {
	Create(ctx context.Context, inv Invoice) error
	List(ctx context.Context, sortField, sortOrder string) ([]Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	Update(ctx context.Context, id string, fields UpdateFields) (Invoice, error)
}
