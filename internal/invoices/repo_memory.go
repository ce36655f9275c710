package invoices

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for dev and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]Invoice
	inserted []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Invoice)}
}

func (r *MemoryRepo) Create(ctx context.Context, inv Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[inv.ID] = inv
	r.inserted = append(r.inserted, inv.ID)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, sortField, sortOrder string) ([]Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Invoice, 0, len(r.inserted))
	for _, id := range r.inserted {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	less := func(a, b Invoice) bool { return a.InvoiceDate < b.InvoiceDate }
	switch sortField {
	case SortByAmount:
		less = func(a, b Invoice) bool { return a.Amount < b.Amount }
	case SortByVendorName:
		less = func(a, b Invoice) bool { return a.VendorName < b.VendorName }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortOrder == "desc" {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.byID[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fields UpdateFields) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	inv.CustomerName = fields.CustomerName
	inv.VendorName = fields.VendorName
	inv.InvoiceNumber = fields.InvoiceNumber
	inv.InvoiceDate = fields.InvoiceDate
	inv.DueDate = fields.DueDate
	inv.Amount = fields.Amount
	inv.LineItems = fields.LineItems
	r.byID[id] = inv
	return inv, nil
}
