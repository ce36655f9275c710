package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"

	"invoice-backend/internal/shared/metrics"
	"invoice-backend/internal/shared/telemetry"
)

// Service applies the duplicate gate and forwards accepted candidates to the
// repo. Persistence failures are logged and swallowed: the conversational
// response already streamed to the user is never affected.
type Service struct {
	Repo Repo
}

// Existing returns the current invoice set for use as dedup context in the
// extraction prompt. Queried fresh per request; holding this across requests
// would let the model miss invoices saved in between.
func (s *Service) Existing(ctx context.Context) ([]Invoice, error) {
	return s.Repo.List(ctx, SortByInvoiceDate, "asc")
}

// SaveCandidate decides the candidate's fate. A model-asserted duplicate is
// discarded. Otherwise a fresh id is assigned and exactly the recognized
// field set is forwarded to the repo.
func (s *Service) SaveCandidate(ctx context.Context, chatID string, c Candidate) {
	if c.IsDuplicate {
		metrics.IncInvoiceDuplicate()
		telemetry.Info("invoices.duplicate.discarded", map[string]any{
			"chat_id":        chatID,
			"vendor_name":    c.VendorName,
			"invoice_number": c.InvoiceNumber,
		})
		return
	}

	s.auditDuplicateFlag(ctx, c)

	inv := Invoice{
		ID:            uuid.NewString(),
		CustomerName:  c.CustomerName,
		VendorName:    c.VendorName,
		InvoiceNumber: c.InvoiceNumber,
		InvoiceDate:   c.InvoiceDate,
		DueDate:       c.DueDate,
		Amount:        c.Amount,
		LineItems:     c.LineItems,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, inv); err != nil {
		telemetry.Error("invoices.save.failed", map[string]any{
			"chat_id": chatID,
			"err":     err.Error(),
		})
		return
	}
	metrics.IncInvoiceSaved()
	telemetry.Info("invoices.saved", map[string]any{
		"chat_id":        chatID,
		"invoice_id":     inv.ID,
		"vendor_name":    inv.VendorName,
		"invoice_number": inv.InvoiceNumber,
	})
}

// auditDuplicateFlag logs when the model cleared isDuplicate but a stored
// invoice already carries the same vendor and number. Observational only:
// the model's flag stays authoritative.
func (s *Service) auditDuplicateFlag(ctx context.Context, c Candidate) {
	existing, err := s.Repo.List(ctx, SortByInvoiceDate, "asc")
	if err != nil {
		return
	}
	for _, inv := range existing {
		if inv.VendorName == c.VendorName && inv.InvoiceNumber == c.InvoiceNumber {
			telemetry.Error("invoices.duplicate.flag_mismatch", map[string]any{
				"vendor_name":    c.VendorName,
				"invoice_number": c.InvoiceNumber,
				"existing_id":    inv.ID,
			})
			return
		}
	}
}
