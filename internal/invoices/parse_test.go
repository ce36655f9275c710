package invoices

import (
	"context"
	"errors"
	"testing"
)

func TestParseCandidateHappyPath(t *testing.T) {
	text := "Here is what I found.\n\n```json\n{\"customerName\":\"Bob\",\"vendorName\":\"Acme\",\"invoiceNumber\":\"1042\",\"amount\":450.00,\"isDuplicate\":false,\"lineItems\":[]}\n```\nLet me know if anything looks off."

	c, err := ParseCandidate(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.CustomerName != "Bob" || c.VendorName != "Acme" || c.InvoiceNumber != "1042" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Amount != 450.00 {
		t.Fatalf("expected amount 450, got %v", c.Amount)
	}
	if c.IsDuplicate {
		t.Fatal("expected isDuplicate false")
	}
}

func TestParseCandidateNoBlock(t *testing.T) {
	_, err := ParseCandidate("Just a normal chat reply with no code at all.")
	if !errors.Is(err, ErrNoStructuredBlock) {
		t.Fatalf("expected ErrNoStructuredBlock, got %v", err)
	}
}

func TestParseCandidateMalformedJSON(t *testing.T) {
	_, err := ParseCandidate("```json\n{not valid json\n```")
	if !errors.Is(err, ErrMalformedStructuredBlock) {
		t.Fatalf("expected ErrMalformedStructuredBlock, got %v", err)
	}
}

func TestParseCandidateSchemaRejectsMissingFlag(t *testing.T) {
	_, err := ParseCandidate("```json\n{\"customerName\":\"Bob\",\"vendorName\":\"Acme\",\"invoiceNumber\":\"1\",\"amount\":1}\n```")
	if !errors.Is(err, ErrMalformedStructuredBlock) {
		t.Fatalf("expected schema rejection, got %v", err)
	}
}

func TestParseCandidateFirstFenceWins(t *testing.T) {
	text := "```json\n{\"customerName\":\"A\",\"vendorName\":\"V1\",\"invoiceNumber\":\"1\",\"amount\":1,\"isDuplicate\":false}\n```\n" +
		"```json\n{\"customerName\":\"B\",\"vendorName\":\"V2\",\"invoiceNumber\":\"2\",\"amount\":2,\"isDuplicate\":true}\n```"

	c, err := ParseCandidate(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.VendorName != "V1" {
		t.Fatalf("expected first fence to win, got %+v", c)
	}
}

func TestSaveCandidateDuplicateNeverPersisted(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}

	svc.SaveCandidate(context.Background(), "chat-1", Candidate{
		CustomerName:  "Bob",
		VendorName:    "Acme",
		InvoiceNumber: "1042",
		Amount:        450,
		IsDuplicate:   true,
	})

	all, err := repo.List(context.Background(), SortByInvoiceDate, "asc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("duplicate candidate must not be persisted, got %d rows", len(all))
	}
}

func TestSaveCandidateAssignsFreshID(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}

	svc.SaveCandidate(context.Background(), "chat-1", Candidate{
		CustomerName:  "Bob",
		VendorName:    "Acme",
		InvoiceNumber: "1042",
		Amount:        450,
	})

	all, err := repo.List(context.Background(), SortByInvoiceDate, "asc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(all))
	}
	if all[0].ID == "" {
		t.Fatal("expected a generated id")
	}
	if all[0].VendorName != "Acme" || all[0].Amount != 450 {
		t.Fatalf("unexpected stored invoice: %+v", all[0])
	}
}

func TestMemoryRepoSorting(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	for _, inv := range []Invoice{
		{ID: "1", VendorName: "Zeta", Amount: 10, InvoiceDate: "2025-01-03"},
		{ID: "2", VendorName: "Acme", Amount: 30, InvoiceDate: "2025-01-01"},
		{ID: "3", VendorName: "Mid", Amount: 20, InvoiceDate: "2025-01-02"},
	} {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byAmount, _ := repo.List(ctx, SortByAmount, "desc")
	if byAmount[0].Amount != 30 {
		t.Fatalf("expected desc amount sort, got %+v", byAmount)
	}
	byVendor, _ := repo.List(ctx, SortByVendorName, "asc")
	if byVendor[0].VendorName != "Acme" {
		t.Fatalf("expected asc vendor sort, got %+v", byVendor)
	}
	byDefault, _ := repo.List(ctx, "bogus", "asc")
	if byDefault[0].InvoiceDate != "2025-01-01" {
		t.Fatalf("expected invoiceDate fallback sort, got %+v", byDefault)
	}
}
