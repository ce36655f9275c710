package invoices

import (
	"encoding/json"
	"time"
)

// Invoice is a persisted structured invoice record. The id is assigned at
// persistence time, never by the model.
type Invoice struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	VendorName    string          `json:"vendorName"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   string          `json:"invoiceDate"`
	DueDate       string          `json:"dueDate"`
	Amount        float64         `json:"amount"`
	LineItems     json.RawMessage `json:"lineItems"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Candidate is an invoice parsed out of a model turn, carrying the
// model-asserted duplicate flag. It only becomes an Invoice when the flag is
// false and the identifying fields are present.
type Candidate struct {
	CustomerName  string          `json:"customerName"`
	VendorName    string          `json:"vendorName"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   string          `json:"invoiceDate"`
	DueDate       string          `json:"dueDate"`
	Amount        float64         `json:"amount"`
	LineItems     json.RawMessage `json:"lineItems"`
	IsDuplicate   bool            `json:"isDuplicate"`
}

// UpdateFields is the recognized field set accepted by the update endpoint.
type UpdateFields struct {
	CustomerName  string          `json:"customerName"`
	VendorName    string          `json:"vendorName"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   string          `json:"invoiceDate"`
	DueDate       string          `json:"dueDate"`
	Amount        float64         `json:"amount"`
	LineItems     json.RawMessage `json:"lineItems"`
}
