package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

var (
	//go:embed prompts/system.txt
	systemPromptText string
	//go:embed prompts/invoice_extraction.txt
	invoiceExtractionTemplate string
)

// SystemPrompt is the default conversational system prompt for turns without
// document text.
func SystemPrompt() string {
	return systemPromptText
}

// InvoiceExtractionPrompt builds the system prompt for a document-extraction
// turn. existingInvoices is serialized into the prompt so the model can flag
// duplicates; it must be re-queried per request, never cached across requests.
func InvoiceExtractionPrompt(documentText string, existingInvoices any) string {
	existing, err := json.Marshal(existingInvoices)
	if err != nil {
		existing = []byte("[]")
	}
	return fmt.Sprintf(invoiceExtractionTemplate, documentText, string(existing))
}

// TitlePrompt asks for a short chat title derived from the first user message.
func TitlePrompt() string {
	return "Generate a short title (at most 80 characters, no quotes or colons) summarizing the user's message."
}
