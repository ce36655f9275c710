package invoices

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// candidateSchema constrains the model-emitted object before it is eligible
// for persistence: the duplicate flag plus the identifying fields.
const candidateSchema = `{
  "type": "object",
  "properties": {
    "customerName": {"type": "string", "minLength": 1},
    "vendorName": {"type": "string", "minLength": 1},
    "invoiceNumber": {"type": "string", "minLength": 1},
    "invoiceDate": {"type": ["string", "null"]},
    "dueDate": {"type": ["string", "null"]},
    "amount": {"type": "number"},
    "lineItems": {"type": "array"},
    "isDuplicate": {"type": "boolean"}
  },
  "required": ["customerName", "vendorName", "invoiceNumber", "amount", "isDuplicate"]
}`

var compiledCandidateSchema = jsonschema.MustCompileString("candidate.json", candidateSchema)

func validateCandidate(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiledCandidateSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
