package invoices

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// The structured-block grammar is deliberately narrow: one fenced block
// labeled json, first non-greedy match wins. This is not a markdown parser.
var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

var (
	// ErrNoStructuredBlock means the turn carried no json fence. Non-fatal:
	// callers log it and the turn still succeeds.
	ErrNoStructuredBlock = errors.New("no structured block in assistant response")
	// ErrMalformedStructuredBlock means the fence contents failed to parse
	// or validate. Equally non-fatal.
	ErrMalformedStructuredBlock = errors.New("malformed structured block")
)

// ParseCandidate locates the first fenced json block in the assistant's full
// turn text and decodes it into a candidate invoice.
func ParseCandidate(text string) (Candidate, error) {
	match := jsonFenceRe.FindStringSubmatch(text)
	if match == nil {
		return Candidate{}, ErrNoStructuredBlock
	}
	raw := []byte(match[1])

	if err := validateCandidate(raw); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformedStructuredBlock, err)
	}

	var c Candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformedStructuredBlock, err)
	}
	if c.LineItems == nil {
		c.LineItems = json.RawMessage("[]")
	}
	return c, nil
}
