package usage

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// ErrUnsupportedModel is returned for model keys absent from the encoding
// table. Counting fails closed; there is no default encoding fallback.
var ErrUnsupportedModel = errors.New("no support model")

// Accountant converts text into token counts via a model-specific encoding
// and prices them at a fixed per-token rate. The model->encoding table is
// injected at construction so alternate model sets can be used in tests.
type Accountant struct {
	encodings    map[string]string
	costPerToken float64
}

func NewAccountant(encodings map[string]string, costPerToken float64) *Accountant {
	table := make(map[string]string, len(encodings))
	for k, v := range encodings {
		table[k] = v
	}
	return &Accountant{encodings: table, costPerToken: costPerToken}
}

// CountTokens returns the token count of text under the encoding registered
// for modelKey. Deterministic for identical (text, modelKey) pairs.
func (a *Accountant) CountTokens(text, modelKey string) (int, error) {
	encodingName, ok := a.encodings[modelKey]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelKey)
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", encodingName, err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// Cost prices a token count at the configured rate.
func (a *Accountant) Cost(tokens int) float64 {
	return float64(tokens) * a.costPerToken
}
