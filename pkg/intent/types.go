package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Intent tags as emitted by the classifier.
const (
	TypeAdd              = "ADD"
	TypeRemove           = "REMOVE"
	TypeSelect           = "SELECT"
	TypeRemoveFromBasket = "REMOVE_FROM_BASKET"
	TypeClear            = "CLEAR"
	TypeConfirm          = "CONFIRM"
)

// Result is the classified purpose of one utterance. Only the fields relevant
// to the tagged Type are populated.
type Result struct {
	Type string `json:"intent"`

	// ADD
	SearchCriteria string `json:"search_criteria,omitempty"`
	NewSearch      bool   `json:"new_search,omitempty"`

	// REMOVE
	RemoveItems []string `json:"remove_items,omitempty"`

	// SELECT
	SelectItems []string       `json:"select_items,omitempty"`
	Quantities  map[string]int `json:"quantities,omitempty"` // optional, keyed by item name

	// REMOVE_FROM_BASKET
	RemoveFromBasket []string `json:"remove_from_basket,omitempty"`
}

func validType(t string) bool {
	switch t {
	case TypeAdd, TypeRemove, TypeSelect, TypeRemoveFromBasket, TypeClear, TypeConfirm:
		return true
	}
	return false
}

// ParseResult extracts a Result from raw LLM output. Models wrap JSON in
// markdown fences or prose more often than not, so we strip fences and cut to
// the outermost brace pair before unmarshalling.
func ParseResult(response string) (*Result, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in classifier output: %q", response)
	}
	cleaned = cleaned[jsonStart : jsonEnd+1]

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("unparseable classifier output: %w", err)
	}

	result.Type = strings.ToUpper(strings.TrimSpace(result.Type))
	if !validType(result.Type) {
		return nil, fmt.Errorf("unknown intent %q", result.Type)
	}

	return &result, nil
}
