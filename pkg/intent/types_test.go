package intent

import (
	"testing"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantType   string
		wantErr    bool
		wantSelect []string
	}{
		{
			name:     "plain JSON",
			response: `{"intent": "ADD", "search_criteria": "burger", "new_search": true}`,
			wantType: TypeAdd,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"intent\": \"CLEAR\"}\n```",
			wantType: TypeClear,
		},
		{
			name:       "wrapped in prose",
			response:   `Sure! Here is the result: {"intent": "SELECT", "select_items": ["Big Mac"]} Hope that helps.`,
			wantType:   TypeSelect,
			wantSelect: []string{"Big Mac"},
		},
		{
			name:     "lowercase intent tag",
			response: `{"intent": "confirm"}`,
			wantType: TypeConfirm,
		},
		{
			name:     "unknown intent",
			response: `{"intent": "ORDER_PIZZA"}`,
			wantErr:  true,
		},
		{
			name:     "no JSON at all",
			response: `I could not determine the intent.`,
			wantErr:  true,
		},
		{
			name:     "broken JSON",
			response: `{"intent": "ADD", "search_criteria": `,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResult(tt.response)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseResult() expected error, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResult() error = %v", err)
			}
			if result.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", result.Type, tt.wantType)
			}
			if len(tt.wantSelect) > 0 {
				if len(result.SelectItems) != len(tt.wantSelect) || result.SelectItems[0] != tt.wantSelect[0] {
					t.Errorf("SelectItems = %v, want %v", result.SelectItems, tt.wantSelect)
				}
			}
		})
	}
}

func TestParseResultQuantities(t *testing.T) {
	result, err := ParseResult(`{"intent": "SELECT", "select_items": ["McSundae"], "quantities": {"McSundae": 2}}`)
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if result.Quantities["McSundae"] != 2 {
		t.Errorf("Quantities = %v, want McSundae=2", result.Quantities)
	}
}
