package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid json untouched",
			input: `{"entities": [{"value": "Max", "type": "person"}]}`,
			want:  `{"entities": [{"value": "Max", "type": "person"}]}`,
		},
		{
			name:  "missing opening quote after brace",
			input: `{value": "Max"}`,
			want:  `{"value": "Max"}`,
		},
		{
			name:  "missing opening quote after comma",
			input: `{"value": "Max", type": "person"}`,
			want:  `{"value": "Max", "type": "person"}`,
		},
		{
			name:  "plain text untouched",
			input: `not json at all`,
			want:  `not json at all`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairJSON(tt.input))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"entities": []}`, StripCodeFences("```json\n{\"entities\": []}\n```"))
	assert.Equal(t, `{"entities": []}`, StripCodeFences(`{"entities": []}`))
}
