package messagerelay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"conversation-relay/internal/models"
)

func TestRenderAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		context  models.Context
		expected string
	}{
		{
			name:     "nil context",
			context:  nil,
			expected: "",
		},
		{
			name:     "no analysis keys",
			context:  models.Context{"conversation_id": json.RawMessage(`"c1"`)},
			expected: "",
		},
		{
			name: "all sections in fixed order",
			context: models.Context{
				models.ContextKeyCategories: json.RawMessage(`[{"label":"/autos","score":0.61}]`),
				models.ContextKeyKeywords:   json.RawMessage(`[{"text":"car","relevance":0.98},{"text":"want","relevance":0.2}]`),
				models.ContextKeyEntities:   json.RawMessage(`[{"label":"car","score":0.9}]`),
			},
			expected: "<br /><strong>NLU API Entities:</strong><br />car (score: 0.9),<br />" +
				"<br /><strong>NLU API Keywords:</strong><br />car (relevance: 0.98),<br />want (relevance: 0.2),<br />" +
				"<br /><strong>NLU API Categories:</strong><br />/autos (score: 0.61),<br />",
		},
		{
			name: "empty and null arrays are skipped",
			context: models.Context{
				models.ContextKeyEntities:   json.RawMessage(`[]`),
				models.ContextKeyKeywords:   json.RawMessage(`null`),
				models.ContextKeyCategories: json.RawMessage(`[{"label":"/news","score":1}]`),
			},
			expected: "<br /><strong>NLU API Categories:</strong><br />/news (score: 1),<br />",
		},
		{
			name: "malformed section is skipped",
			context: models.Context{
				models.ContextKeyEntities: json.RawMessage(`"car"`),
				models.ContextKeyKeywords: json.RawMessage(`[{"text":"car","relevance":0.5}]`),
			},
			expected: "<br /><strong>NLU API Keywords:</strong><br />car (relevance: 0.5),<br />",
		},
		{
			name: "small scores keep full precision",
			context: models.Context{
				models.ContextKeyEntities: json.RawMessage(`[{"label":"Paris","score":0.000123}]`),
			},
			expected: "<br /><strong>NLU API Entities:</strong><br />Paris (score: 0.000123),<br />",
		},
		{
			name: "tiny scores use exponent form",
			context: models.Context{
				models.ContextKeyEntities: json.RawMessage(`[{"label":"Paris","score":1e-7}]`),
			},
			expected: "<br /><strong>NLU API Entities:</strong><br />Paris (score: 1e-7),<br />",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderAnalysis(tt.context))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{0.9, "0.9"},
		{0.000001, "0.000001"},
		{0.0000001, "1e-7"},
		{0.00000015, "1.5e-7"},
		{1e-10, "1e-10"},
		{123456789, "123456789"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e22, "1.5e+22"},
		{-0.25, "-0.25"},
		{-1e-7, "-1e-7"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.in))
		})
	}
}

func TestConfig_Configured(t *testing.T) {
	assert.True(t, (&Config{WorkspaceID: "ws-1"}).Configured())
	assert.False(t, (&Config{}).Configured())
	assert.False(t, (&Config{WorkspaceID: "<workspace-id>"}).Configured())

	var nilConfig *Config
	assert.False(t, nilConfig.Configured())
}
