package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRequest_AnalyzerText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing input", `{"context":{}}`, SampleInputText},
		{"null input", `{"input":null}`, SampleInputText},
		{"empty body", `{}`, SampleInputText},
		{"text present", `{"input":{"text":"I want a car"}}`, "I want a car"},
		{"input without text", `{"input":{"intent":"x"}}`, ""},
		{"null text", `{"input":{"text":null}}`, ""},
		{"numeric text", `{"input":{"text":7}}`, ""},
		{"string input", `{"input":"hello"}`, ""},
		{"true input", `{"input":true}`, ""},
		{"empty string input", `{"input":""}`, SampleInputText},
		{"false input", `{"input":false}`, SampleInputText},
		{"zero input", `{"input":0}`, SampleInputText},
		{"negative zero input", `{"input":-0.0}`, SampleInputText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MessageRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.AnalyzerText())
		})
	}
}

func TestMessageRequest_DialogInput(t *testing.T) {
	var req MessageRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.JSONEq(t, `{}`, string(req.DialogInput()))

	require.NoError(t, json.Unmarshal([]byte(`{"input":{"text":"hi","extra":[1,2]}}`), &req))
	assert.JSONEq(t, `{"text":"hi","extra":[1,2]}`, string(req.DialogInput()))

	req = MessageRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"input":"hello"}`), &req))
	assert.JSONEq(t, `"hello"`, string(req.DialogInput()))

	req = MessageRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"input":""}`), &req))
	assert.JSONEq(t, `{}`, string(req.DialogInput()))
}

func TestContext_CloneIsIndependent(t *testing.T) {
	orig := Context{"conversation_id": json.RawMessage(`"abc"`)}
	clone := orig.Clone()
	require.NoError(t, clone.Set("added", 1))

	assert.NotContains(t, orig, "added")
	assert.Equal(t, `"abc"`, string(clone["conversation_id"]))
}

func TestContext_Decode(t *testing.T) {
	ctx := Context{
		"good":  json.RawMessage(`[{"label":"car","score":0.9}]`),
		"wrong": json.RawMessage(`"not a list"`),
		"null":  json.RawMessage(`null`),
	}

	var entities []Entity
	assert.True(t, ctx.Decode("good", &entities))
	assert.Equal(t, []Entity{{Label: "car", Score: 0.9}}, entities)

	assert.False(t, ctx.Decode("wrong", &entities))
	assert.False(t, ctx.Decode("null", &entities))
	assert.False(t, ctx.Decode("missing", &entities))
}

func TestAnalysisResult_MergeInto(t *testing.T) {
	t.Run("only non-empty arrays are added", func(t *testing.T) {
		ctx := Context{"system": json.RawMessage(`{"dialog_stack":["root"]}`)}
		result := &AnalysisResult{
			Entities: []Entity{},
			Keywords: []Keyword{{Text: "car", Relevance: 0.93}},
		}

		require.NoError(t, result.MergeInto(ctx))

		assert.NotContains(t, ctx, ContextKeyEntities)
		assert.NotContains(t, ctx, ContextKeyCategories)
		assert.JSONEq(t, `[{"text":"car","relevance":0.93}]`, string(ctx[ContextKeyKeywords]))
		assert.JSONEq(t, `{"dialog_stack":["root"]}`, string(ctx["system"]))
	})

	t.Run("nil result is a no-op", func(t *testing.T) {
		ctx := Context{}
		var result *AnalysisResult
		require.NoError(t, result.MergeInto(ctx))
		assert.Empty(t, ctx)
		assert.True(t, result.Empty())
	})
}

func TestStripAnalysisKeys(t *testing.T) {
	ctx := Context{
		ContextKeyEntities:   json.RawMessage(`[]`),
		ContextKeyKeywords:   json.RawMessage(`[]`),
		ContextKeyCategories: json.RawMessage(`[]`),
		"conversation_id":    json.RawMessage(`"c1"`),
	}
	StripAnalysisKeys(ctx)
	assert.Equal(t, Context{"conversation_id": json.RawMessage(`"c1"`)}, ctx)
}

func TestAnalyzeRequest_JSON(t *testing.T) {
	data, err := json.Marshal(AnalyzeRequest{Text: "hello", Features: DefaultFeatures()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello","features":{"entities":{},"keywords":{},"categories":{}}}`, string(data))
}

func TestDialogReply_PreservesUnknownFields(t *testing.T) {
	raw := `{
		"intents":[{"intent":"turn_on","confidence":0.98}],
		"output":{"text":"Sure, what kind?","nodes_visited":["node_1"]},
		"context":{"conversation_id":"c1","analysis_entities":[{"label":"car","score":0.9}]}
	}`

	var reply DialogReply
	require.NoError(t, json.Unmarshal([]byte(raw), &reply))

	require.NotNil(t, reply.Output)
	assert.Equal(t, "Sure, what kind?", reply.Output.Text)
	assert.Contains(t, reply.Extra, "intents")
	assert.Contains(t, reply.Output.Extra, "nodes_visited")

	out, err := json.Marshal(reply)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestDialogOutput_TextList(t *testing.T) {
	var reply DialogReply
	require.NoError(t, json.Unmarshal([]byte(`{"output":{"text":["Hello.","How can I help?"]}}`), &reply))
	assert.Equal(t, "Hello.<br />How can I help?", reply.Output.Text)

	err := json.Unmarshal([]byte(`{"output":{"text":42}}`), &reply)
	assert.Error(t, err)
}

func TestDialogReply_AppendText(t *testing.T) {
	reply := &DialogReply{}
	reply.AppendText("")
	assert.Nil(t, reply.Output)

	reply.AppendText("hello")
	reply.AppendText(" world")
	assert.Equal(t, "hello world", reply.Output.Text)
}

func TestInstructionReply_JSON(t *testing.T) {
	data, err := json.Marshal(InstructionReply())
	require.NoError(t, err)

	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ConfigurationInstructions, decoded["output"]["text"])
	assert.Len(t, decoded, 1)
}
