package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigurationInstructions is returned in place of a dialog reply when no
// workspace id is configured.
const ConfigurationInstructions = "The app has not been configured with a <b>WORKSPACE_ID</b> environment variable. " +
	"Please refer to the README documentation on how to set this variable. <br>" +
	"Once a workspace has been defined the intents may be imported from the training " +
	"directory in order to get a working application."

// lineBreak separates multi-part output text, matching the markup used for
// the analysis rendering.
const lineBreak = "<br />"

// DialogRequest is one dialog engine turn.
type DialogRequest struct {
	WorkspaceID string          `json:"workspace_id"`
	Context     Context         `json:"context"`
	Input       json.RawMessage `json:"input"`
}

// DialogOutput is the output object of a dialog reply. Fields other than text
// are kept in Extra and written back unchanged.
type DialogOutput struct {
	Text  string
	Extra map[string]json.RawMessage
}

// UnmarshalJSON accepts text as a string or a list of strings; a list is
// joined with line breaks.
func (o *DialogOutput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	o.Text = ""
	if raw, ok := fields["text"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			o.Text = s
		} else {
			var parts []string
			if err := json.Unmarshal(raw, &parts); err != nil {
				return fmt.Errorf("output.text: expected string or list of strings")
			}
			o.Text = strings.Join(parts, lineBreak)
		}
	}
	delete(fields, "text")

	o.Extra = nil
	if len(fields) > 0 {
		o.Extra = fields
	}
	return nil
}

func (o DialogOutput) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(o.Extra)+1)
	for k, v := range o.Extra {
		out[k] = v
	}
	out["text"] = o.Text
	return json.Marshal(out)
}

// DialogReply is the dialog engine response. Top-level fields other than
// output and context (intents, entities, ...) are kept in Extra.
type DialogReply struct {
	Output  *DialogOutput
	Context Context
	Extra   map[string]json.RawMessage
}

func (r *DialogReply) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("dialog reply: %w", err)
	}

	r.Output = nil
	if raw, ok := fields["output"]; ok && !isNull(raw) {
		var out DialogOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		r.Output = &out
	}

	r.Context = nil
	if raw, ok := fields["context"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.Context); err != nil {
			return fmt.Errorf("context: %w", err)
		}
	}

	delete(fields, "output")
	delete(fields, "context")
	r.Extra = nil
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

func (r DialogReply) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+2)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.Output != nil {
		out["output"] = r.Output
	}
	if r.Context != nil {
		out["context"] = r.Context
	}
	return json.Marshal(out)
}

// AppendText adds s to output.text, creating the output object if needed.
func (r *DialogReply) AppendText(s string) {
	if s == "" {
		return
	}
	if r.Output == nil {
		r.Output = &DialogOutput{}
	}
	r.Output.Text += s
}

// InstructionReply is the fixed reply for an unconfigured service.
func InstructionReply() *DialogReply {
	return &DialogReply{
		Output: &DialogOutput{Text: ConfigurationInstructions},
	}
}
