package task

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PartKind discriminates the Part variants.
type PartKind string

const (
	PartText             PartKind = "text"
	PartData             PartKind = "data"
	PartFunctionResponse PartKind = "function_response"
)

// FunctionResponse is the result of a tool call made by a delegated agent.
// The payload of interest lives under Response["result"] and is either a
// scalar or a list.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Values flattens Response["result"] into display strings.
func (f FunctionResponse) Values() []string {
	res, ok := f.Response["result"]
	if !ok || res == nil {
		return nil
	}
	switch list := res.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, stringify(v))
		}
		return out
	case []string:
		return append([]string(nil), list...)
	}
	return []string{stringify(res)}
}

// Part is one ordered element of a message or artifact. Exactly one of
// Text, Data or Function is meaningful, selected by Kind.
type Part struct {
	Kind     PartKind
	Text     string
	Data     map[string]any
	Function *FunctionResponse
	Metadata map[string]any
}

// TextPart returns a text part.
func TextPart(text string) Part { return Part{Kind: PartText, Text: text} }

// DataPart returns a structured data part.
func DataPart(data map[string]any) Part { return Part{Kind: PartData, Data: data} }

// FunctionResponsePart returns a function response part carrying result.
func FunctionResponsePart(name string, result any) Part {
	return Part{
		Kind:     PartFunctionResponse,
		Function: &FunctionResponse{Name: name, Response: map[string]any{"result": result}},
	}
}

type partJSON struct {
	Type     string            `json:"type,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Text     *string           `json:"text,omitempty"`
	Data     map[string]any    `json:"data,omitempty"`
	Function *FunctionResponse `json:"function_response,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// MarshalJSON writes {"type": kind, <kind field>: value}.
func (p Part) MarshalJSON() ([]byte, error) {
	out := partJSON{Type: string(p.Kind), Metadata: p.Metadata}
	switch p.Kind {
	case PartText:
		text := p.Text
		out.Text = &text
	case PartData:
		out.Data = p.Data
		if out.Data == nil {
			out.Data = map[string]any{}
		}
	case PartFunctionResponse:
		if p.Function == nil {
			return nil, fmt.Errorf("function_response part without payload")
		}
		out.Function = p.Function
	default:
		return nil, fmt.Errorf("unknown part kind %q", p.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the discriminator under "type" or "kind" and infers
// it from the populated field when absent.
func (p *Part) UnmarshalJSON(b []byte) error {
	var in partJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	kind := in.Type
	if kind == "" {
		kind = in.Kind
	}
	if kind == "" {
		switch {
		case in.Text != nil:
			kind = string(PartText)
		case in.Function != nil:
			kind = string(PartFunctionResponse)
		case in.Data != nil:
			kind = string(PartData)
		}
	}

	*p = Part{Kind: PartKind(kind), Metadata: in.Metadata}
	switch p.Kind {
	case PartText:
		if in.Text != nil {
			p.Text = *in.Text
		}
	case PartData:
		p.Data = in.Data
	case PartFunctionResponse:
		if in.Function == nil {
			return fmt.Errorf("function_response part without payload")
		}
		p.Function = in.Function
	default:
		return fmt.Errorf("unknown part type %q", kind)
	}
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
