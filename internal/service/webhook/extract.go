package webhook

import (
	"bytes"

	"github.com/tidwall/gjson"

	"gauntlet/internal/domain/services"
)

// DefaultResponseFields is the answer precedence used when none is configured
var DefaultResponseFields = []string{"output", "answer", "response", "result", "message"}

// Extractor reduces a webhook body to displayable text.
//
// A JSON object body yields the first configured field holding a non-empty
// value. Anything else (plain text, arrays, bare strings, objects without a
// known field) is shown as the raw body.
type Extractor struct {
	fields []string
}

// NewExtractor creates an extractor checking fields in order
func NewExtractor(fields []string) *Extractor {
	if len(fields) == 0 {
		fields = DefaultResponseFields
	}
	return &Extractor{fields: fields}
}

// Extract never fails; unknown shapes fall back to the raw text.
// Fields are gjson paths, so "data.answer" reaches into nested objects.
func (e *Extractor) Extract(body []byte) *services.Reply {
	raw := string(body)
	reply := &services.Reply{Text: raw}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !gjson.ValidBytes(trimmed) {
		return reply
	}

	for _, field := range e.fields {
		text, present := renderValue(gjson.GetBytes(trimmed, field))
		if !present {
			continue
		}
		reply.Candidates = append(reply.Candidates, field)
		if reply.Field == "" {
			reply.Field = field
			reply.Text = text
		}
	}

	return reply
}

// renderValue converts a JSON value to text. Missing and falsy values
// (null, false, 0, "") count as absent.
func renderValue(value gjson.Result) (string, bool) {
	switch value.Type {
	case gjson.Null, gjson.False:
		return "", false
	case gjson.String:
		return value.Str, value.Str != ""
	case gjson.Number:
		return value.Raw, value.Num != 0
	case gjson.True:
		return "true", true
	default:
		return value.Raw, value.Exists()
	}
}
