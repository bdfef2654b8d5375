package instrument

import (
	"encoding/json"
	"net/http"
	"strings"
)

const masked = "***"

// phoneKeys hold values that are partially masked when they look like a
// phone number, so support can still match a log line to a subscriber.
var phoneKeys = map[string]struct{}{
	"phone_number": {},
	"phone":        {},
	"recipient":    {},
	"identifier":   {},
}

// Masker hides secrets in log payloads. Keys are matched case-insensitively.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker that fully hides the given field names.
func NewMasker(fields []string) *Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return &Masker{keys: keys}
}

// Empty reports whether the Masker hides no field at all.
func (m *Masker) Empty() bool {
	return m == nil || len(m.keys) == 0
}

// Hidden reports whether values under key are fully masked.
func (m *Masker) Hidden(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Field returns the loggable form of value stored under key.
func (m *Masker) Field(key string, value any) any {
	if m.Hidden(key) {
		return masked
	}
	if _, ok := phoneKeys[strings.ToLower(key)]; ok {
		if s, ok := value.(string); ok && looksLikePhone(s) {
			return MaskPhone(s)
		}
	}
	return m.Value(value)
}

// Value walks decoded JSON (maps, slices and scalars) and masks every key.
func (m *Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = m.Field(k, v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = m.Field(k, v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Value(v2)
		}
		return out
	default:
		return v
	}
}

// JSON masks a JSON document. ok is false when payload is not a JSON object or array.
func (m *Masker) JSON(payload []byte) (any, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, false
	}
	return m.Value(body), true
}

// Header returns a copy of h with masked header values replaced.
func (m *Masker) Header(h http.Header) http.Header {
	if m.Empty() {
		return h
	}
	out := h.Clone()
	for key := range out {
		if _, ok := m.keys[strings.ToLower(key)]; ok {
			out.Set(key, masked)
		}
	}
	return out
}

// MaskPhone keeps the first and last two digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

func looksLikePhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
