package audit

// RedactionMarker replaces the value of any sensitive key before storage.
const RedactionMarker = "[REDACTED]"

// sensitiveKeys is the fixed set of detail keys whose values are always
// redacted. Matching is case-sensitive and applies to top-level keys.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"token":            {},
	"secret":           {},
	"key":              {},
	"apiKey":           {},
	"credential":       {},
	"accessToken":      {},
	"refreshToken":     {},
	"privateKey":       {},
	"connectionString": {},
	"passphrase":       {},
}

// IsSensitiveKey reports whether the key is in the fixed sensitive set.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[key]
	return ok
}

// SensitiveKeys returns the configured sensitive-key set.
func SensitiveKeys() []string {
	keys := make([]string, 0, len(sensitiveKeys))
	for k := range sensitiveKeys {
		keys = append(keys, k)
	}
	return keys
}

// Sanitize returns a copy of details with every sensitive top-level key's
// value replaced by the redaction marker, regardless of the value's type.
// It is idempotent: sanitizing already-sanitized output is a no-op.
// Nested maps are not descended into; see SanitizeDeep.
func Sanitize(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		if IsSensitiveKey(k) {
			out[k] = RedactionMarker
			continue
		}
		out[k] = v
	}
	return out
}

// SanitizeDeep redacts sensitive keys recursively, descending into nested
// map[string]any values and slices of them. The stored-entry default
// remains the shallow Sanitize; deep redaction is opt-in for callers that
// accept the divergence from the shallow contract.
func SanitizeDeep(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		if IsSensitiveKey(k) {
			out[k] = RedactionMarker
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return SanitizeDeep(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
