package audit

import (
	"reflect"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Run("redacts every sensitive key regardless of value type", func(t *testing.T) {
		details := map[string]any{}
		for _, key := range SensitiveKeys() {
			details[key] = "hunter2"
		}
		details["token"] = 12345
		details["secret"] = []string{"a", "b"}
		details["policyName"] = "baseline"

		got := Sanitize(details)
		for _, key := range SensitiveKeys() {
			if got[key] != RedactionMarker {
				t.Errorf("key %q = %v, want %q", key, got[key], RedactionMarker)
			}
		}
		if got["policyName"] != "baseline" {
			t.Errorf("non-sensitive key was altered: %v", got["policyName"])
		}
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		got := Sanitize(map[string]any{"Password": "hunter2", "password": "hunter2"})
		if got["Password"] != "hunter2" {
			t.Error("uppercase key should not match the case-sensitive set")
		}
		if got["password"] != RedactionMarker {
			t.Error("lowercase key should be redacted")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		details := map[string]any{
			"password": "hunter2",
			"count":    3,
		}
		once := Sanitize(details)
		twice := Sanitize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("sanitize not idempotent: %v vs %v", once, twice)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		details := map[string]any{"password": "hunter2"}
		_ = Sanitize(details)
		if details["password"] != "hunter2" {
			t.Error("input map was mutated")
		}
	})

	t.Run("nil input stays nil", func(t *testing.T) {
		if Sanitize(nil) != nil {
			t.Error("Sanitize(nil) should be nil")
		}
	})

	t.Run("shallow by default", func(t *testing.T) {
		details := map[string]any{
			"connection": map[string]any{"password": "hunter2"},
		}
		got := Sanitize(details)
		nested := got["connection"].(map[string]any)
		if nested["password"] != "hunter2" {
			t.Error("shallow sanitize descended into a nested map")
		}
	})
}

func TestSanitizeDeep(t *testing.T) {
	details := map[string]any{
		"connection": map[string]any{
			"host":     "dc01",
			"password": "hunter2",
		},
		"attempts": []any{
			map[string]any{"token": "abc"},
			"plain",
		},
		"apiKey": "xyz",
	}

	got := SanitizeDeep(details)

	nested := got["connection"].(map[string]any)
	if nested["password"] != RedactionMarker {
		t.Error("nested password not redacted")
	}
	if nested["host"] != "dc01" {
		t.Error("nested non-sensitive value altered")
	}

	list := got["attempts"].([]any)
	if list[0].(map[string]any)["token"] != RedactionMarker {
		t.Error("token inside slice element not redacted")
	}
	if list[1] != "plain" {
		t.Error("plain slice element altered")
	}

	if got["apiKey"] != RedactionMarker {
		t.Error("top-level apiKey not redacted")
	}
}
