package redaction

import "testing"

func TestRedactString(t *testing.T) {
	r := NewRedactor(DefaultConfig())

	got := r.RedactString(`api_key: "sk-live-abc123"`)
	if got == `api_key: "sk-live-abc123"` {
		t.Fatal("RedactString did not redact an api_key value")
	}

	got = r.RedactString("no secrets here")
	if got != "no secrets here" {
		t.Errorf("RedactString altered a safe string: %q", got)
	}
}

func TestRedactString_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	r := NewRedactor(cfg)

	s := `password: "hunter2"`
	if got := r.RedactString(s); got != s {
		t.Errorf("RedactString with Enabled=false = %q, want unchanged", got)
	}
}

func TestRedactMap_SecretField(t *testing.T) {
	m := map[string]interface{}{
		"api_secret": "topsecretvalue",
		"provider":   "kraken",
	}

	got := RedactMap(m)
	if got["api_secret"] != "***REDACTED***" {
		t.Errorf("api_secret = %v, want redaction text", got["api_secret"])
	}
	if got["provider"] != "kraken" {
		t.Errorf("provider = %v, want unchanged", got["provider"])
	}
}

func TestRedactMap_Nested(t *testing.T) {
	m := map[string]interface{}{
		"credentials": map[string]interface{}{
			"token": "abc",
		},
	}

	got := RedactMap(m)
	nested, ok := got["credentials"].(map[string]interface{})
	if !ok {
		t.Fatalf("credentials = %T, want map[string]interface{}", got["credentials"])
	}
	if nested["token"] != "***REDACTED***" {
		t.Errorf("nested token = %v, want redaction text", nested["token"])
	}
}

func TestRedactMap_NilIsSafe(t *testing.T) {
	if got := RedactMap(nil); got == nil {
		t.Error("RedactMap(nil) returned nil, want empty map")
	}
}

func TestRedactSlice(t *testing.T) {
	r := NewRedactor(DefaultConfig())
	in := []interface{}{`secret: "xyz"`, "plain value"}

	got := r.RedactSlice(in)
	if got[1] != "plain value" {
		t.Errorf("RedactSlice altered a safe entry: %v", got[1])
	}
	if got[0] == in[0] {
		t.Error("RedactSlice did not redact a secret entry")
	}
}
