package orchestrator

import "testing"

func TestParseExpr(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantIdent string
		wantFields int
		wantOp   bool
	}{
		{"plain literal", "limit", false, "", 0, false},
		{"simple ident", "$order", true, "order", 0, false},
		{"dotted field", "$order.id", true, "order", 1, false},
		{"nested fields", "$order.data.price", true, "order", 2, false},
		{"with operator", "$order.price * 1.05", true, "order", 1, true},
		{"empty dollar", "$", false, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := parseExpr(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("parseExpr(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if e.ident != tt.wantIdent {
				t.Errorf("ident = %q, want %q", e.ident, tt.wantIdent)
			}
			if len(e.fields) != tt.wantFields {
				t.Errorf("fields = %v, want %d entries", e.fields, tt.wantFields)
			}
			if e.hasOp != tt.wantOp {
				t.Errorf("hasOp = %v, want %v", e.hasOp, tt.wantOp)
			}
		})
	}
}

func TestExpr_Eval(t *testing.T) {
	ctx := newContext()
	ctx.Set("order", map[string]any{
		"id":    "o1",
		"price": 100.0,
	})

	e, ok := parseExpr("$order.id")
	if !ok {
		t.Fatal("parseExpr() ok = false")
	}
	v, err := e.eval(ctx)
	if err != nil {
		t.Fatalf("eval() error = %v", err)
	}
	if v != "o1" {
		t.Errorf("eval() = %v, want o1", v)
	}

	e, ok = parseExpr("$order.price * 1.05")
	if !ok {
		t.Fatal("parseExpr() ok = false")
	}
	v, err = e.eval(ctx)
	if err != nil {
		t.Fatalf("eval() error = %v", err)
	}
	if v != 105.0 {
		t.Errorf("eval() = %v, want 105", v)
	}
}

func TestExpr_Eval_MissingContextValue(t *testing.T) {
	ctx := newContext()
	e, _ := parseExpr("$missing.field")
	if _, err := e.eval(ctx); err == nil {
		t.Error("eval() should error when the referenced context key is absent")
	}
}

func TestResolveParameters_Nested(t *testing.T) {
	ctx := newContext()
	ctx.Set("order", map[string]any{"id": "o1"})

	params := map[string]any{
		"literal": "limit",
		"nested": map[string]any{
			"ref": "$order.id",
		},
		"list": []any{"$order.id", "plain"},
		"sentinel": "$DYNAMIC_LIMIT_BUY",
	}

	resolved, err := resolveParameters(params, ctx)
	if err != nil {
		t.Fatalf("resolveParameters() error = %v", err)
	}
	if resolved["nested"].(map[string]any)["ref"] != "o1" {
		t.Errorf("nested ref = %v, want o1", resolved["nested"])
	}
	if resolved["list"].([]any)[0] != "o1" {
		t.Errorf("list[0] = %v, want o1", resolved["list"])
	}
	if resolved["sentinel"] != "$DYNAMIC_LIMIT_BUY" {
		t.Error("resolveParameters() must not touch dynamic sentinel strings")
	}
}
