package orchestrator

import (
	"fmt"
	"strconv"
	"strings"
)

// expr is a parsed "$ident(.ident)* (op literal)?" parameter-resolution
// expression — the grammar §9 prescribes in place of embedding a general
// expression engine (`dop251/goja` is explicitly dropped; see DESIGN.md).
// A hand-written parser is the whole of the language this codebase
// evaluates: one context lookup, zero or more dotted field accesses, and
// an optional single arithmetic operation against a numeric literal.
type expr struct {
	ident   string
	fields  []string
	hasOp   bool
	op      byte
	literal float64
}

const ops = "+-*/"

// parseExpr parses raw if it looks like a context-interpolation expression
// ("$..."); ok is false for any string not starting with "$", which the
// caller should then treat as a literal value (or, for the nine dynamic
// sentinels, pass through to the sentinel resolver instead).
func parseExpr(raw string) (e expr, ok bool) {
	if !strings.HasPrefix(raw, "$") {
		return expr{}, false
	}
	body := raw[1:]
	tokens := strings.Fields(body)
	if len(tokens) == 0 {
		return expr{}, false
	}

	path := strings.Split(tokens[0], ".")
	if path[0] == "" {
		return expr{}, false
	}
	e.ident = path[0]
	e.fields = path[1:]

	if len(tokens) >= 3 && len(tokens[1]) == 1 && strings.ContainsRune(ops, rune(tokens[1][0])) {
		lit, err := strconv.ParseFloat(tokens[2], 64)
		if err == nil {
			e.hasOp = true
			e.op = tokens[1][0]
			e.literal = lit
		}
	}
	return e, true
}

// eval resolves e against ctx: look up e.ident, walk e.fields through
// nested map[string]any values, then apply e.op/e.literal if present.
func (e expr) eval(ctx *Context) (any, error) {
	value, ok := ctx.Get(e.ident)
	if !ok {
		return nil, fmt.Errorf("context has no value for %q", e.ident)
	}

	cur := value
	for _, field := range e.fields {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot access field %q: %q is not an object", field, e.ident)
		}
		cur, ok = m[field]
		if !ok {
			return nil, fmt.Errorf("field %q not present on %q", field, e.ident)
		}
	}

	if !e.hasOp {
		return cur, nil
	}

	num, err := toFloat(cur)
	if err != nil {
		return nil, fmt.Errorf("cannot apply arithmetic to non-numeric value for %q: %w", e.ident, err)
	}
	switch e.op {
	case '+':
		return num + e.literal, nil
	case '-':
		return num - e.literal, nil
	case '*':
		return num * e.literal, nil
	case '/':
		return num / e.literal, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", e.op)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// resolveParameters rewrites every string value in params that parses as a
// context-interpolation expression, recursively handling nested
// map[string]any and []any structures. Dynamic sentinels (the nine fixed
// strings in sentinel.go) are left untouched here — they are resolved by
// resolveDynamicSentinels immediately before the primary dispatch (§4.5
// step 6), not during general context resolution.
func resolveParameters(params map[string]any, ctx *Context) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		resolved, err := resolveValue(v, ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve parameter %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

func resolveValue(v any, ctx *Context) (any, error) {
	switch value := v.(type) {
	case string:
		if isDynamicSentinel(value) {
			return value, nil
		}
		e, ok := parseExpr(value)
		if !ok {
			return value, nil
		}
		return e.eval(ctx)
	case map[string]any:
		return resolveParameters(value, ctx)
	case []any:
		out := make([]any, len(value))
		for i, elem := range value {
			resolved, err := resolveValue(elem, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}
