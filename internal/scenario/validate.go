package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// requiredFields mirrors the struct-tag validation below but is applied to
// the raw JSON object first, because a bool zero value for
// `expected.success` is indistinguishable from "absent" once unmarshaled —
// validator/v10 cannot tell `false` from "not provided" on a plain bool
// field, so presence is checked against the raw document instead.
type rawScenario struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Target   string          `json:"targetClass" validate:"required"`
	Method   string          `json:"targetMethod" validate:"required"`
	Expected json.RawMessage `json:"expected" validate:"required"`
}

var structValidator = validator.New()

// ValidateLoad checks the required-field invariants from §4.1 against one
// scenario's raw JSON object, before the typed Scenario is used. Missing
// required fields are a load-time failure; unknown fields are ignored.
func ValidateLoad(raw json.RawMessage) error {
	var rs rawScenario
	if err := json.Unmarshal(raw, &rs); err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}
	if err := structValidator.Struct(rs); err != nil {
		return fmt.Errorf("scenario missing required field: %w", err)
	}

	var expectedRaw map[string]json.RawMessage
	if err := json.Unmarshal(rs.Expected, &expectedRaw); err != nil {
		return fmt.Errorf("parse expected: %w", err)
	}
	if _, ok := expectedRaw["success"]; !ok {
		return fmt.Errorf("scenario %q: expected.success is required", rs.ID)
	}
	return nil
}
