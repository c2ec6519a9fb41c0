package orchestrator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
	"github.com/R3E-Network/scenario-engine/internal/scenario"
)

const defaultTolerance = 0.0001

// EvaluateSuccess implements §4.5's success predicate: `success` is the
// canonical field; `isSuccess` is consulted ONLY when `success` is absent
// from actual's JSON representation (via gjson.Exists, not a Go zero-value
// check — an explicit `"success": false` must never be shadowed by an
// unrelated `"isSuccess": true`); with neither field present, success is
// the absence of an `error` field.
func EvaluateSuccess(raw []byte) bool {
	if successField := gjson.GetBytes(raw, "success"); successField.Exists() {
		return successField.Bool()
	}
	if isSuccessField := gjson.GetBytes(raw, "isSuccess"); isSuccessField.Exists() {
		return isSuccessField.Bool()
	}
	return !gjson.GetBytes(raw, "error").Exists()
}

// validateResult implements §4.5's validation rules against the actual
// result of a primary invocation (actual, invokeErr) and the scenario's
// expected outcome. It returns one ValidationDetail per rule applied and
// whether every detail passed.
func validateResult(actual any, invokeErr error, expected scenario.ExpectedResult, cfg scenario.ValidationConfig) []scenario.ValidationDetail {
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}

	if invokeErr != nil {
		return validateError(invokeErr, expected)
	}

	raw, _ := json.Marshal(actual)
	actualSuccess := EvaluateSuccess(raw)

	details := []scenario.ValidationDetail{{
		Field:    "success",
		Expected: expected.Success,
		Actual:   actualSuccess,
		Passed:   actualSuccess == expected.Success,
	}}

	for key, expectedVal := range expected.ResultData {
		actualVal, found := extractField(raw, key)
		passed := found && valuesEqual(expectedVal, actualVal, tolerance)
		detail := scenario.ValidationDetail{
			Field:    key,
			Expected: expectedVal,
			Actual:   actualVal,
			Passed:   passed,
		}
		if !found {
			detail.Message = fmt.Sprintf("field %q not present in actual result", key)
		}
		details = append(details, detail)
	}

	return details
}

// validateError implements the "method threw" branch of §4.5's validation
// rules: allowErrorCodes grants a pass outright; otherwise an
// expected.success == false scenario with an errorCode is checked against
// the thrown error's code/message.
func validateError(invokeErr error, expected scenario.ExpectedResult) []scenario.ValidationDetail {
	code, message := errorCodeAndMessage(invokeErr)

	for _, allowed := range expected.AllowErrorCodes {
		if allowed == code {
			return []scenario.ValidationDetail{{
				Field:    "success",
				Expected: expected.Success,
				Actual:   true,
				Passed:   true,
				Message:  fmt.Sprintf("error code %q is in allowErrorCodes", code),
			}}
		}
	}

	successDetail := scenario.ValidationDetail{
		Field:    "success",
		Expected: expected.Success,
		Actual:   false,
		Passed:   !expected.Success,
	}
	if expected.Success {
		successDetail.Message = message
		return []scenario.ValidationDetail{successDetail}
	}

	details := []scenario.ValidationDetail{successDetail}
	if expected.ErrorCode != "" {
		matches := strings.Contains(code, expected.ErrorCode) || strings.Contains(message, expected.ErrorCode)
		if matches && expected.ErrorMessage != "" {
			matches = strings.Contains(message, expected.ErrorMessage)
		}
		details = append(details, scenario.ValidationDetail{
			Field:    "errorCode",
			Expected: expected.ErrorCode,
			Actual:   code,
			Passed:   matches,
		})
	}
	return details
}

func errorCodeAndMessage(err error) (code, message string) {
	if svcErr := serviceerrors.GetServiceError(err); svcErr != nil {
		if svcErr.Status != "" {
			return string(svcErr.Status), svcErr.Error()
		}
		return string(svcErr.Code), svcErr.Error()
	}
	return "", err.Error()
}

// extractField implements §4.5's "actual.data?.[key] falling back to
// actual[key]" field addressing rule, via gjson against actual's marshaled
// JSON — the same dotted-path tool the context resolver's "$key.field"
// addressing uses, applied here to an arbitrary result value instead of a
// context entry.
func extractField(raw []byte, key string) (any, bool) {
	if result := gjson.GetBytes(raw, "data."+key); result.Exists() {
		return result.Value(), true
	}
	if result := gjson.GetBytes(raw, key); result.Exists() {
		return result.Value(), true
	}
	return nil, false
}

// valuesEqual implements "equal if strict equality, if numeric difference
// is below tolerance, or if their serialised forms are identical."
func valuesEqual(expected, actual any, tolerance float64) bool {
	if expected == actual {
		return true
	}

	expectedNum, expectedIsNum := asFloat(expected)
	actualNum, actualIsNum := asFloat(actual)
	if expectedIsNum && actualIsNum {
		return math.Abs(expectedNum-actualNum) < tolerance
	}

	expectedJSON, errExp := json.Marshal(expected)
	actualJSON, errAct := json.Marshal(actual)
	if errExp == nil && errAct == nil {
		return string(expectedJSON) == string(actualJSON)
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// allDetailsPassed reports whether every detail in details passed.
func allDetailsPassed(details []scenario.ValidationDetail) bool {
	for _, d := range details {
		if !d.Passed {
			return false
		}
	}
	return true
}
