package orchestrator

import (
	"errors"
	"testing"

	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
	"github.com/R3E-Network/scenario-engine/internal/scenario"
	"github.com/R3E-Network/scenario-engine/internal/taxonomy"
)

func TestEvaluateSuccess(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"explicit success true", `{"success":true}`, true},
		{"explicit success false wins over isSuccess", `{"success":false,"isSuccess":true}`, false},
		{"isSuccess fallback", `{"isSuccess":true}`, true},
		{"absence of error means success", `{"data":{"id":"o1"}}`, true},
		{"presence of error means failure", `{"error":"boom"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateSuccess([]byte(tt.raw)); got != tt.want {
				t.Errorf("EvaluateSuccess(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateResult_SuccessAndResultData(t *testing.T) {
	actual := map[string]any{
		"success": true,
		"data":    map[string]any{"orderId": "o1", "price": 100.0},
	}
	expected := scenario.ExpectedResult{
		Success:    true,
		ResultData: map[string]any{"orderId": "o1", "price": 100.00001},
	}
	details := validateResult(actual, nil, expected, scenario.ValidationConfig{})
	if !allDetailsPassed(details) {
		t.Errorf("expected all details to pass: %+v", details)
	}
}

func TestValidateResult_ResultDataMismatch(t *testing.T) {
	actual := map[string]any{"success": true, "data": map[string]any{"orderId": "o2"}}
	expected := scenario.ExpectedResult{Success: true, ResultData: map[string]any{"orderId": "o1"}}
	details := validateResult(actual, nil, expected, scenario.ValidationConfig{})
	if allDetailsPassed(details) {
		t.Error("mismatched orderId should fail validation")
	}
}

func TestValidateResult_MissingField(t *testing.T) {
	actual := map[string]any{"success": true}
	expected := scenario.ExpectedResult{Success: true, ResultData: map[string]any{"orderId": "o1"}}
	details := validateResult(actual, nil, expected, scenario.ValidationConfig{})
	if allDetailsPassed(details) {
		t.Error("absent field should fail validation")
	}
}

func TestValidateError_AllowErrorCodes(t *testing.T) {
	err := serviceerrors.New(serviceerrors.ErrCodeRateLimitExceeded, "rate limited", 429).WithStatus(taxonomy.StatusRateLimited)
	expected := scenario.ExpectedResult{Success: true, AllowErrorCodes: []string{string(taxonomy.StatusRateLimited)}}
	details := validateError(err, expected)
	if !allDetailsPassed(details) {
		t.Errorf("allowed error code should pass: %+v", details)
	}
}

func TestValidateError_ExpectedFailureMatchesCode(t *testing.T) {
	err := serviceerrors.New(serviceerrors.ErrCodeInvalidInput, "bad size", 400).WithStatus(taxonomy.StatusBadParameters)
	expected := scenario.ExpectedResult{Success: false, ErrorCode: string(taxonomy.StatusBadParameters)}
	details := validateError(err, expected)
	if !allDetailsPassed(details) {
		t.Errorf("expected failure with matching error code should pass: %+v", details)
	}
}

func TestValidateError_UnexpectedFailure(t *testing.T) {
	err := errors.New("boom")
	expected := scenario.ExpectedResult{Success: true}
	details := validateError(err, expected)
	if allDetailsPassed(details) {
		t.Error("an error when success was expected should fail validation")
	}
}

func TestValuesEqual_ToleranceAndSerialized(t *testing.T) {
	if !valuesEqual(100.0, 100.00005, defaultTolerance) {
		t.Error("values within tolerance should be equal")
	}
	if valuesEqual(100.0, 100.1, defaultTolerance) {
		t.Error("values outside tolerance should not be equal")
	}
	if !valuesEqual([]any{"a", "b"}, []any{"a", "b"}, defaultTolerance) {
		t.Error("identical serialized structures should be equal")
	}
}
