package crypto

import (
	"encoding/base64"
	"testing"
)

func TestSignChallenge_Deterministic(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret-key-material"))

	sig1, err := SignChallenge(secret, "challenge-string")
	if err != nil {
		t.Fatalf("SignChallenge() error = %v", err)
	}
	sig2, err := SignChallenge(secret, "challenge-string")
	if err != nil {
		t.Fatalf("SignChallenge() error = %v", err)
	}
	if sig1 != sig2 {
		t.Error("SignChallenge() should be deterministic for the same inputs")
	}
	if sig1 == "" {
		t.Error("SignChallenge() returned empty signature")
	}
}

func TestSignChallenge_DifferentChallengesDiffer(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret-key-material"))

	sig1, _ := SignChallenge(secret, "challenge-a")
	sig2, _ := SignChallenge(secret, "challenge-b")
	if sig1 == sig2 {
		t.Error("different challenges should produce different signatures")
	}
}

func TestSignChallenge_InvalidSecret(t *testing.T) {
	_, err := SignChallenge("not-valid-base64!!!", "challenge")
	if err == nil {
		t.Error("expected error for invalid base64 secret")
	}
}

func TestSignRESTRequest_Deterministic(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("rest-secret"))

	sig1, err := SignRESTRequest(secret, "orderType=lmt", "1700000000000", "/derivatives/api/v3/sendorder")
	if err != nil {
		t.Fatalf("SignRESTRequest() error = %v", err)
	}
	sig2, err := SignRESTRequest(secret, "orderType=lmt", "1700000000000", "/derivatives/api/v3/sendorder")
	if err != nil {
		t.Fatalf("SignRESTRequest() error = %v", err)
	}
	if sig1 != sig2 {
		t.Error("SignRESTRequest() should be deterministic for the same inputs")
	}
}

func TestSignRESTRequest_NonceAffectsSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("rest-secret"))

	sig1, _ := SignRESTRequest(secret, "orderType=lmt", "1700000000000", "/derivatives/api/v3/sendorder")
	sig2, _ := SignRESTRequest(secret, "orderType=lmt", "1700000000001", "/derivatives/api/v3/sendorder")
	if sig1 == sig2 {
		t.Error("different nonces should produce different signatures")
	}
}

func TestSignHMACSHA256Hex(t *testing.T) {
	got := SignHMACSHA256Hex("secret", "symbol=BTCUSDT&timestamp=1700000000000")
	if len(got) != 64 {
		t.Errorf("hex digest length = %d, want 64", len(got))
	}

	got2 := SignHMACSHA256Hex("secret", "symbol=BTCUSDT&timestamp=1700000000000")
	if got != got2 {
		t.Error("SignHMACSHA256Hex() should be deterministic")
	}
}
