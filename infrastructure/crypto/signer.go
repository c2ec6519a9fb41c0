package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"github.com/R3E-Network/scenario-engine/infrastructure/hex"
)

// SignChallenge implements the Kraken Futures WebSocket challenge-response:
// SHA-256 over the challenge string, then HMAC-SHA-512 keyed by the
// Base64-decoded API secret, Base64-encoded.
func SignChallenge(secretB64, challenge string) (string, error) {
	return hashThenHMAC(secretB64, []byte(challenge))
}

// SignRESTRequest implements the REST signature discipline shared by both
// providers' private endpoints: SHA-256 over `postData || nonce ||
// endpointPath`, then HMAC-SHA-512 keyed by the Base64-decoded API secret,
// Base64-encoded as the `Authent` header value.
func SignRESTRequest(secretB64, postData, nonce, endpointPath string) (string, error) {
	message := postData + nonce + endpointPath
	return hashThenHMAC(secretB64, []byte(message))
}

func hashThenHMAC(secretB64 string, message []byte) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}

	sum := sha256.Sum256(message)

	mac := hmac.New(sha512.New, secret)
	if _, err := mac.Write(sum[:]); err != nil {
		return "", fmt.Errorf("hmac write: %w", err)
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignHMACSHA256Hex signs message with key using plain HMAC-SHA256 and
// returns the hex-encoded digest — used by Binance Futures, whose REST
// signature discipline differs from Kraken's SHA-256-then-HMAC-SHA-512
// scheme (Binance signs the query string directly with HMAC-SHA256).
func SignHMACSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	_, _ = mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
