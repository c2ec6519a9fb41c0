// Package taxonomy maps provider-native error codes onto a stable outcome
// status set and is the sole authority on retryability.
package taxonomy

// Status is the fixed outcome-status enum shared by every provider adapter.
type Status string

const (
	StatusSuccess            Status = "SUCCESS"
	StatusUnauthorized       Status = "UNAUTHORIZED"
	StatusRateLimited        Status = "RATE_LIMITED"
	StatusTimeout            Status = "TIMEOUT"
	StatusServiceUnavailable Status = "SERVICE_UNAVAILABLE"
	StatusNotFound           Status = "NOT_FOUND"
	StatusAlready            Status = "ALREADY"
	StatusBadParameters      Status = "BAD_PARAMETERS"
	StatusBadPrerequisites   Status = "BAD_PREREQUISITES"
	StatusNoConnection       Status = "NO_CONNECTION"
	StatusUnexpected         Status = "UNEXPECTED"
	StatusFailure            Status = "FAILURE"
)

// IsRetryable is the sole authority used by any retry loop — the WS
// reconnect logic and the REST/post-only retry helper both gate on this.
func IsRetryable(s Status) bool {
	switch s {
	case StatusTimeout, StatusRateLimited, StatusServiceUnavailable, StatusNoConnection:
		return true
	default:
		return false
	}
}

// MapKrakenCode maps a Kraken Futures integer error code to a Status.
// Representative equivalences per §4.6; codes outside the known ranges map
// to UNEXPECTED.
func MapKrakenCode(code int) Status {
	switch {
	case code == -1:
		return StatusUnauthorized
	case code == -2:
		return StatusRateLimited
	case code == -3:
		return StatusTimeout
	case code == -4:
		return StatusServiceUnavailable
	case code == -5:
		return StatusNotFound
	case code == -6:
		return StatusAlready
	case code >= -1199 && code <= -1100, code >= -4199 && code <= -4000:
		return StatusBadParameters
	case code == -7:
		return StatusBadPrerequisites
	case code == -8:
		return StatusNoConnection
	default:
		return StatusUnexpected
	}
}

// MapBinanceCode maps a Binance Futures integer error code (the values used
// in `{"code": N, "msg": "..."}` error bodies) to a Status. Binance's real
// code space clusters around -1000..-2999 (request/validation), -4000..-4999
// (account/order rejection) — reused here as the concrete ranges for each
// taxonomy bucket.
func MapBinanceCode(code int) Status {
	switch {
	case code == -1002 || code == -2014 || code == -2015:
		return StatusUnauthorized
	case code == -1003:
		return StatusRateLimited
	case code == -1007 || code == -1021:
		return StatusTimeout
	case code == -1016:
		return StatusServiceUnavailable
	case code == -2011 || code == -2013:
		return StatusNotFound
	case code == -2022:
		return StatusAlready
	case code == -2018 || code == -2019 || code == -4003 || code == -4164:
		return StatusBadPrerequisites
	case code >= -1199 && code <= -1100, code >= -4199 && code <= -4000:
		return StatusBadParameters
	case code == -1001:
		return StatusNoConnection
	default:
		return StatusUnexpected
	}
}
