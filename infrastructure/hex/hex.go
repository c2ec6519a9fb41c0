// Package hex provides the hex-encoding helper shared by signature code
// that needs a digest as a lowercase hex string rather than base64.
package hex

import "encoding/hex"

// EncodeToString converts bytes to a hex string without a "0x" prefix.
func EncodeToString(data []byte) string {
	return hex.EncodeToString(data)
}
