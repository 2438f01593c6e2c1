// Package admintoken derives and verifies the capability token that
// authorizes deleting one specific comment. The token is a deterministic
// keyed hash of the backend row identifier; nothing is stored and nothing
// expires. Rotating the secret invalidates every outstanding token.
package admintoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Derive returns the hex-encoded HMAC-SHA256 of the row id under secret.
// Same inputs always produce the same token.
func Derive(rowID int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(rowID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the token and compares in constant time.
func Verify(rowID int64, secret, candidate string) bool {
	if candidate == "" {
		return false
	}
	return hmac.Equal([]byte(Derive(rowID, secret)), []byte(candidate))
}
