package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
)

const opaqueTokenBytes = 32

// NewOpaqueToken mints the secret bearer credential for a session:
// 32 bytes from crypto/rand, hex encoded.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
