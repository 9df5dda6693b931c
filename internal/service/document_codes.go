package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var verificationCodePattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

// NewVerificationCode returns 8 uppercase hexadecimal characters from a CSPRNG.
func NewVerificationCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NormalizeVerificationCode upper-cases user input and reports whether it is well formed.
func NormalizeVerificationCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, verificationCodePattern.MatchString(code)
}

// DocumentHash is hex(SHA-256(tenantID || number || verificationCode)) over the plain concatenation.
func DocumentHash(tenantID, number, verificationCode string) string {
	sum := sha256.Sum256([]byte(tenantID + number + verificationCode))
	return hex.EncodeToString(sum[:])
}
