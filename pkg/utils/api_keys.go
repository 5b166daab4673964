package utils

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	apiKeyPrefix   = "pp_"
	apiKeyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	apiKeyLength   = 32
)

// NewAPIKey returns "pp_" followed by 32 random alphanumerics.
func NewAPIKey() (string, error) {
	id, err := gonanoid.Generate(apiKeyAlphabet, apiKeyLength)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + id, nil
}

// IsAPIKey reports whether s has the shape NewAPIKey produces, so malformed
// keys are turned away without a lookup.
func IsAPIKey(s string) bool {
	body, ok := strings.CutPrefix(s, apiKeyPrefix)
	if !ok || len(body) != apiKeyLength {
		return false
	}
	for _, r := range body {
		if !strings.ContainsRune(apiKeyAlphabet, r) {
			return false
		}
	}
	return true
}

// MaskAPIKey keeps the prefix and the last four characters.
func MaskAPIKey(key string) string {
	if len(key) < len(apiKeyPrefix)+8 {
		return apiKeyPrefix + "****"
	}
	return apiKeyPrefix + strings.Repeat("*", 8) + key[len(key)-4:]
}
