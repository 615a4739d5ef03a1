// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// Request headers carrying caller identity and admin credentials
const (
	HeaderUserID   = "X-User-ID"
	HeaderAdminKey = "X-Admin-Key"
)

const maxUserIDLen = 128

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrMissingUserID   = errors.New("missing user id")
	ErrInvalidUserID   = errors.New("invalid user id")
)

// IconScope returns the admin-key scope for an icon.
func IconScope(iconID string) string {
	return "icon:" + iconID
}

// GenerateAdminKey creates an HMAC-based admin key for a scope
// This is deterministic and verifiable
func GenerateAdminKey(scope, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(scope))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the scope
func ValidateAdminKey(scope, adminKey, salt string) error {
	expected := GenerateAdminKey(scope, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ValidateSiteAdminKey compares a key against the configured site-wide key
// in constant time. An empty configured key never matches.
func ValidateSiteAdminKey(given, configured string) error {
	if configured == "" || !hmac.Equal([]byte(given), []byte(configured)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ValidateIconAdmin accepts either the icon's own admin key or the site key.
func ValidateIconAdmin(iconID, given, salt, siteKey string) error {
	if ValidateSiteAdminKey(given, siteKey) == nil {
		return nil
	}
	return ValidateAdminKey(IconScope(iconID), given, salt)
}

// UserIDFromRequest returns the opaque caller identity from the X-User-ID header.
func UserIDFromRequest(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return "", ErrMissingUserID
	}
	if len(id) > maxUserIDLen {
		return "", ErrInvalidUserID
	}
	return id, nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for rate-limit keys
	return hex.EncodeToString(sum[:8])
}
