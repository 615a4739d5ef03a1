// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin-key and caller-identity utilities.

# Admin Keys

Icon admin keys use HMAC-SHA256 over a scope string:

	adminKey := auth.GenerateAdminKey(auth.IconScope(iconID), salt)
	err := auth.ValidateAdminKey(auth.IconScope(iconID), adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same icon ID and salt always produce the same key, so keys are never
stored. The site-wide key from configuration is compared in constant time by
ValidateSiteAdminKey and is accepted anywhere an icon key is.

# Caller Identity

Callers identify themselves with an opaque X-User-ID header:

	userID, err := auth.UserIDFromRequest(r)

# IP Hashing

Client addresses are hashed before being used as rate-limit keys:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
