// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/compass/auth"
	"github.com/danielhkuo/compass/middleware"
)

// decodeAndValidate parses the JSON body into req and checks its validate
// tags, writing a 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := middleware.ParseJSONBody(r, req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	if err := middleware.Validate(req); err != nil {
		middleware.WriteError(w, err)
		return false
	}
	return true
}

// requireUser returns the caller's X-User-ID, writing 401 when it is
// missing or malformed.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := auth.UserIDFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return userID, true
}
