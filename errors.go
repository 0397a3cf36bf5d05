package goAdmin

import (
	"errors"
	"net/http"
)

var (
	// ErrSystem is the catch-all for faults the caller cannot act on.
	ErrSystem = errors.New("internal system error")
	// ErrSessionBackend wraps session store faults. It renders like ErrSystem
	// and is never reported as an authentication failure.
	ErrSessionBackend = errors.New("session backend unavailable")
	// ErrDatabase wraps directory faults.
	ErrDatabase = errors.New("database error")

	// ErrBusiness is the generic business-rule violation.
	ErrBusiness = errors.New("business error")
	// ErrLoginRateLimited is returned by Login once the failed-attempt budget is used up.
	ErrLoginRateLimited = errors.New("too many login attempts")
	// ErrParamValidation reports malformed request input.
	ErrParamValidation = errors.New("parameter validation failed")
	// ErrDataNotFound reports a missing resource.
	ErrDataNotFound = errors.New("data not found")

	// ErrAuthentication is returned for a bad username or password. It does
	// not say which one was wrong.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization is returned when the principal lacks a required authority.
	ErrAuthorization = errors.New("insufficient permissions")
	// ErrTokenInvalid covers malformed, forged and wrongly signed tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMissing is returned when a protected request carries no token.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenFingerprintMismatch is returned when an expired token is not the
	// latest one issued for its session, typically because it was already
	// used for a renewal.
	ErrTokenFingerprintMismatch = errors.New("token fingerprint mismatch")
	// ErrSessionExpired is returned when the server-side session is gone.
	ErrSessionExpired = errors.New("session expired")

	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorCode is the wire representation of an error: a stable numeric code,
// the client-facing message and the HTTP status.
type ErrorCode struct {
	Code    string
	Message string
	Status  int
}

var (
	CodeSystem           = ErrorCode{Code: "10000", Message: "Internal system error", Status: http.StatusInternalServerError}
	CodeDatabase         = ErrorCode{Code: "10001", Message: "Database error", Status: http.StatusInternalServerError}
	CodeBusiness         = ErrorCode{Code: "20000", Message: "Business error", Status: http.StatusBadRequest}
	CodeLoginRateLimited = ErrorCode{Code: "20000", Message: "Too many login attempts", Status: http.StatusTooManyRequests}
	CodeParamValidation  = ErrorCode{Code: "20001", Message: "Parameter validation failed", Status: http.StatusBadRequest}
	CodeDataNotFound     = ErrorCode{Code: "20002", Message: "Data not found", Status: http.StatusNotFound}
	CodeAuthentication   = ErrorCode{Code: "30000", Message: "Authentication failed", Status: http.StatusUnauthorized}
	CodeAuthorization    = ErrorCode{Code: "30001", Message: "Insufficient permissions", Status: http.StatusForbidden}
	CodeTokenInvalid     = ErrorCode{Code: "30002", Message: "Invalid token", Status: http.StatusUnauthorized}
	CodeTokenMissing     = ErrorCode{Code: "30003", Message: "Token missing", Status: http.StatusUnauthorized}
	CodeTokenFingerprint = ErrorCode{Code: "30004", Message: "Token fingerprint mismatch, possibly already used", Status: http.StatusUnauthorized}
	CodeSessionExpired   = ErrorCode{Code: "30005", Message: "Session expired", Status: http.StatusUnauthorized}
)

// Order matters: the first match wins, so more specific sentinels come
// before the families they render like.
var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrSessionBackend, CodeSystem},
	{ErrDatabase, CodeDatabase},
	{ErrLoginRateLimited, CodeLoginRateLimited},
	{ErrParamValidation, CodeParamValidation},
	{ErrDataNotFound, CodeDataNotFound},
	{ErrBusiness, CodeBusiness},
	{ErrAuthentication, CodeAuthentication},
	{ErrAuthorization, CodeAuthorization},
	{ErrTokenInvalid, CodeTokenInvalid},
	{ErrTokenMissing, CodeTokenMissing},
	{ErrTokenFingerprintMismatch, CodeTokenFingerprint},
	{ErrSessionExpired, CodeSessionExpired},
	{ErrSystem, CodeSystem},
}

// CodeOf maps err to its ErrorCode using errors.Is. Unknown errors map to
// CodeSystem so internal details never reach the client.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSystem
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeSystem
}
