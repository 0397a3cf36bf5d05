package jwt

import "time"

// Status is the outcome of Verify.
type Status uint8

const (
	// StatusInvalid means the token could not be parsed or its signature
	// or claims did not check out. Nothing in the Result is trustworthy.
	StatusInvalid Status = iota
	// StatusValid means the token is authentic and unexpired.
	StatusValid
	// StatusExpired means the token is authentic but past its expiry.
	StatusExpired
	// StatusClockSkew means the token is authentic but was issued further
	// in the future than MaxFutureIAT allows. Either this host's clock or
	// the issuer's is wrong; the token itself is not at fault.
	StatusClockSkew
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusClockSkew:
		return "clock_skew"
	default:
		return "invalid"
	}
}

// Result is the tagged outcome of verifying a token string.
type Result struct {
	Status    Status
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Err explains an invalid or expired result. It is for logging only.
	Err error
}

func invalid(err error) Result {
	return Result{Status: StatusInvalid, Err: err}
}
