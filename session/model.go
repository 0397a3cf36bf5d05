package session

import "time"

// Session is the server-side record of a logged-in user.
//
// Fingerprint holds the token id of the only access token that may be
// renewed for this user. Password material is never stored here.
type Session struct {
	UserID      string
	Username    string
	Email       string
	Authorities []string
	Fingerprint string

	CreatedAt int64
	RenewedAt int64
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Authorities = append([]string(nil), s.Authorities...)
	return &out
}

// HasAuthority reports whether the session carries authority exactly.
func (s *Session) HasAuthority(authority string) bool {
	if s == nil {
		return false
	}
	for _, a := range s.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

func unixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
