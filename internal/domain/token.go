package domain

import "time"

// AccessToken is a short-lived bearer credential for the push delivery API.
// Held only in memory; never persisted or logged.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the token can still be presented at the given
// instant, leaving the caller to apply its own refresh skew.
func (t AccessToken) ValidAt(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	return now.Before(t.ExpiresAt)
}
