package domain

import (
	"strconv"
	"time"
)

// Profile is the user record returned by the backend. Its fields are
// backend-defined (identity, contact, locale attributes) and kept as-is.
type Profile map[string]any

// Clone returns a shallow copy of the profile.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge overlays fields onto a copy of p. Keys present in fields win.
func (p Profile) Merge(fields map[string]any) Profile {
	out := p.Clone()
	if out == nil {
		out = make(Profile, len(fields))
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// String returns the field as a string, or "" when absent or not a string.
func (p Profile) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// ID returns the profile identity field.
func (p Profile) ID() string {
	switch v := p["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Session is the current login. Token and Profile are either both set or
// both empty.
type Session struct {
	Token   string
	Profile Profile
}

// Empty reports whether there is no active login.
func (s Session) Empty() bool {
	return s.Token == ""
}

// SessionRecord is the persisted mirror of a Session.
type SessionRecord struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

// Valid reports whether the record carries a complete session.
func (r SessionRecord) Valid() bool {
	return r.Token != "" && r.User != nil
}

// Session converts the record into an in-memory session.
func (r SessionRecord) Session() Session {
	return Session{Token: r.Token, Profile: r.User.Clone()}
}

// RecordOf builds the persisted form of s.
func RecordOf(s Session) SessionRecord {
	return SessionRecord{User: s.Profile.Clone(), Token: s.Token}
}

// SessionSnapshot is a read-only copy of the session state handed to readers
// and subscribers.
type SessionSnapshot struct {
	Session     Session
	Loading     bool
	TokenExpiry *time.Time
}

// Authenticated reports whether the snapshot holds a login.
func (s SessionSnapshot) Authenticated() bool {
	return !s.Session.Empty()
}
