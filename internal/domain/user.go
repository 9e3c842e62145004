package domain

import "time"

// User is an account held by the backend.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	City         string
	Village      string
	PasswordHash string
	PushToken    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile renders the user as the profile mapping sent to clients.
func (u User) Profile() Profile {
	return Profile{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"phone":     u.Phone,
		"city":      u.City,
		"village":   u.Village,
		"createdAt": u.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// LoginSession is one device login tracked by the backend.
type LoginSession struct {
	ID         string     `json:"_id"`
	UserID     string     `json:"userId"`
	UserAgent  string     `json:"userAgent"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastSeenAt time.Time  `json:"lastSeenAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	Current    bool       `json:"current"`
}

// Active reports whether the session may still be used.
func (s LoginSession) Active() bool {
	return s.RevokedAt == nil
}
