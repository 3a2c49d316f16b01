package auth

import (
	"strings"
	"time"
)

// User is a persisted account record. PasswordHash stores the salt and the
// derived hash together as one opaque string; the plaintext is never stored.
type User struct {
	ID                int64
	FirstName         string
	LastName          string
	Age               int
	Phone             string
	BackupPhone       string
	SchoolName        string
	Email             string
	Role              Role
	Grade             string
	SchoolCode        string
	PasswordHash      string
	CommercialConsent bool
	CreatedAt         time.Time
}

// DisplayName returns the name shown in portal headers.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
