package models

import "strings"

// Permission levels
const (
	PermissionAdmin    = "admin"
	PermissionStandard = "standard"
)

type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"` // bcrypt hash; empty means passwordless
	Permission string `json:"permission"`
}

// IsAdmin checks if the user holds admin permission
func (u *User) IsAdmin() bool {
	return u.Permission == PermissionAdmin
}

// HasPassword checks if the user must present a password to log in
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// Redacted returns a copy without the password hash
func (u User) Redacted() User {
	u.Password = ""
	return u
}

// IsValidPermission checks if the permission level is valid
func IsValidPermission(permission string) bool {
	return permission == PermissionAdmin || permission == PermissionStandard
}

// NormalizeKey is the comparison key used for every uniqueness rule
// (process numbers, emails, lookup names): trimmed and lower-cased.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
