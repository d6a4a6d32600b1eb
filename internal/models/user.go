package models

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents one registered identity. The plaintext password and
// verification code are never stored; only their bcrypt hashes are.
//
// VerificationCodeHash and VerificationCodeExpiresAt are either both set or
// both nil. Once IsVerified flips to true both fields are cleared and the
// account never reverts to unverified.
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string `gorm:"not null" json:"-"`

	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`

	Role Role `gorm:"type:string;default:user;not null" json:"role"`

	IsVerified                bool       `gorm:"default:false;not null" json:"is_verified"`
	VerificationCodeHash      *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns the display name, falling back to the email address.
func (u *User) FullName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	case u.LastName != nil:
		return *u.LastName
	default:
		return u.Email
	}
}
