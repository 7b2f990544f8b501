package model

import "time"

// User represents an account as stored in the `users` table. Guests and
// staff share the table; Role tells them apart.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  Phone        – optional contact number.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the closed role set.
//  IsActive     – inactive accounts cannot log in.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserFilter narrows user listings. A zero Role matches every role;
// Search matches name or email.
type UserFilter struct {
	Role   Role
	Search string
}

// UserPatch carries profile changes. Role and IsActive may only be set by
// an actor holding CapManageUsers.
type UserPatch struct {
	Name     *string
	Phone    *string
	Password *string
	Role     *Role
	IsActive *bool
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
