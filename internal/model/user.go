package model

import "time"

// User represents an account as stored in the `users` table.  The
// json tags are omitted because handlers define their own response
// types.  IsStaff grants admin access to catalog writes.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – optional given name.
//  LastName     – optional family name.
//  IsStaff      – whether the user is an administrator.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    IsStaff      bool      // users.is_staff
    CreatedAt    time.Time // users.created_at
}

// Role returns the role claim issued in access tokens.
func (u User) Role() string {
    if u.IsStaff {
        return RoleAdmin
    }
    return RoleUser
}

// Role names carried in the JWT "role" claim.
const (
    RoleAdmin = "ADMIN"
    RoleUser  = "USER"
)

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is not stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
