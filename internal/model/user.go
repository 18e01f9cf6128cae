package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash is never serialized outward; handlers build separate
// response types with the fields that are safe to expose.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (normalized to lower case on write).
//  FullName     – display name supplied at registration.
//  Phone        – optional contact number (empty when not provided).
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active; inactive accounts cannot
//                 authenticate even with a structurally valid token.
//  IsAdmin      – whether the account may access admin-only endpoints.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    FullName     string    // users.full_name
    Phone        string    // users.phone (nullable, scanned as empty string)
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    IsAdmin      bool      // users.is_admin
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
