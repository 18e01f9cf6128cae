package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for refresh tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"        // sentinel error for failed verification
    "strconv"       // parsing string-encoded subject claims
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for every verification failure: malformed
// token, wrong signature, unexpected signing method or expired claims.
// Callers deliberately cannot tell which check failed; the distinction is
// only available for internal logging via the wrapped parse error.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AccessClaims is the decoded, verified content of an access token.  The
// subject is always the numeric user id: ids are immutable and unique,
// whereas emails can change, so the id is the canonical claim subject.
type AccessClaims struct {
    UserID  uint64 // sub claim
    IsAdmin bool   // adm claim
}

// RefreshToken represents a long‑lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA‑256 hash of the
// raw string is stored for security reasons.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the admin flag, and a TTL in minutes.  It
// returns an AccessToken structure containing the signed token and its
// expiration time.  The JWT carries the subject (sub), an admin flag (adm),
// expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, isAdmin bool, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub": userID,
        "adm": isAdmin,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw access token
// and returns its claims.  Only HMAC signing methods are accepted; tokens
// signed any other way are rejected.  All failures collapse into
// ErrInvalidToken so the response body cannot act as an oracle for which
// check failed.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }

    var out AccessClaims
    // JWT numeric values decode as float64; tolerate string-encoded ids too.
    switch sub := claims["sub"].(type) {
    case float64:
        out.UserID = uint64(sub)
    case string:
        n, err := strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return AccessClaims{}, ErrInvalidToken
        }
        out.UserID = n
    default:
        return AccessClaims{}, ErrInvalidToken
    }
    if out.UserID == 0 {
        return AccessClaims{}, ErrInvalidToken
    }
    if adm, ok := claims["adm"].(bool); ok {
        out.IsAdmin = adm
    }
    return out, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are used to obtain new access tokens.  The ttlDays parameter controls
// how many days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.  Storing only the hash in the database prevents attackers from
// using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
