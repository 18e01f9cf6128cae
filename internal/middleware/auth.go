package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gch/gch-api-go/internal/model"
    "github.com/gch/gch-api-go/internal/utils"
)

// UserLoader is the slice of the user repository the auth middleware needs.
// Taking an interface here keeps the verification chain testable without a
// database; *repository.UserRepo satisfies it.
type UserLoader interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Context keys written by the auth middleware.  Handlers read the bound
// user via CurrentUser rather than touching these directly.
const (
    userKey   = "user"    // model.User of the authenticated caller
    userIDKey = "user_id" // string id, consumed by the rate limiter key builder
)

// How long an identity lookup may take on top of whatever deadline the
// request already carries.  Keeps a slow database from stalling every
// authenticated request indefinitely.
const resolveTimeout = 3 * time.Second

// Internal reasons for a failed authentication.  These never reach the
// response body; the outward error is uniform so callers cannot probe which
// stage rejected them.  They exist so the stages can be told apart in logs.
var (
    errTokenInvalid = errors.New("token invalid or expired")
    errUserMissing  = errors.New("token subject no longer exists")
    errUserInactive = errors.New("user is inactive")
)

// RequireAuth returns middleware enforcing mandatory authentication.  The
// chain is: extract bearer token, verify signature and expiry, load the
// user record, check it is still active.  Each stage short-circuits.  A
// missing header is rejected as such; every other failure collapses into
// one uniform 401.  A failing user store is the only 500: that is an
// infrastructure fault, not an authentication outcome.
func RequireAuth(secret string, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            u, err := authenticate(c, secret, users, raw)
            switch {
            case err == nil:
                bindUser(c, u)
                return next(c)
            case errors.Is(err, errTokenInvalid), errors.Is(err, errUserMissing), errors.Is(err, errUserInactive):
                c.Logger().Warnf("auth rejected: %v", err)
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
            default:
                c.Logger().Errorf("auth: user lookup failed: %v", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
            }
        }
    }
}

// OptionalAuth runs the same verification chain as RequireAuth but never
// rejects: a missing header, bad token, unknown or inactive user all mean
// the request simply proceeds anonymously.  Endpoints that personalize
// behaviour when identity is known but accept anonymous traffic (the public
// form submission) use this.
func OptionalAuth(secret string, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                return next(c)
            }
            u, err := authenticate(c, secret, users, raw)
            if err != nil {
                // Infrastructure errors are logged but still fall through to
                // anonymous: the submission must not be lost because the
                // identity lookup was unavailable.
                if !errors.Is(err, errTokenInvalid) && !errors.Is(err, errUserMissing) && !errors.Is(err, errUserInactive) {
                    c.Logger().Errorf("optional auth: user lookup failed: %v", err)
                }
                return next(c)
            }
            bindUser(c, u)
            return next(c)
        }
    }
}

// RequireAdmin gates an endpoint to admin accounts.  It is a pure predicate
// over the user already bound by RequireAuth and must be registered after
// it; an unbound user means the middleware ordering is wrong and the
// request is rejected the same as a non-admin one.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok || !u.IsAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough permissions"})
            }
            return next(c)
        }
    }
}

// CurrentUser returns the user bound to the request by RequireAuth or
// OptionalAuth.  The second return is false for anonymous requests.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}

// bearerToken extracts the token from a standard "Authorization: Bearer"
// header.  Returns false when the header is absent or not bearer-shaped.
func bearerToken(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

// authenticate verifies the token and resolves the claimed identity against
// the user store.  Order matters: signature/expiry first (cheap, no I/O),
// then the single database read, then the active check.  The returned error
// is one of the internal sentinels above or a wrapped store error.
func authenticate(c echo.Context, secret string, users UserLoader, raw string) (model.User, error) {
    claims, err := utils.ParseAccessToken(secret, raw)
    if err != nil {
        return model.User{}, errTokenInvalid
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), resolveTimeout)
    defer cancel()

    u, err := users.GetByID(ctx, claims.UserID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.User{}, errUserMissing
        }
        return model.User{}, err
    }
    if !u.IsActive {
        return model.User{}, errUserInactive
    }
    return u, nil
}

func bindUser(c echo.Context, u model.User) {
    c.Set(userKey, u)
    c.Set(userIDKey, strconv.FormatUint(u.ID, 10))
}
