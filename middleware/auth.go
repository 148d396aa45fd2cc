package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
)

// Keys of the values Protected stores in fiber locals.
const (
	LocalUserID = "userID"
	LocalRole   = "role"
	LocalJTI    = "jti"
	LocalExpiry = "exp"
)

// Protected verifies the bearer token and rejects revoked ones. On success
// the user id, role, token id and expiry are stored in locals.
func Protected(signingKey []byte, denylist redis.Denylist, log zerolog.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   signingKey,
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return utils.Unauthorized("invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return utils.Unauthorized("invalid token claims")
			}

			userID, err := extractUserID(claims)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting token")
				return utils.Unauthorized("invalid user id in token")
			}
			role, err := extractRole(claims)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting token")
				return utils.Unauthorized("invalid role in token")
			}
			jti, _ := claims["jti"].(string)
			if jti == "" {
				return utils.Unauthorized("token has no id")
			}
			exp, err := extractExpiry(claims)
			if err != nil {
				return utils.Unauthorized("token has no expiry")
			}

			revoked, err := denylist.IsRevoked(c.UserContext(), jti)
			if err != nil {
				return fmt.Errorf("check token revocation: %w", err)
			}
			if revoked {
				return utils.Unauthorized("token has been revoked")
			}

			c.Locals(LocalUserID, userID)
			c.Locals(LocalRole, role)
			c.Locals(LocalJTI, jti)
			c.Locals(LocalExpiry, exp)
			return c.Next()
		},
	})
}

// extractUserID accepts the numeric id claim as well as a decimal sub.
func extractUserID(claims jwt.MapClaims) (uint, error) {
	idVal := claims["id"]
	if idVal == nil {
		idVal = claims["sub"]
	}
	if idVal == nil {
		return 0, fmt.Errorf("no ID found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("invalid ID %v", v)
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("could not parse ID string %q", v)
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

func extractRole(claims jwt.MapClaims) (models.Role, error) {
	s, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("no role found in claims")
	}
	role := models.Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

func extractExpiry(claims jwt.MapClaims) (time.Time, error) {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("no exp found in claims")
	}
	return time.Unix(int64(exp), 0), nil
}

func jwtError(_ *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return utils.Unauthorized("missing or malformed token")
	}
	return utils.Unauthorized("invalid or expired token")
}

// RequireRole lets the request through when the caller has one of roles.
// It must run after Protected.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(models.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return utils.Forbidden("this action requires role %s", joinRoles(roles))
	}
}

func joinRoles(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}

// UserID returns the authenticated user id set by Protected.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// Role returns the authenticated role set by Protected.
func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(LocalRole).(models.Role)
	return role
}

// Token returns the id and expiry of the bearer token.
func Token(c *fiber.Ctx) (string, time.Time) {
	jti, _ := c.Locals(LocalJTI).(string)
	exp, _ := c.Locals(LocalExpiry).(time.Time)
	return jti, exp
}
