// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIDLocal = "userId"

// Claims carries the authenticated user identity inside a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateJWT signs a token for userID. Used by tests and by operators
// issuing tokens for the manual trigger.
func GenerateJWT(secret, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "blood-donation-notifier",
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// JWTAuth validates the Authorization bearer token and stores the caller's
// user id in the request locals.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header is required")
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			return fiber.NewError(fiber.StatusUnauthorized, "bearer token format is invalid")
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "token is invalid")
		}
		if strings.TrimSpace(claims.UserID) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token carries no user id")
		}

		c.Locals(userIDLocal, claims.UserID)
		return c.Next()
	}
}

// GetUserID returns the authenticated user id set by JWTAuth, or "".
func GetUserID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(userIDLocal).(string); ok {
		return id
	}
	return ""
}
