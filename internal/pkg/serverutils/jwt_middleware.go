package serverutils

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const LocalsUserId = "user_id"

var ErrInvalidToken = errors.New("invalid token")

// JwtMiddleware guards a route group and stores the "user_id" claim in Locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
		}

		userId, err := ParseUserId(authHeader[7:], secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		ctx.Locals(LocalsUserId, userId)
		return ctx.Next()
	}
}

// ParseUserId validates an HMAC-signed token and returns its user_id claim.
func ParseUserId(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	userId, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userId) == "" {
		return "", ErrInvalidToken
	}
	return userId, nil
}

// UserId reads the authenticated user set by JwtMiddleware.
func UserId(ctx *fiber.Ctx) (string, error) {
	userId, ok := ctx.Locals(LocalsUserId).(string)
	if !ok || userId == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return userId, nil
}
