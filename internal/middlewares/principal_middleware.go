package middlewares

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const principalLocalsKey = "principal"

// PrincipalMiddleware asserts the caller's identity from a bearer token and
// stores the principal for the controllers. The core trusts the principal as
// given once the token checks out.
func PrincipalMiddleware(secret []byte) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("Rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token has no subject",
			})
		}

		c.Locals(principalLocalsKey, subject)

		return c.Next()
	}
}

// Principal returns the identity asserted by PrincipalMiddleware.
func Principal(c fiber.Ctx) string {
	principal, _ := c.Locals(principalLocalsKey).(string)
	return principal
}
