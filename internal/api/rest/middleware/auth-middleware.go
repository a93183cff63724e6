package middleware

import (
	"strings"

	"github.com/contactbook/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resolves the request identity from the access token and
// stashes it in locals. Token may arrive as a cookie or an Authorization
// header.
func AuthMiddleware(authSvc services.AuthService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := authSvc.Authorize(ctx.UserContext(), tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		ctx.Locals("userID", user.ID)
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// CurrentUserID reads the id set by AuthMiddleware; 0 means unauthenticated.
func CurrentUserID(ctx *fiber.Ctx) uint {
	id, ok := ctx.Locals("userID").(uint)
	if !ok {
		return 0
	}
	return id
}
