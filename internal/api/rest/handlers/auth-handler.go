package handlers

import (
	"errors"

	"github.com/contactbook/backend/internal/api/rest/middleware"
	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/helper/utils"
	"github.com/contactbook/backend/internal/interfaces"
	"github.com/contactbook/backend/internal/services"
	pkgutils "github.com/contactbook/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const maxAvatarBytes = 5 << 20

type AuthHandler struct {
	svc      services.AuthService
	uploader interfaces.Uploader
}

func NewAuthHandler(svc services.AuthService, uploader interfaces.Uploader) *AuthHandler {
	return &AuthHandler{svc: svc, uploader: uploader}
}

func (h *AuthHandler) SetupRoutes(app *fiber.App) {
	auth := app.Group("/api/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Get("/verify-email", h.VerifyEmail)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Post("/reset-password", h.ResetPassword)

	me := auth.Group("/me", middleware.AuthMiddleware(h.svc))
	me.Get("/", h.Me)
	me.Patch("/avatar", h.UpdateAvatar)
}

func (h *AuthHandler) Register(ctx *fiber.Ctx) error {
	var requestBody dto.RegisterRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if requestBody.Email == "" || requestBody.Password == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.svc.Register(ctx.UserContext(), requestBody)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.UserLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	pair, err := h.svc.Login(ctx.UserContext(), requestBody.Email, requestBody.Password)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, pair)
}

func (h *AuthHandler) Refresh(ctx *fiber.Ctx) error {
	var requestBody dto.RefreshRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.RefreshToken == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "refresh_token is required")
	}

	pair, err := h.svc.Refresh(ctx.UserContext(), requestBody.RefreshToken)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, pair)
}

func (h *AuthHandler) VerifyEmail(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "token is required")
	}

	user, err := h.svc.VerifyEmail(ctx.UserContext(), token)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide a valid email")
	}

	if err := h.svc.ForgotPassword(ctx.UserContext(), requestBody.Email); err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "Password reset link sent")
}

func (h *AuthHandler) ResetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Token == "" || requestBody.NewPassword == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "token and new_password are required")
	}

	if err := h.svc.ResetPassword(ctx.UserContext(), requestBody.Token, requestBody.NewPassword); err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "Password reset successfully")
}

func (h *AuthHandler) Me(ctx *fiber.Ctx) error {
	user, ok := ctx.Locals("user").(*domain.User)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) UpdateAvatar(ctx *fiber.Ctx) error {
	userID := middleware.CurrentUserID(ctx)
	if userID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.uploader == nil {
		return utils.ResponseError(ctx, fiber.StatusServiceUnavailable, "avatar upload is not configured")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "could not read file")
	}
	defer f.Close()

	b, err := pkgutils.ReadAllLimit(f, maxAvatarBytes)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	url, err := h.uploader.UploadBytes(ctx.UserContext(), "avatars", fileHeader.Filename, b)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "failed to upload avatar")
	}

	user, err := h.svc.UpdateAvatar(ctx.UserContext(), userID, url)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, toUserResponse(user))
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		IsVerified: user.IsVerified(),
		AvatarURL:  user.AvatarURL,
		CreatedAt:  user.CreatedAt,
	}
}

// authError maps the service error taxonomy onto HTTP statuses.
func authError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return utils.ResponseError(ctx, fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidInput):
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotVerified):
		return utils.ResponseError(ctx, fiber.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyVerified):
		return utils.ResponseError(ctx, fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrPurposeMismatch),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrRevokedToken):
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		return utils.ResponseError(ctx, fiber.StatusServiceUnavailable, "storage unavailable, retry later")
	case errors.Is(err, domain.ErrNotFound):
		return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())
	default:
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
}
