package handlers

import (
	"github.com/contactbook/backend/internal/api/rest/middleware"
	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/helper/utils"
	"github.com/contactbook/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ContactHandler struct {
	svc services.ContactService
}

func NewContactHandler(svc services.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func (h *ContactHandler) SetupRoutes(app *fiber.App, authSvc services.AuthService) {
	contacts := app.Group("/api/contacts", middleware.AuthMiddleware(authSvc))

	contacts.Post("/", h.Create)
	contacts.Get("/", h.List)
	contacts.Get("/search", h.Search)
	contacts.Get("/birthdays", h.UpcomingBirthdays)
	contacts.Get("/:contactID", h.Get)
	contacts.Patch("/:contactID", h.Update)
	contacts.Delete("/:contactID", h.Delete)
}

func (h *ContactHandler) Create(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)

	var requestBody dto.ContactCreate
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	contact, err := h.svc.Create(ctx.UserContext(), ownerID, requestBody)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, contact)
}

func (h *ContactHandler) List(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)
	limit := ctx.QueryInt("limit", 10)
	offset := ctx.QueryInt("offset", 0)

	contacts, err := h.svc.List(ctx.UserContext(), ownerID, limit, offset)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, contacts)
}

func (h *ContactHandler) Search(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)

	contacts, err := h.svc.Search(ctx.UserContext(), ownerID, ctx.Query("q"))
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, contacts)
}

func (h *ContactHandler) UpcomingBirthdays(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)
	days := ctx.QueryInt("days", 7)

	contacts, err := h.svc.UpcomingBirthdays(ctx.UserContext(), ownerID, days)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, contacts)
}

func (h *ContactHandler) Get(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)
	contactID, err := ctx.ParamsInt("contactID")
	if err != nil || contactID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid contact id")
	}

	contact, err := h.svc.Get(ctx.UserContext(), ownerID, uint(contactID))
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, contact)
}

func (h *ContactHandler) Update(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)
	contactID, err := ctx.ParamsInt("contactID")
	if err != nil || contactID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid contact id")
	}

	var requestBody dto.ContactUpdate
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	contact, err := h.svc.Update(ctx.UserContext(), ownerID, uint(contactID), requestBody)
	if err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, contact)
}

func (h *ContactHandler) Delete(ctx *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(ctx)
	contactID, err := ctx.ParamsInt("contactID")
	if err != nil || contactID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid contact id")
	}

	if err := h.svc.Delete(ctx.UserContext(), ownerID, uint(contactID)); err != nil {
		return authError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "Contact deleted")
}
