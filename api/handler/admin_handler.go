package handler

import (
	"net/http"

	"parsfix/api/middleware"
	"parsfix/internal/dto"
	"parsfix/internal/entity"
	"parsfix/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	Admin    *service.AdminService
	Validate *validator.Validate
}

func NewAdminHandler(admin *service.AdminService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{Admin: admin, Validate: validate}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset := parseLimitOffset(c)
	accounts, err := h.Admin.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status: "success",
		Data:   dto.AccountResponsesFromEntities(accounts),
	})
}

func (h *AdminHandler) Block(c echo.Context) error {
	actor, targetID, err := h.target(c)
	if err != nil {
		return err
	}
	var req dto.BlockRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	account, err := h.Admin.Block(c.Request().Context(), actor, targetID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status:  "success",
		Message: "account blocked",
		Data:    dto.AccountResponseFromEntity(account),
	})
}

func (h *AdminHandler) Unblock(c echo.Context) error {
	actor, targetID, err := h.target(c)
	if err != nil {
		return err
	}
	account, err := h.Admin.Unblock(c.Request().Context(), actor, targetID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status:  "success",
		Message: "account unblocked",
		Data:    dto.AccountResponseFromEntity(account),
	})
}

func (h *AdminHandler) ChangeRole(c echo.Context) error {
	actor, targetID, err := h.target(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	account, err := h.Admin.ChangeRole(c.Request().Context(), actor, targetID, entity.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status:  "success",
		Message: "role updated",
		Data:    dto.AccountResponseFromEntity(account),
	})
}

func (h *AdminHandler) Delete(c echo.Context) error {
	actor, targetID, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.Admin.Delete(c.Request().Context(), actor, targetID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{Status: "success", Message: "account deleted"})
}

func (h *AdminHandler) target(c echo.Context) (entity.Principal, uuid.UUID, error) {
	actor, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return entity.Principal{}, uuid.Nil, service.ErrUnauthenticated
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return entity.Principal{}, uuid.Nil, service.ErrAccountNotFound
	}
	return actor, targetID, nil
}
