package handler

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/usecase"
	"vendra/pkg/response"
	"vendra/pkg/utils"
)

type EngagementHandler struct {
	engagementUseCase *usecase.EngagementUseCase
}

func NewEngagementHandler(engagementUseCase *usecase.EngagementUseCase) *EngagementHandler {
	return &EngagementHandler{
		engagementUseCase: engagementUseCase,
	}
}

func (h *EngagementHandler) ListEngagements(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	engagements, total, err := h.engagementUseCase.ListByUser(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, engagements, total, pagination.PageSize, pagination.Offset)
}

func (h *EngagementHandler) GetEngagement(c echo.Context) error {
	userID := c.Get("uid").(string)
	engagementID := c.Param("id")

	engagement, err := h.engagementUseCase.GetByID(c.Request().Context(), engagementID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, engagement)
}

func (h *EngagementHandler) CompleteEngagement(c echo.Context) error {
	userID := c.Get("uid").(string)
	engagementID := c.Param("id")

	engagement, err := h.engagementUseCase.Complete(c.Request().Context(), engagementID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, engagement)
}

func (h *EngagementHandler) CancelEngagement(c echo.Context) error {
	userID := c.Get("uid").(string)
	engagementID := c.Param("id")

	engagement, err := h.engagementUseCase.Cancel(c.Request().Context(), engagementID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, engagement)
}
