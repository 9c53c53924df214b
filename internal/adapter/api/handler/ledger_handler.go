package handler

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/usecase"
	"vendra/pkg/response"
)

type LedgerHandler struct {
	ledgerUseCase *usecase.LedgerUseCase
}

func NewLedgerHandler(ledgerUseCase *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{
		ledgerUseCase: ledgerUseCase,
	}
}

type withdrawRequest struct {
	BatchID       string   `json:"batch_id" validate:"required"`
	EngagementIDs []string `json:"engagement_ids" validate:"required,min=1"`
}

func (h *LedgerHandler) ListEarnings(c echo.Context) error {
	userID := c.Get("uid").(string)

	earnings, totals, err := h.ledgerUseCase.List(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"earnings": earnings,
		"totals":   totals,
	})
}

func (h *LedgerHandler) Withdraw(c echo.Context) error {
	var req withdrawRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	withdrawal, err := h.ledgerUseCase.Withdraw(c.Request().Context(), userID, req.BatchID, req.EngagementIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, withdrawal)
}
