package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済ゲートウェイからのwebhook受け口（ACKだけのスタブ）。
// 決済ロジック本体は外部。再送されても同じ応答を返す。
type WebhookHandler struct {
	orders *usecase.OrderUsecase
}

// DI
func NewWebhookHandler(orders *usecase.OrderUsecase) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

type PaymentWebhookRequest struct {
	OrderID int64  `json:"order_id"`
	EventID string `json:"event_id"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payment", h.payment)
}

func (h *WebhookHandler) payment(c echo.Context) error {
	var req PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.orders.AcknowledgePayment(c.Request().Context(), req.OrderID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "acknowledged"})
}
