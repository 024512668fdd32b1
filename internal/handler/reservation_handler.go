package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫予約のHTTP。reserve/cancelともカート単位
type ReservationHandler struct {
	uc *usecase.ReservationUsecase

	//ttl_seconds省略時のデフォルト（0なら無期限）
	defaultTTLSeconds int64
}

// DI
func NewReservationHandler(uc *usecase.ReservationUsecase, defaultTTLSeconds int64) *ReservationHandler {
	return &ReservationHandler{uc: uc, defaultTTLSeconds: defaultTTLSeconds}
}

type ReserveRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

type ReserveResponse struct {
	Reservations []usecase.ReservationOutput `json:"reservations"`
}

type CancelReservationsResponse struct {
	Released int `json:"released"`
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/carts")
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.POST("/:id/reserve", h.reserve)
	g.POST("/:id/cancel-reservations", h.cancel)
}

func (h *ReservationHandler) reserve(c echo.Context) error {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	//bodyは省略可
	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//省略時は設定のデフォルトTTL（それも0なら無期限予約）
	ttl := req.TTLSeconds
	if ttl == 0 {
		ttl = h.defaultTTLSeconds
	}

	outs, err := h.uc.Reserve(c.Request().Context(), usecase.ReserveInput{
		CartID:     cartID,
		TTLSeconds: ttl,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ReserveResponse{Reservations: outs})
}

func (h *ReservationHandler) cancel(c echo.Context) error {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	released, err := h.uc.ReleaseCart(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CancelReservationsResponse{Released: released})
}
