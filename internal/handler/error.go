package handler

import (
	"errors"
	"net/http"

	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをHTTPステータスに落とす。
// 一時的なロック失敗は503（リトライ済みでまだダメだったもの）。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	var insufficient *usecase.InsufficientInventoryError
	switch {
	case errors.Is(err, usecase.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart is empty"})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: insufficient.Error()})
	case errors.Is(err, usecase.ErrReservationMismatch):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "reservations do not cover cart"})
	case errors.Is(err, usecase.ErrProductUnavailable):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "product unavailable"})
	case errors.Is(err, usecase.ErrTransientLock):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporary failure, retry"})
	case errors.Is(err, repo.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT がcontextに入れたuser_id(int64)を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
