package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetUserIDFromContext_ReadsMiddlewareKey(t *testing.T) {
	c, _ := newTestContext()

	// middlewareが入れたキーと同じキーで読めること
	c.Set(middleware.CtxUserIDKey, int64(3))

	id, ok := getUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestGetUserIDFromContext_MissingOrWrongType(t *testing.T) {
	c, _ := newTestContext()
	_, ok := getUserIDFromContext(c)
	assert.False(t, ok)

	c2, _ := newTestContext()
	c2.Set(middleware.CtxUserIDKey, "3")
	_, ok = getUserIDFromContext(c2)
	assert.False(t, ok)
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty cart", usecase.ErrEmptyCart, http.StatusBadRequest},
		{"insufficient inventory", &usecase.InsufficientInventoryError{SKU: "mug"}, http.StatusConflict},
		{"reservation mismatch", usecase.ErrReservationMismatch, http.StatusConflict},
		{"product unavailable", usecase.ErrProductUnavailable, http.StatusConflict},
		{"transient lock", usecase.ErrTransientLock, http.StatusServiceUnavailable},
		{"not found", repo.ErrNotFound, http.StatusNotFound},
		{"http error passthrough", usecase.NewHTTPError(http.StatusConflict, "cart already checked out"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext()
			err := writeError(c, tc.err)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
