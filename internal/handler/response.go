package handler

import (
	"net/http"

	"farmmarket/internal/middleware"
	"farmmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		//ストアの中身は外に出さない
		if ae.Kind == usecase.KindStoreFailure {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return c.JSON(ae.Status(), ErrorResponse{Error: ae.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return "", false
	}

	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
