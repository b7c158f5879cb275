package middleware

import (
	"net/http"

	"farmmarket/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがFARMERかどうかを確認します。

func FarmerRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//消費者は拒否、農家だけ許可
			if model.Role(role) != model.RoleFarmer {
				return c.JSON(http.StatusForbidden, errorJSON("farmer only"))
			}

			return next(c)
		}
	}
}
