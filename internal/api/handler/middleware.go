package handler

import (
	"fmt"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

func middlewareResource(resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Param("resource") != resource {
				httpx.Abort(c, errorx.Wrap(fmt.Errorf("unknown resource %q", c.Param("resource")), errorx.NotExist), -1)
				return nil
			}
			return next(c)
		}
	}
}
