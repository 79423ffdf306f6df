package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
	"go.uber.org/zap"

	"nftconnect/internal/models"
	"nftconnect/internal/services"
	"nftconnect/internal/wallet"
)

const keyEscape = "Escape"

type keyDownRequest struct {
	Key string `json:"key"`
}

type groupNUI struct {
	logger     *zap.Logger
	auth       *services.ServiceAuth
	visibility *services.ServiceVisibility
	display    *services.DisplayStore
	relay      *wallet.Relay
}

func newGroupNUI(container *do.Injector) (*groupNUI, error) {
	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	serviceAuth, err := do.Invoke[*services.ServiceAuth](container)
	if err != nil {
		return nil, err
	}

	serviceVisibility, err := do.Invoke[*services.ServiceVisibility](container)
	if err != nil {
		return nil, err
	}

	display, err := do.Invoke[*services.DisplayStore](container)
	if err != nil {
		return nil, err
	}

	relay, err := do.Invoke[*wallet.Relay](container)
	if err != nil {
		return nil, err
	}

	return &groupNUI{logger.Named("nui"), serviceAuth, serviceVisibility, display, relay}, nil
}

func (gr *groupNUI) Message(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	msg, err := models.ParseInbound(body)
	if err != nil {
		gr.logger.Warn("malformed inbound message", zap.ByteString("body", body), zap.Error(err))
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	switch m := msg.(type) {
	case models.UIMessage:
		gr.visibility.SetDisplay(ctx, m.Display)
	default:
		gr.auth.HandleInbound(ctx, msg)
	}

	return httpx.RestAbort(c, "success", nil)
}

func (gr *groupNUI) Display(c echo.Context) error {
	display, version := gr.display.Snapshot()
	c.Response().Header().Set("X-Display-Version", strconv.FormatUint(version, 10))
	return c.JSON(http.StatusOK, display)
}

func (gr *groupNUI) KeyDown(c echo.Context) error {
	var payload keyDownRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	if payload.Key == keyEscape {
		gr.visibility.Escape(c.Request().Context())
	}

	return httpx.RestAbort(c, "success", nil)
}

func (gr *groupNUI) Wallet(c echo.Context) error {
	gr.relay.ServeHTTP(c.Response(), c.Request())
	return nil
}
