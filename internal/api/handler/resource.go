package handler

import (
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"nftconnect/internal/models"
	"nftconnect/internal/services"
)

// groupBridge answers with the bare bodies the panel expects; only errors go
// through the toolkit envelope.
type groupBridge struct {
	relay *services.ServiceProofRelay
}

func newGroupBridge(container *do.Injector) (*groupBridge, error) {
	relay, err := do.Invoke[*services.ServiceProofRelay](container)
	if err != nil {
		return nil, err
	}
	return &groupBridge{relay}, nil
}

func (gr *groupBridge) GetManifestURL(c echo.Context) error {
	url, err := gr.relay.ManifestURL()
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return c.JSON(http.StatusOK, url)
}

func (gr *groupBridge) RequestPayload(c echo.Context) error {
	payload, err := gr.relay.IssueNonce(c.Request().Context(), c.RealIP())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return c.JSON(http.StatusOK, payload)
}

func (gr *groupBridge) SubmitProof(c echo.Context) error {
	var submission models.ProofSubmission
	if err := c.Bind(&submission); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	ack, err := gr.relay.AcceptProof(c.Request().Context(), &submission)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return c.JSON(http.StatusOK, ack)
}

func (gr *groupBridge) HideUI(c echo.Context) error {
	if err := gr.relay.HideUI(c.Request().Context()); err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

func (gr *groupBridge) ShowUI(c echo.Context) error {
	if err := gr.relay.ShowUI(c.Request().Context()); err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}
