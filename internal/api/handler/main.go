package handler

import (
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"

	"nftconnect/internal/bridge"
)

type Config struct {
	Container *do.Injector
	Mode      string
	// Resource is the only resource name the bridge answers for. Empty
	// means the default resource name.
	Resource string
}

func newEcho(cfg *Config) *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🤖")
	})
	return r
}

// NewPanel serves the panel core: messages from the host bridge, the
// rendered display, key presses and the wallet relay socket.
func NewPanel(cfg *Config) (http.Handler, error) {
	r := newEcho(cfg)

	n, err := newGroupNUI(cfg.Container)
	if err != nil {
		return nil, err
	}

	routesNUI := r.Group("/nui")
	{
		routesNUI.POST("/message", n.Message)
		routesNUI.GET("/display", n.Display)
		routesNUI.POST("/keydown", n.KeyDown)
		routesNUI.GET("/wallet", n.Wallet)
	}

	return r, nil
}

// NewBridge serves the host bridge callbacks the panel makes, plus showUI
// for the game itself.
func NewBridge(cfg *Config) (http.Handler, error) {
	r := newEcho(cfg)

	resource := cfg.Resource
	if resource == "" {
		resource = bridge.DefaultResourceName
	}

	b, err := newGroupBridge(cfg.Container)
	if err != nil {
		return nil, err
	}

	routesResource := r.Group("/:resource")
	routesResource.Use(middlewareResource(resource))
	{
		routesResource.POST("/"+bridge.OpGetManifestURL, b.GetManifestURL)
		routesResource.POST("/"+bridge.OpRequestPayload, b.RequestPayload)
		routesResource.POST("/"+bridge.OpSubmitProof, b.SubmitProof)
		routesResource.POST("/"+bridge.OpHideUI, b.HideUI)
		routesResource.POST("/"+bridge.OpShowUI, b.ShowUI)
	}

	return r, nil
}
