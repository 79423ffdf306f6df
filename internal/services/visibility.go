package services

import (
	"context"
	"time"

	"github.com/samber/do"
	"go.uber.org/zap"

	"nftconnect/internal/auth"
)

const hideUITimeout = 5 * time.Second

// ServiceVisibility turns show/hide requests into handshake events. The
// machine decides whether a show is a first open, a reopen or a duplicate.
type ServiceVisibility struct {
	logger *zap.Logger
	auth   *ServiceAuth
	bridge HostBridge
}

func NewServiceVisibility(container *do.Injector) (*ServiceVisibility, error) {
	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	serviceAuth, err := do.Invoke[*ServiceAuth](container)
	if err != nil {
		return nil, err
	}

	bridge, err := do.Invoke[HostBridge](container)
	if err != nil {
		return nil, err
	}

	return &ServiceVisibility{logger.Named("visibility"), serviceAuth, bridge}, nil
}

func (service *ServiceVisibility) SetDisplay(ctx context.Context, display bool) {
	if display {
		service.auth.Dispatch(ctx, auth.Opened{})
		return
	}
	service.auth.Dispatch(ctx, auth.Closed{})
}

// Escape asks the game client to hide the panel. The client answers with a
// display=false message, so nothing changes here until that arrives.
func (service *ServiceVisibility) Escape(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hideUITimeout)
	go func() {
		defer cancel()
		if err := service.bridge.HideUI(ctx); err != nil {
			service.logger.Warn("hideUI request failed", zap.Error(err))
		}
	}()
}
