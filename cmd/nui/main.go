package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nftconnect/internal/api/handler"
	"nftconnect/internal/bridge"
	"nftconnect/internal/pkg/logging"
	"nftconnect/internal/services"
	"nftconnect/internal/wallet"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"BRIDGE_BASE_URL",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name:  "nui",
		Usage: "wallet verification panel core",
		Commands: []*cli.Command{
			commandServer(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the panel server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			logger := do.MustInvoke[*zap.Logger](container)
			defer logger.Sync() //nolint:errcheck

			serviceAuth, err := do.Invoke[*services.ServiceAuth](container)
			if err != nil {
				return err
			}

			router, err := handler.NewPanel(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				return serviceAuth.Run(errCtx)
			})

			errWg.Go(func() error {
				logger.Info("listening", zap.String("addr", c.String("addr")), zap.String("mode", vs["API_MODE"]))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return errWg.Wait()
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["NUI_HOST_URL"] = os.Getenv("NUI_HOST_URL")
	vs["LOG_LEVEL"] = os.Getenv("LOG_LEVEL")
	vs["API_MODE"] = os.Getenv("API_MODE")

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		return logging.New(vs["LOG_LEVEL"])
	})

	do.Provide(injector, func(i *do.Injector) (services.HostBridge, error) {
		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		return bridge.New(bridge.Config{
			BaseURL:    vs["BRIDGE_BASE_URL"],
			Resource:   bridge.ResolveResourceName(vs["NUI_HOST_URL"]),
			RetryCount: 1,
		}, logger.Named("bridge")), nil
	})

	do.Provide(injector, func(i *do.Injector) (*wallet.Relay, error) {
		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}
		return wallet.NewRelay(logger.Named("relay")), nil
	})

	do.Provide(injector, func(i *do.Injector) (wallet.Connector, error) {
		return do.Invoke[*wallet.Relay](i)
	})

	do.ProvideNamed(injector, services.PROOF_RETRY_BACKOFF_NAME, func(i *do.Injector) (heimdall.Backoff, error) {
		return heimdall.NewExponentialBackoff(500*time.Millisecond, 10*time.Second, 2, 100*time.Millisecond), nil
	})

	do.ProvideValue(injector, services.NewDisplayStore())

	do.Provide(injector, func(i *do.Injector) (*services.ServiceAuth, error) {
		return services.NewServiceAuth(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceVisibility, error) {
		return services.NewServiceVisibility(injector)
	})

	return injector
}
