package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nftconnect/internal/api/handler"
	"nftconnect/internal/bridge"
	"nftconnect/internal/datastore"
	"nftconnect/internal/datastore/redis_store"
	"nftconnect/internal/interfaces"
	"nftconnect/internal/pkg/limiter"
	"nftconnect/internal/pkg/locker"
	"nftconnect/internal/pkg/logging"
	"nftconnect/internal/services"
)

var errNoDatabase = errors.New("DB_DSN is not set")

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
		"TON_MANIFEST_URL",
		"VERIFIER_URL",
		"NUI_URL",
		"REDIS_URL",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name:  "bridge",
		Usage: "reference host bridge for the wallet verification panel",
		Commands: []*cli.Command{
			commandServer(container),
			commandMigration(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the bridge server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8090",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			logger := do.MustInvoke[*zap.Logger](container)
			defer logger.Sync() //nolint:errcheck

			relay, err := do.Invoke[*services.ServiceProofRelay](container)
			if err != nil {
				return err
			}

			router, err := handler.NewBridge(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
				Resource:  vs["BRIDGE_RESOURCE"],
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
				err := srv.Shutdown(shutdownCtx)
				relay.Wait()
				return err
			})

			return errWg.Wait()
		},
	}
}

func commandMigration(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the wallet_verification table",
		Action: func(c *cli.Context) error {
			postgresDB, err := do.Invoke[*bun.DB](container)
			if err != nil {
				return err
			}

			return datastore.CreateTableWalletVerification(c.Context, postgresDB)
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["DB_DSN"] = os.Getenv("DB_DSN")
	vs["LOG_LEVEL"] = os.Getenv("LOG_LEVEL")
	vs["API_MODE"] = os.Getenv("API_MODE")
	vs["BRIDGE_RESOURCE"] = os.Getenv("BRIDGE_RESOURCE")

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		return logging.New(vs["LOG_LEVEL"])
	})

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		if vs["DB_DSN"] == "" {
			return nil, errNoDatabase
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(vs["DB_DSN"]),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: vs["REDIS_URL"],
		})
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.NonceStore, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, err
		}
		return redis_store.NewNonceStore(dbRedis), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, err
		}
		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Locker, error) {
		rs, err := do.Invoke[*redsync.Redsync](i)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}
		return locker.NewLocker(rs, logger.Named("locker")), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Verifier, error) {
		return bridge.NewVerifierClient(vs["VERIFIER_URL"], 0), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Notifier, error) {
		return bridge.NewPanelNotifier(vs["NUI_URL"], 0), nil
	})

	if vs["DB_DSN"] != "" {
		do.Provide(injector, func(i *do.Injector) (interfaces.VerificationRecorder, error) {
			postgresDB, err := do.Invoke[*bun.DB](i)
			if err != nil {
				return nil, err
			}
			return datastore.NewVerificationRecorder(postgresDB), nil
		})
	}

	do.Provide(injector, func(i *do.Injector) (*services.ServiceProofRelay, error) {
		return services.NewServiceProofRelay(injector)
	})

	return injector
}
