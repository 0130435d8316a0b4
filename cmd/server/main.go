package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NASA-AMMOS/aerie-gateway/internal/server"
	"github.com/NASA-AMMOS/aerie-gateway/modules"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/configuration"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/logging"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	startedAt := time.Now()
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.ExporterURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.ExporterURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The pool only backs the import run ledger; imports keep working
	// without it.
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:   pool,
		Logger: logger,
	})
	upstream := hasura.NewClient(hasura.ClientOptions{
		Endpoint: conf.GraphQL.URL,
		Timeout:  conf.GraphQL.Timeout,
	})
	builtIn, err := modules.BuiltInModules(conf, upstream, startedAt)
	if err != nil {
		log.Fatalf("failed to configure modules: %v", err)
	}
	if err := modules.Load(app, builtIn...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := app.Migrations().Run(migrateCtx); err != nil {
		logger.WithError(err).Warn("import run ledger unavailable")
	}
	cancel()

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}
	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	logger.WithField("upstream", upstream.Endpoint()).Infof("Listening on: %s", conf.SocketAddress)
	if err := serverInstance.Serve(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
