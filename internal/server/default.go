package server

import (
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/configuration"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/middleware"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/routing"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	rules, err := routing.LoadAllowlist(conf.RoutingAllowlistPath)
	if err != nil {
		return nil, err
	}
	if conf.Prometheus.Enabled {
		rules = append(rules, routing.AllowlistRule{Prefix: conf.Prometheus.Path, Class: routing.RouteClassOps})
	}
	classes := routing.NewClassifier(rules)

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),

		middleware.TracedMiddleware("database"),
		middleware.ProvidePool(options.Pool),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.AllowedOrigins()...),

		middleware.ForwardIdentity(),
	}

	if conf.GoAppEnvironment == configuration.Production {
		middlewares = append(middlewares,
			middleware.TracedMiddleware("opsGuard"),
			middleware.OpsGuard(middleware.OpsGuardOptions{
				Enabled:       conf.OpsGuard.Enabled,
				CIDRs:         conf.OpsGuard.CIDRs,
				Token:         conf.OpsGuard.Token,
				BasicAuthUser: conf.OpsGuard.BasicAuthUser,
				BasicAuthPass: conf.OpsGuard.BasicAuthPass,
				RealIPHeader:  conf.RealIPHeader,
				Paths:         classes.Prefixes(routing.RouteClassOps),
			}),
		)
	}

	middlewares = append(middlewares,
		middleware.TracedMiddleware("session"),
		forClasses(classes,
			middleware.RequireSession(conf.Auth.Type, middleware.JWTKey(conf.Auth.JWTSecret)),
			routing.RouteClassAPI, routing.RouteClassUpload,
		),
	)

	if conf.RateLimit.Enabled {
		var store limiter.Store

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			forClasses(classes, middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.FilesMax,
				Period:            conf.RateLimit.Window,
				Store:             store,
			}), routing.RouteClassUpload),
		)
	}

	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(app, NotFound(), MethodNotAllowed()), nil
}

// forClasses applies mw only to requests whose path is in one of classes.
func forClasses(c *routing.Classifier, mw mux.MiddlewareFunc, classes ...routing.RouteClass) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(classes, c.ClassifyPath(r.URL.Path)) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route "+r.URL.Path+" not found", nil)
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method "+r.Method+" not allowed", nil)
	})
}
