package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/kampuskuevent/server/internal/api/handlers"
	"github.com/kampuskuevent/server/internal/api/middleware"
	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/auth"
	"github.com/kampuskuevent/server/internal/config"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/kampuskuevent/server/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires services over store and returns the full HTTP handler,
// middleware included. Background work started for the router stops when
// ctx is done.
func NewRouter(ctx context.Context, cfg config.Config, logger zerolog.Logger, store storage.Store, build BuildInfo) http.Handler {
	eventsService := events.NewService(store.Events(), logger)
	participantsService := participants.NewService(store.Participants(), store.Events(), logger)

	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	participantsHandler := handlers.NewParticipantsHandler(participantsService, cfg.Environment)
	health := handlers.NewHealthChecker(store, cfg.Database.Driver, build.Version, build.GitCommit)

	verifier := auth.NewVerifier(cfg.Auth.Token, cfg.Auth.TokenBcrypt)
	rateLimit := middleware.RateLimit(ctx, cfg.RateLimit)

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierPublic)(rateLimit(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		gate := middleware.AdminAuth(verifier, cfg.Auth.HeaderName, cfg.Environment)
		return middleware.WithRateLimitTierHandler(middleware.TierAdmin)(rateLimit(gate(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", methodMux(cfg.Environment, map[string]http.Handler{http.MethodGet: handlers.Healthz()}))
	mux.Handle("/readyz", methodMux(cfg.Environment, map[string]http.Handler{http.MethodGet: health.Readyz()}))
	mux.Handle("/health", methodMux(cfg.Environment, map[string]http.Handler{http.MethodGet: health.Health()}))
	mux.Handle("/version", methodMux(cfg.Environment, map[string]http.Handler{http.MethodGet: VersionHandler(build, cfg.Database.Driver)}))
	mux.Handle("/openapi.json", methodMux(cfg.Environment, map[string]http.Handler{http.MethodGet: OpenAPIHandler()}))
	mux.Handle("/metrics", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodGet: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}))

	mux.Handle("/events", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: admin(eventsHandler.Create),
	}))
	mux.Handle("/events/{id}", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    admin(eventsHandler.Update),
		http.MethodDelete: admin(eventsHandler.Delete),
	}))
	mux.Handle("/events/{id}/participants", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodGet: public(participantsHandler.ListByEvent),
	}))
	mux.Handle("/participants", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodGet:  public(participantsHandler.List),
		http.MethodPost: public(participantsHandler.Register),
	}))
	mux.Handle("/participants/{id}", methodMux(cfg.Environment, map[string]http.Handler{
		http.MethodDelete: admin(participantsHandler.Delete),
	}))
	mux.Handle("/", notFound(cfg.Environment))

	// metrics.HTTPMiddleware labels by the matched mux pattern, so it must
	// wrap the mux directly.
	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = middleware.CORS(cfg.CORS, logger, cfg.Auth.HeaderName)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = middleware.Recovery(cfg.Environment)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(env string, handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodHead {
			if get, ok := handlers[http.MethodGet]; ok {
				get.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method not allowed", nil, env,
			problem.WithDetail(r.Method+" is not supported on "+r.URL.Path))
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func notFound(env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", nil, env,
			problem.WithDetail("No route for "+r.URL.Path))
	})
}
