package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theoremus-urban-solutions/transight/association"
	"github.com/theoremus-urban-solutions/transight/cache"
	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/fusion"
	"github.com/theoremus-urban-solutions/transight/model"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/store"
	"github.com/theoremus-urban-solutions/transight/tracking"
)

// Deps bundles the services the handlers need. Store may be nil when
// persistence is disabled.
type Deps struct {
	Cfg       config.AppConfig
	Log       *zap.SugaredLogger
	Directory *stops.Directory
	Vehicles  *cache.VehicleCache
	Trails    *tracking.TrailStore
	Assoc     *association.Engine
	Fusion    *fusion.Engine
	Predictor model.Predictor
	Store     *store.PredictionStore
}

// Server is the HTTP front of the engine.
type Server struct {
	deps Deps
	http *http.Server
}

// New builds the router and the listener.
func New(deps Deps) *Server {
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sensor-update", h.sensorUpdate)
		r.Get("/stops", h.listStops)
		r.Get("/stops/{id}", h.stopDetail)
		r.Get("/stops/{id}/buses", h.busesForStop)
		r.Get("/buses", h.allBuses)
		r.Get("/routes", h.listRoutes)
		r.Get("/routes/{id}", h.routeDetail)
		r.Get("/routes/{id}/buses", h.busesForRoute)
		r.Get("/routes/{id}/geometry", h.routeGeometry)
		r.Get("/predictions/{id}", h.latestPrediction)
		r.Get("/analytics/{id}", h.analytics)
		r.Get("/health", h.health)
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		deps: deps,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", deps.Cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.deps.Log.Fatalw("server error", "error", err)
		}
	}()
	s.deps.Log.Infow("server listening", "addr", s.http.Addr)
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
