package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server wires the allocation service into an HTTP API.
type Server struct {
	service *AllocationService
	metrics *Metrics
	router  chi.Router
}

// New builds the HTTP server around an allocation service.
func New(service *AllocationService, metrics *Metrics) *Server {
	s := &Server{service: service, metrics: metrics}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler, exposed for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	logrus.Infof("parking API listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/parking", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/status/{policy}", s.handleStatusByPolicy)
		r.Post("/allocate", s.handleAllocate)
		r.Post("/allocate/bulk", s.handleAllocateBulk)
		r.Get("/allocations", s.handleListAllocations)
		r.Get("/allocation/{id}", s.handleGetAllocation)
		r.Put("/allocation/{id}", s.handleUpdateAllocation)
		r.Delete("/allocation/{id}", s.handleEndAllocation)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/compare", s.handleCompare)
		r.Delete("/clear/{policy}", s.handleClear)
	})
	return r
}
