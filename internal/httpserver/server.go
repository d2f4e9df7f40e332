package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"posnotif/internal/observability"
)

type Server struct {
	Mux *mux.Router
}

// New returns a router with health endpoints, request logging and metrics installed.
func New(readyTimeout time.Duration, checks ...ReadyzCheck) *Server {
	m := mux.NewRouter()
	m.Use(Logging, Metrics(observability.APIRequests))
	m.HandleFunc("/healthz", Healthz()).Methods(http.MethodGet)
	m.HandleFunc("/readyz", Readyz(readyTimeout, checks...)).Methods(http.MethodGet)
	return &Server{Mux: m}
}

func (s *Server) Handler() http.Handler {
	return s.Mux
}

// MetricsHandler serves the default prometheus registry on its own port.
func MetricsHandler() http.Handler {
	m := mux.NewRouter()
	m.Handle("/metrics", promhttp.Handler())
	return m
}
