package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"livechat-backend/internal/queue"
	"livechat-backend/internal/websocket"
)

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

// Config carries the listener and CORS settings so nothing in this package
// reads the environment directly.
type Config struct {
	ListenAddr  string
	CORSOrigins []string
}

type APIServer struct {
	cfg             Config
	queueManager    *queue.Manager
	gateway         *websocket.Gateway
	log             *zap.Logger
	routeRegistrars []RouteRegistrar
	metrics         *metrics
	server          *http.Server
}

func NewAPIServer(cfg Config, qm *queue.Manager, gateway *websocket.Gateway, log *zap.Logger, registrars ...RouteRegistrar) *APIServer {
	return &APIServer{
		cfg:             cfg,
		queueManager:    qm,
		gateway:         gateway,
		log:             log,
		routeRegistrars: registrars,
		metrics:         newMetrics(prometheus.DefaultRegisterer, cfg.ListenAddr, qm),
	}
}

// Run blocks until the listener stops. A Shutdown-initiated stop returns nil.
func (s *APIServer) Run() error {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	s.server = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.metrics.instrument(mux),
	}

	s.log.Info("server listening", zap.String("addr", s.cfg.ListenAddr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *APIServer) Gateway() *websocket.Gateway {
	return s.gateway
}

func (s *APIServer) Logger() *zap.Logger {
	return s.log
}
