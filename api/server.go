package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/axiomesh/govtracker/clock"
	"github.com/axiomesh/govtracker/core"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const maxPostSize int64 = 1024 * 64

type Server struct {
	router *mux.Router
	http   *http.Server

	// settings
	maxPostSize int64

	// handler dependencies
	gov     *core.Governor
	clock   clock.Clock
	logger  logrus.FieldLogger
	metrics *metrics
}

// NewServer binds every route. registry may be nil, metrics are then kept in a private registry.
func NewServer(gov *core.Governor, clk clock.Clock, registry *prometheus.Registry, logger logrus.FieldLogger) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &Server{
		router:      mux.NewRouter(),
		maxPostSize: maxPostSize,
		gov:         gov,
		clock:       clk,
		logger:      logger,
		metrics:     newMetrics(registry),
	}
	s.metrics.proposals.Set(float64(gov.ProposalCount()))
	return s.bindRoutes()
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the bound address.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen %s", addr)
	}
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("api server: %s", err)
		}
	}()
	s.logger.WithField("addr", ln.Addr().String()).Info("api server started")
	return ln.Addr().String(), nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
