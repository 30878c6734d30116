package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/config"
	"github.com/techagentng/ecodenuncia/services"
	"github.com/techagentng/ecodenuncia/session"
)

// Server is the local front-end: it serves the pages' JSON state and drives the
// workflows on behalf of the browser shell.
type Server struct {
	Config          *config.Config
	Logger          *logrus.Logger
	Session         *session.Store
	Navigation      *NavigationHub
	AuthService     services.AuthService
	DenunciaService services.DenunciaService
	Geocoder        services.GeocodingService
	Locations       *services.LocationSelector
	Submission      *services.SubmissionWorkflow
	Historico       *services.ListingEngine
	Painel          *services.ListingEngine
}

func (s *Server) Start() {
	router := s.setupRouter()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.Port),
		Handler: router,
	}

	go func() {
		if err := s.Geocoder.Init(context.Background()); err != nil {
			s.Logger.WithError(err).Error("map features disabled until the geocoder recovers")
		}
	}()

	go func() {
		s.Logger.Infof("server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Fatalf("server forced to shutdown: %v", err)
	}
	s.Logger.Info("server exiting")
}
