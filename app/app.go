// Package app wires the task store, the board service and the HTTP routes
// into a running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskbank/app/config"
	"taskbank/app/controllers"
	"taskbank/app/routes"
	"taskbank/app/services"
	"taskbank/app/store"
)

// Server serves the task board over HTTP.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *mux.Router
}

// New builds a server around an open store.
func New(cfg *config.Config, logger *zap.Logger, st store.Store) *Server {
	// Initialize the service layer
	taskService := services.NewTaskService(st, logger, services.WithCompiler(cfg.Compiler()))

	// Initialize the controller layer
	taskController := controllers.NewTaskController(taskService, logger)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, taskController, logger)

	return &Server{cfg: cfg, logger: logger, router: router}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Run opens the configured store and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())
	logger.Info("store opened", zap.String("driver", cfg.Store.Driver))

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	return New(cfg, logger, st).Serve(ctx, ln)
}
