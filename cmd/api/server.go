package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"escaperooms-directory/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// create the HTTP server
func (a *App) InitializeServer() {
	a.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// StartServer serves until SIGINT/SIGTERM or a listener failure, then drains
// in-flight requests and pending cache writes.
func (a *App) StartServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.GlobalLogger.Printf("Starting server on %s (cache degraded=%t)", a.Server.Addr, a.Cache.Degraded())
		serveErr <- a.Server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.GlobalLogger.Println("Shutting down server...")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.GlobalLogger.Errorf("Failed to start server: %v", err)
		}
	}

	a.shutdownServer()
}

// shutdown of the server
func (a *App) shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		logger.GlobalLogger.Errorf("Server forced to shutdown: %v", err)
	}
	a.cleanup(ctx)

	logger.GlobalLogger.Println("Server exited")
}
