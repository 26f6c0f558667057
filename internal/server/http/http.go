// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package http runs the explorer API over HTTP or HTTPS.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/absmach/twinexplorer/internal/server"
)

const (
	defShutdownTimeout = 5 * time.Second
	httpProtocol       = "http"
	httpsProtocol      = "https"
)

// Server serves an http.Handler until its context is canceled.
type Server struct {
	server.BaseServer
	server *http.Server
}

var _ server.Server = (*Server)(nil)

func New(ctx context.Context, cancel context.CancelFunc, name string, config server.Config, handler http.Handler, logger *slog.Logger) server.Server {
	address := net.JoinHostPort(config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: config.ReadTimeout,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	return &Server{
		BaseServer: server.BaseServer{
			Ctx:     ctx,
			Cancel:  cancel,
			Name:    name,
			Address: address,
			Config:  config,
			Logger:  logger,
		},
		server: httpServer,
	}
}

func (s *Server) Start() error {
	errCh := make(chan error, 1)
	s.Protocol = httpProtocol
	tls := s.Config.CertFile != "" || s.Config.KeyFile != ""
	if tls {
		s.Protocol = httpsProtocol
	}
	s.Logger.Info("server listening",
		slog.String("service", s.Name),
		slog.String("protocol", s.Protocol),
		slog.String("address", s.Address),
		slog.Bool("tls", tls),
	)

	go func() {
		if tls {
			errCh <- s.server.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
			return
		}
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-s.Ctx.Done():
		return s.Stop()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) Stop() error {
	defer s.Cancel()

	timeout := s.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.Logger.Error("server shutdown failed", slog.String("service", s.Name), slog.String("address", s.Address), slog.Any("error", err))
		return fmt.Errorf("%s %s server shutdown at %s: %w", s.Name, s.Protocol, s.Address, err)
	}
	s.Logger.Info("server shut down", slog.String("service", s.Name), slog.String("protocol", s.Protocol), slog.String("address", s.Address))

	return nil
}
