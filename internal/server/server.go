// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package server contains the lifecycle shared by explorer servers.
package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
)

type Server interface {
	Start() error
	Stop() error
}

// Config holds the listener settings. Graph loads stream many store pages
// before answering, so WriteTimeout is disabled unless set.
type Config struct {
	Host            string        `env:"HOST"             envDefault:""`
	Port            string        `env:"PORT"             envDefault:""`
	CertFile        string        `env:"SERVER_CERT"      envDefault:""`
	KeyFile         string        `env:"SERVER_KEY"       envDefault:""`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

type BaseServer struct {
	Ctx      context.Context
	Cancel   context.CancelFunc
	Name     string
	Address  string
	Config   Config
	Logger   *slog.Logger
	Protocol string
}

func stopAll(servers ...Server) error {
	var errs error
	for _, s := range servers {
		if err := s.Stop(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs
}

// StopSignalHandler stops the servers on SIGINT or SIGTERM, or returns when
// ctx is done.
func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, svcName string, servers ...Server) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		defer cancel()
		err := stopAll(servers...)
		if err != nil {
			logger.Error("shutdown failed", slog.String("service", svcName), slog.Any("error", err))
		}
		logger.Info("service shut down by signal", slog.String("service", svcName), slog.String("signal", sig.String()))
		return err
	case <-ctx.Done():
		return nil
	}
}
