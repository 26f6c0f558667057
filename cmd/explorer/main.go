// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the twin graph explorer main function to start the
// service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/explorer/api"
	httpapi "github.com/absmach/twinexplorer/explorer/api/http"
	"github.com/absmach/twinexplorer/graph"
	jaegerclient "github.com/absmach/twinexplorer/internal/clients/jaeger"
	redisclient "github.com/absmach/twinexplorer/internal/clients/redis"
	"github.com/absmach/twinexplorer/internal/env"
	"github.com/absmach/twinexplorer/internal/server"
	httpserver "github.com/absmach/twinexplorer/internal/server/http"
	mglog "github.com/absmach/twinexplorer/logger"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/pkg/prometheus"
	"github.com/absmach/twinexplorer/pkg/sdk"
	"github.com/absmach/twinexplorer/pkg/ulid"
	"github.com/absmach/twinexplorer/pkg/uuid"
	"github.com/absmach/twinexplorer/twins"
	twapi "github.com/absmach/twinexplorer/twins/api"
	twredis "github.com/absmach/twinexplorer/twins/redis"
	twtracing "github.com/absmach/twinexplorer/twins/tracing"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "explorer"
	envPrefixHTTP  = "MG_EXPLORER_HTTP_"
	envPrefixStore = "MG_EXPLORER_STORE_"
	defSvcHTTPPort = "9030"
)

var errIDKind = errors.New("unsupported id kind")

type config struct {
	LogLevel   string  `env:"MG_EXPLORER_LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `env:"MG_EXPLORER_INSTANCE_ID" envDefault:""`
	IDKind     string  `env:"MG_EXPLORER_ID_KIND"     envDefault:"ulid"`
	IDPrefix   string  `env:"MG_EXPLORER_ID_PREFIX"   envDefault:""`
	Cache      string  `env:"MG_EXPLORER_CACHE"       envDefault:"none"`
	CacheURL   string  `env:"MG_EXPLORER_CACHE_URL"   envDefault:"redis://localhost:6379/0"`
	JaegerURL  string  `env:"MG_JAEGER_URL"           envDefault:""`
	TraceRatio float64 `env:"MG_JAEGER_TRACE_RATIO"   envDefault:"1.0"`
}

type storeConfig struct {
	URL               string        `env:"URL"                 envDefault:"http://localhost:8080"`
	Token             string        `env:"TOKEN"               envDefault:""`
	APIVersion        string        `env:"API_VERSION"         envDefault:"2020-10-31"`
	TLSVerification   bool          `env:"TLS_VERIFICATION"    envDefault:"true"`
	Timeout           time.Duration `env:"TIMEOUT"             envDefault:"30s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"0"`
	Burst             int           `env:"BURST"               envDefault:"1"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	// A missing .env file is not an error; the environment may be set
	// directly.
	_ = godotenv.Load(envFiles()...)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := mglog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err.Error())
	}

	var exitCode int
	defer mglog.ExitWithError(&exitCode)

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = ulid.New().ID(); err != nil {
			logger.Error(fmt.Sprintf("failed to generate instanceID: %s", err))
			exitCode = 1
			return
		}
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}

	storeCfg := storeConfig{}
	if err := env.Parse(&storeCfg, env.Options{Prefix: envPrefixStore}); err != nil {
		logger.Error(fmt.Sprintf("failed to load twin store configuration : %s", err))
		exitCode = 1
		return
	}

	var tracer trace.Tracer = trace.NewNoopTracerProvider().Tracer(svcName)
	if cfg.JaegerURL != "" {
		tp, err := jaegerclient.NewProvider(ctx, svcName, cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to init Jaeger: %s", err))
			exitCode = 1
			return
		}
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("error shutting down tracer provider: %v", err))
			}
		}()
		tracer = tp.Tracer(svcName)
	}

	store, err := sdk.NewStore(sdk.Config{
		URL:               storeCfg.URL,
		Token:             storeCfg.Token,
		APIVersion:        storeCfg.APIVersion,
		TLSVerification:   storeCfg.TLSVerification,
		Timeout:           storeCfg.Timeout,
		RequestsPerSecond: storeCfg.RequestsPerSecond,
		Burst:             storeCfg.Burst,
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create twin store client: %s", err))
		exitCode = 1
		return
	}
	store = twtracing.New(tracer, store)
	store = twapi.LoggingMiddleware(store, logger)
	counter, latency := prometheus.MakeMetrics("twin_store", "api")
	store = twapi.MetricsMiddleware(store, counter, latency)

	cacheMode, err := twins.ParseCacheMode(cfg.Cache)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load cache configuration : %s", err))
		exitCode = 1
		return
	}
	client := twins.NewClient(store)
	switch cacheMode {
	case twins.CacheMemory:
		client = twins.NewCachedClient(client, twins.NewMemoryCache())
	case twins.CacheRedis:
		cacheClient, err := redisclient.Connect(ctx, cfg.CacheURL)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to connect to cache: %s", err))
			exitCode = 1
			return
		}
		defer cacheClient.Close()
		client = twins.NewCachedClient(client, twredis.NewCache(cacheClient))
	}
	logger.Info(fmt.Sprintf("%s listing cache: %s", svcName, cacheMode))

	idp, err := newIDProvider(cfg.IDKind, cfg.IDPrefix)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load id configuration : %s", err))
		exitCode = 1
		return
	}
	svc := newService(client, idp, logger)

	httpSvc := httpserver.New(ctx, cancel, svcName, httpServerConfig, httpapi.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return httpSvc.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, httpSvc)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

// newIDProvider returns the generator of ids for twins created without one.
// Only uuid ids take a prefix.
func newIDProvider(kind, prefix string) (twinexplorer.IDProvider, error) {
	switch kind {
	case "", "ulid":
		if prefix != "" {
			return nil, errors.Wrap(errIDKind, errors.New("ulid ids take no prefix"))
		}
		return ulid.New(), nil
	case "uuid":
		return uuid.NewWithPrefix(prefix), nil
	default:
		return nil, errors.Wrap(errIDKind, errors.New(kind))
	}
}

func newService(client twins.Client, idp twinexplorer.IDProvider, logger *slog.Logger) explorer.Service {
	canvas := graph.NewCanvas(func(_ context.Context, tws []twins.Twin, rels []twins.Relationship) error {
		logger.Debug("graph layout requested", slog.Int("twins", len(tws)), slog.Int("relationships", len(rels)))
		return nil
	})

	svc := explorer.New(client, canvas, idp, logger)
	svc = api.LoggingMiddleware(svc, logger)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	size := prometheus.MakeGraphMetrics(svcName, "graph")
	svc = api.MetricsMiddleware(svc, counter, latency, size)

	return svc
}

func envFiles() []string {
	if f := os.Getenv("MG_EXPLORER_ENV_FILE"); f != "" {
		return []string{f}
	}

	return nil
}
