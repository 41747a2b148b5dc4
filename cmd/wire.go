package cmd

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"

	"github.com/looply-app/looply-agent/internal/adapters/cachestore/disk"
	"github.com/looply-app/looply-agent/internal/adapters/clients/hub"
	"github.com/looply-app/looply-agent/internal/adapters/httpapi"
	"github.com/looply-app/looply-agent/internal/adapters/notify"
	"github.com/looply-app/looply-agent/internal/adapters/origin"
	"github.com/looply-app/looply-agent/internal/application"
	"github.com/looply-app/looply-agent/internal/config"
	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

type app struct {
	cfg       config.Config
	logger    *slog.Logger
	lifecycle *application.LifecycleService
	server    *httpapi.Server
	pending   *application.PendingWork
}

func wireApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store, err := disk.NewStore(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("wire cache store: %w", err)
	}

	fetcher, err := origin.NewFetcher(cfg.OriginURL, cfg.FetchTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("wire origin fetcher: %w", err)
	}

	opener, err := windowOpener(cfg, logger)
	if err != nil {
		return nil, err
	}
	clients := hub.New(opener, logger)
	bus := application.NewBusService(clients, logger)

	bootstrap, err := cfg.BootstrapPaths()
	if err != nil {
		return nil, fmt.Errorf("resolve bootstrap set: %w", err)
	}

	state := application.NewAgentState(domain.CacheVersion(cfg.CacheVersion))
	lifecycle := application.NewLifecycleService(store, fetcher, bus, state, bootstrap, logger)
	intercept := application.NewInterceptService(store, fetcher, state, cfg.OfflinePath, ports.SystemClock{}, logger)
	push := application.NewPushService(notify.NewLogNotifier(logger), bus, logger)
	control := application.NewControlService(lifecycle, bus, logger)
	share := application.NewShareService(bus, logger)
	pending := application.NewPendingWork()

	return &app{
		cfg:       cfg,
		logger:    logger,
		lifecycle: lifecycle,
		server:    httpapi.NewServer(intercept, push, control, share, clients, pending, logger),
		pending:   pending,
	}, nil
}

// windowOpener launches a browser window at an app-relative deep link via
// the configured open command.
func windowOpener(cfg config.Config, logger *slog.Logger) (func(string) error, error) {
	if cfg.OpenCommand == "" {
		return nil, nil
	}
	base, err := url.Parse(cfg.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}

	return func(target string) error {
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("parse window target: %w", err)
		}
		resolved := base.ResolveReference(u).String()
		logger.Info("opening window", "url", resolved)
		return exec.Command(cfg.OpenCommand, resolved).Start()
	}, nil
}
