package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/api/rest"
	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/common/logger"
	conf "github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/provider"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
)

type App struct {
	stop       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	Conf       conf.Config
	DB         storage.Store
	Wallet     *wallet.WalletManager
	Registry   *chain.Registry
	Dispatcher *provider.Dispatcher
	Hub        *api.WSHub
	Metrics    *prometheus.Registry
	restServer *rest.Server
}

type Option func(*options)

type options struct {
	factory chain.ClientFactory
}

// WithClientFactory replaces the node client factory (tests, offline use)
func WithClientFactory(f chain.ClientFactory) Option {
	return func(o *options) { o.factory = f }
}

func New(configPath string, opts ...Option) (*App, error) {
	cfg, err := conf.NewConfig(configPath)
	if err != nil {
		fmt.Println("Failed to initialized application: ", err)
		return nil, err
	}

	if err := logger.InitLogger(cfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return nil, err
	}

	return NewWithConfig(cfg, opts...)
}

// NewWithConfig wires every service from an already loaded config
func NewWithConfig(cfg *conf.Config, opts ...Option) (*App, error) {
	o := &options{factory: chain.NewNodeClientFactory(chain.NodeOptionsFromConfig(cfg.Node))}
	for _, opt := range opts {
		opt(o)
	}

	db, err := storage.InitDB(cfg)
	if err != nil {
		logger.Error("Failed to load db: ", err)
		return nil, err
	}

	wm := wallet.NewWalletManager(db, wallet.WithWalletConfig(cfg.Wallet))

	registry, err := chain.NewRegistry(cfg.Chains, cfg.Common.DefaultChain, o.factory)
	if err != nil {
		db.Close()
		logger.Error("Failed to load chain registry: ", err)
		return nil, err
	}

	chainLog := logger.Named("chain")
	registry.OnSwitch(func(from, to chain.Descriptor) {
		chainLog.Info("active chain changed",
			zap.Uint64("from", uint64(from.ID)),
			zap.Uint64("to", uint64(to.ID)),
			zap.String("endpoint", to.URL))
	})

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := api.NewWSHub()
	dispatcher := provider.NewDispatcher(
		provider.NewWalletSnapshotter(wm, registry),
		registry,
		provider.WithEmitter(hub),
		provider.WithMetrics(provider.NewMetrics(metrics)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		stop:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		Conf:       *cfg,
		DB:         db,
		Wallet:     wm,
		Registry:   registry,
		Dispatcher: dispatcher,
		Hub:        hub,
		Metrics:    metrics,
	}

	hub.SetGreetingProvider(app.greeting)

	if cfg.Wallet.PasswordFile != "" {
		if err := app.unlockFromFile(cfg.Wallet.PasswordFile); err != nil {
			logger.Warn("wallet stays locked: ", err)
		}
	}

	app.restServer = rest.NewServer(cfg.Server.Host, cfg.Server.RestPort, rest.Deps{
		Wallet:     wm,
		Registry:   registry,
		Dispatcher: dispatcher,
		Hub:        hub,
		Gatherer:   metrics,
	})

	return app, nil
}

func (p *App) unlockFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()
	if err := p.Wallet.Keyring().Unlock(ctx, strings.TrimRight(string(raw), "\r\n")); err != nil {
		return err
	}
	logger.Info("wallet unlocked from password file")
	return nil
}

// greeting is sent to every new websocket client
func (p *App) greeting() interface{} {
	data := map[string]interface{}{
		"chainId": p.Registry.CurrentChain().ID.Hex(),
	}
	if accounts, err := p.Wallet.UnlockedAccounts(p.ctx); err == nil {
		addrs := make([]string, 0, len(accounts))
		for _, a := range accounts {
			addrs = append(addrs, a.Hex())
		}
		data["accounts"] = addrs
	}
	return data
}

func (p *App) NewRest() error {
	if err := p.restServer.Start(p.ctx); err != nil {
		return fmt.Errorf("failed to start REST API server: %w", err)
	}

	logger.Info("All services started")
	return nil
}

// Handler exposes the HTTP surface without binding a port
func (p *App) Handler() http.Handler {
	return p.restServer.Handler()
}

// Cleanup releases the server, clients and db
func (p *App) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.restServer != nil {
		if err := p.restServer.Stop(ctx); err != nil {
			logger.Error("Error stopping REST API server: ", err)
		}
	}
	p.cancel()

	if p.Registry != nil {
		p.Registry.Close()
	}

	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			logger.Error("Error closing DB connection: ", err)
		}
	}

	logger.Info("All resources cleaned up")
	logger.Sync()
}

func (p *App) Wait() {
	<-p.stop
}

func (p *App) Terminate() {
	p.Cleanup()
	close(p.stop)
}

func (p *App) SigHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Arrived terminate signal: ", sig)
		p.Terminate()
	}()
}
