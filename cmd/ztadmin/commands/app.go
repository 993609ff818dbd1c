package commands

import (
	"context"
	"encoding/json"
	"os"
	"os/user"
	"time"

	"github.com/ztadmin/ztadmin/pkg/admin"
	"github.com/ztadmin/ztadmin/pkg/config"
	"github.com/ztadmin/ztadmin/pkg/controller"
	"github.com/ztadmin/ztadmin/pkg/reconcile"
	"github.com/ztadmin/ztadmin/pkg/stores"
	"github.com/ztadmin/ztadmin/pkg/telemetry"
	"github.com/ztadmin/ztadmin/pkg/world"
)

// metricsAddrOverride enables the metrics endpoint for commands that run
// long enough to serve one.
var metricsAddrOverride string

// app bundles the wired components every subcommand needs.
type app struct {
	cfg     *config.Config
	tel     *telemetry.Telemetry
	store   stores.Store
	client  *controller.Client
	manager *world.Manager
	service *admin.Service
}

// setupApp loads the configuration, applies global flag overrides, and
// wires the store, controller client, world manager, and admin service.
func setupApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Flags override file and environment.
	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}
	if controllerURL != "" {
		cfg.Controller.URL = controllerURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if metricsAddrOverride != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsAddrOverride
	}

	tel, err := newTelemetry(cfg, buildVersion)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	logger := tel.Logger.Zerolog()
	client := controller.New(cfg.Controller.URL, cfg.Controller.Token,
		controller.WithTimeout(cfg.Controller.Timeout),
		controller.WithLogger(logger))

	engine, err := reconcile.NewEngine(reconcile.EngineConfig{
		Client: client,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	manager, err := world.NewManager(world.ManagerConfig{
		DataRoot:  cfg.DataRoot,
		Generator: cfg.Generator,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	service, err := admin.NewService(admin.ServiceConfig{
		Client:  client,
		Engine:  engine,
		Manager: manager,
		Store:   store,
		Events:  tel.Events,
		Metrics: tel.Metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:     cfg,
		tel:     tel,
		store:   store,
		client:  client,
		manager: manager,
		service: service,
	}, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.tel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = a.tel.Shutdown(shutdownCtx)
	}
}

// newTelemetry maps the file configuration onto the telemetry stack.
func newTelemetry(cfg *config.Config, version string) (*telemetry.Telemetry, error) {
	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	tcfg.Logging.Level = cfg.Log.Level
	tcfg.Logging.Format = cfg.Log.Format
	tcfg.Metrics.Enabled = cfg.Metrics.Enabled
	tcfg.Metrics.ListenAddress = cfg.Metrics.ListenAddress
	tcfg.Tracing.Enabled = cfg.Tracing.Enabled
	tcfg.Tracing.Exporter = cfg.Tracing.Exporter
	tcfg.Tracing.Endpoint = cfg.Tracing.Endpoint
	tcfg.Tracing.SamplingRate = cfg.Tracing.SamplingRate
	return telemetry.NewTelemetry(tcfg)
}

// openStore creates, initializes, and migrates the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (stores.Store, error) {
	var store stores.Store
	switch cfg.Store.Backend {
	case "memory":
		store = stores.NewMemoryStore()
	default:
		s, err := stores.NewSQLiteStore(stores.Config{Path: cfg.Store.Path})
		if err != nil {
			return nil, err
		}
		store = s
	}

	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := store.HealthCheck(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// currentActor identifies the invoking user for audit records.
func currentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
