package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/service"
	"github.com/daveytran/playback-stats-staff-payer/internal/billing"
	"github.com/daveytran/playback-stats-staff-payer/internal/config"
	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/notify"
	"github.com/daveytran/playback-stats-staff-payer/internal/obs"
	"github.com/daveytran/playback-stats-staff-payer/internal/worker"
	"github.com/daveytran/playback-stats-staff-payer/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - data
	db     *database.DB
	ledger port.WorkLedger
	store  port.InvoiceStore

	// Billing inputs
	rates billing.RateTable
	staff billing.StaffDirectory

	// Infrastructure - coordination
	redisClient *redis.Client
	lock        port.RunLock
	notifier    port.Notifier

	// Application
	dispatcher dispatcher.Dispatcher
	invoicing  service.InvoicingService

	// Workers
	workers *worker.Manager

	// Telemetry
	tracingShutdown obs.Shutdown

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Telemetry
// 2. Database
// 3. Ledger, rates, staff
// 4. Store, run lock, notifier
// 5. Dispatcher and invoicing service
// 6. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize telemetry
	if err := c.initTelemetry(); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	c.logger.Info("Telemetry initialized")

	// Step 2: Initialize database
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 3: Initialize the ledger and its companion sources
	if err := c.initLedgerSources(); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	c.logger.Info("Ledger initialized", zap.String("backend", c.config.Ledger.Backend))

	// Step 4: Initialize store, run lock and notifier
	if err := c.initCoordination(); err != nil {
		return fmt.Errorf("failed to initialize coordination: %w", err)
	}
	c.logger.Info("Coordination initialized")

	// Step 5: Initialize dispatcher and invoicing service
	if err := c.initDispatcherAndService(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 6: Initialize and start workers
	if err := c.initWorkers(); err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized and started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		c.workers.StopAll()
		c.logger.Info("Workers stopped")
	}

	// Step 2: Close dispatcher (reverse of step 5)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close redis (reverse of step 4)
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Redis client closed")
		}
	}

	// Step 4: Close database (reverse of step 2)
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	// Step 5: Shut down telemetry last so teardown spans still export
	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(context.Background()); err != nil {
			c.logger.Error("Failed to shut down tracing", zap.Error(err))
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database when one is configured
	if c.db != nil {
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	// Check ledger
	if c.ledger != nil {
		status.Components["ledger"] = ComponentHealth{
			Healthy: true,
			Message: c.config.Ledger.Backend,
		}
	} else {
		status.Components["ledger"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check redis when the distributed lock is enabled
	if c.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			status.Components["redis"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["redis"] = ComponentHealth{Healthy: true}
		}
	}

	// Check workers
	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: c.workers.Count() == 0 || c.workers.Running(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		}
		if c.workers.Count() > 0 && !c.workers.Running() {
			status.Overall = false
		}
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

// initTelemetry starts the tracing exporter and publishes build info.
func (c *Container) initTelemetry() error {
	shutdown, err := obs.InitTracing(c.config.Telemetry.ServiceName, c.config.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	c.tracingShutdown = shutdown
	obs.SetAppInfo(c.config.Telemetry.ServiceName, "1.0.0")
	return nil
}

// initDatabase opens the database when any component needs it.
func (c *Container) initDatabase() error {
	if !c.config.Store.Enabled && c.config.Ledger.Backend != config.LedgerBackendSQLite {
		return nil
	}

	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

// initLedgerSources creates the work ledger and loads rates and staff.
func (c *Container) initLedgerSources() error {
	bundle, err := ProvideLedger(&c.config.Ledger, c.db, c.logger)
	if err != nil {
		return err
	}
	c.ledger = bundle.Ledger

	rateTable, err := ProvideRates(&c.config.Rates, bundle.Workbook)
	if err != nil {
		return fmt.Errorf("failed to load rates: %w", err)
	}
	c.rates = rateTable

	directory, err := ProvideStaff(&c.config.Staff, bundle.Workbook)
	if err != nil {
		return fmt.Errorf("failed to load staff directory: %w", err)
	}
	c.staff = directory

	return nil
}

// initCoordination creates the invoice store, run lock and notifier.
func (c *Container) initCoordination() error {
	if c.config.Store.Enabled {
		invoiceStore, err := ProvideStore(c.db, c.logger)
		if err != nil {
			return err
		}
		c.store = invoiceStore
	}

	lockBundle, err := ProvideRunLock(&c.config.Redis, c.logger)
	if err != nil {
		return err
	}
	c.lock = lockBundle.Lock
	c.redisClient = lockBundle.Redis

	c.notifier = ProvideNotifier(&c.config.Lark, c.logger)
	return nil
}

// initDispatcherAndService creates the dispatcher, registers notification
// handlers and wires the invoicing service.
func (c *Container) initDispatcherAndService() error {
	c.dispatcher = ProvideDispatcher(c.logger)
	notify.RegisterHandlers(c.dispatcher, c.notifier)

	invoicing, err := ProvideInvoicingService(&ServiceDeps{
		Ledger:     c.ledger,
		Rates:      c.rates,
		Staff:      c.staff,
		Store:      c.store,
		Lock:       c.lock,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.invoicing = invoicing
	return nil
}

// initWorkers creates and starts background workers.
func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&c.config.Scheduler, c.invoicing, c.logger)
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	return nil
}

// Getters for accessing container components

// Invoicing returns the invoicing service.
func (c *Container) Invoicing() service.InvoicingService {
	return c.invoicing
}

// Ledger returns the work ledger.
func (c *Container) Ledger() port.WorkLedger {
	return c.ledger
}

// Store returns the invoice store, which may be nil when disabled.
func (c *Container) Store() port.InvoiceStore {
	return c.store
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// ServiceLogger returns a service.Logger view of the container's logger.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
