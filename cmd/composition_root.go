package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"mfps/internal/adapters/in/bus"
	httpin "mfps/internal/adapters/in/http"
	"mfps/internal/adapters/out/membus"
	"mfps/internal/adapters/out/memstore"
	"mfps/internal/adapters/out/postgres/metricsrepo"
	"mfps/internal/adapters/out/postgres/outboxrepo"
	"mfps/internal/core/application/assemblyflow"
	"mfps/internal/core/application/pipeline"
	"mfps/internal/core/application/transportflow"
	"mfps/internal/core/domain/model/transport"
	"mfps/internal/core/domain/services"
	"mfps/internal/core/ports"
	"mfps/internal/jobs"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CompositionRoot wires the whole system: the in-memory bus, the pipeline
// stages, both subsystem services, their listeners and the background jobs.
type CompositionRoot struct {
	Bus          *membus.Bus
	AssemblySvc  *assemblyflow.Service
	TransportSvc *transportflow.Service
	HTTPServer   *httpin.Server
	JobManager   *jobs.JobManager
	logger       *slog.Logger
}

// NewCompositionRoot builds the object graph from the config. Call Start to
// bring the background machinery up.
func NewCompositionRoot(config Config, logger *slog.Logger) (*CompositionRoot, error) {
	outbox, metrics, err := buildStorage(config)
	if err != nil {
		return nil, err
	}

	messageBus := membus.NewBus(logger)
	gate := pipeline.NewDuplicationGate()

	receiveStage := pipeline.NewReceiveStage(messageBus, logger)
	connectStage := pipeline.NewConnectStage(messageBus, gate, pipeline.DefaultEnrichment, logger)
	sendStage := pipeline.NewSendStage(messageBus, outbox, gate, logger)
	notifyStage := pipeline.NewNotifyStage(messageBus, gate, logger)
	pipeline.NewConsumers(connectStage, sendStage, notifyStage, logger).Register(messageBus)

	assemblyCfg := assemblyflow.DefaultConfig()
	if config.QueueCapacity > 0 {
		assemblyCfg.QueueCapacity = config.QueueCapacity
	}
	assemblyCfg.TestRunID = config.TestRunID
	assemblySvc := assemblyflow.NewService(
		receiveStage, metrics, services.NewLineRouter(), assemblyCfg, logger)

	fleet, err := transport.NewVehiclePool(transport.DefaultFleetSize)
	if err != nil {
		return nil, err
	}
	transportSvc := transportflow.NewService(
		receiveStage, fleet, metrics, transportflow.DefaultConfig(), logger)

	drainBatch := config.DrainBatchSize
	if drainBatch <= 0 {
		drainBatch = 100
	}

	return &CompositionRoot{
		Bus:          messageBus,
		AssemblySvc:  assemblySvc,
		TransportSvc: transportSvc,
		HTTPServer:   httpin.NewServer(assemblySvc, transportSvc, logger),
		JobManager:   jobs.NewJobManager(sendStage, drainBatch, logger),
		logger:       logger,
	}, nil
}

// Start brings up the bus dispatch loop, the reply and order listeners, the
// admission drain loop and the scheduled jobs.
func (c *CompositionRoot) Start(ctx context.Context) error {
	bus.NewAssemblyReplyListener(c.AssemblySvc, c.logger).Register(c.Bus)
	bus.NewTransportOrderListener(c.TransportSvc, c.logger).Register(ctx, c.Bus)

	c.Bus.Start(ctx)
	c.AssemblySvc.Start(ctx)

	return c.JobManager.StartAll()
}

// Stop shuts the background machinery down.
func (c *CompositionRoot) Stop() {
	c.JobManager.StopAll()
	c.Bus.Stop()
}

func buildStorage(config Config) (ports.OutboxStore, ports.MetricsSink, error) {
	switch config.Storage {
	case "", StorageMemory:
		return memstore.NewOutboxStore(), memstore.NewMetricsSink(), nil

	case StoragePostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName, config.DBSslMode)
		db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.AutoMigrate(
			&outboxrepo.OutboxRecordDTO{},
			&metricsrepo.OrderMetricsDTO{},
			&metricsrepo.StateTransitionDTO{},
			&metricsrepo.QueueEventDTO{},
		); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		return outboxrepo.NewGormOutboxRepository(db), metricsrepo.NewGormMetricsRepository(db), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", config.Storage)
	}
}
