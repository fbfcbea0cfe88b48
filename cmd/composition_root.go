package cmd

import (
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/meshtcp"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/core/application/messaging"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	transport *meshtcp.Client
	geocoder  *geo.Client
	messenger *messaging.ReliableMessenger
	router    *messaging.Router

	silenceWindow time.Duration
	logger        *slog.Logger
}

// NewCompositionRoot wires the long-lived pieces: the transactional factory,
// the bridge transport, the geocoder, the reliable messenger, and the inbound
// router. Handlers are created per call from these shared pieces.
func NewCompositionRoot(configs Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		gormDB:        gormDB,
		uowFactory:    postgres.NewGormUnitOfWorkFactory(gormDB),
		silenceWindow: durationOrDefault(configs.UnitSilenceWindow, 90*time.Second),
		logger:        logger,
	}

	transport, err := meshtcp.NewClient(
		configs.MeshBridgeAddr,
		durationOrDefault(configs.MeshReconnectDelay, 5*time.Second),
		logger,
	)
	if err != nil {
		return nil, err
	}
	root.transport = transport

	geocoder, err := geo.NewClient(
		configs.GeocoderURL,
		intOrDefault(configs.GeocoderMaxAttempts, 3),
		durationOrDefault(configs.GeocoderBackoff, time.Second),
		logger,
	)
	if err != nil {
		return nil, err
	}
	root.geocoder = geocoder

	messenger, err := messaging.NewReliableMessenger(
		root.uowFactory,
		transport,
		logger,
		durationOrDefault(configs.AckBaseWindow, messaging.DefaultAckWindow),
		intOrDefault(configs.AckMaxRetries, messaging.DefaultMaxRetries),
	)
	if err != nil {
		return nil, err
	}
	root.messenger = messenger

	reportHandler := root.CreateRecordUnitReportCommandHandler()
	router, err := messaging.NewRouter(
		messenger,
		&reportHandler,
		logger,
		intOrDefault(configs.RouterQueueSize, messaging.DefaultQueueSize),
		intOrDefault(configs.RouterWorkers, messaging.DefaultWorkers),
	)
	if err != nil {
		return nil, err
	}
	root.router = router

	return root, nil
}

func (c *CompositionRoot) Transport() *meshtcp.Client {
	return c.transport
}

func (c *CompositionRoot) Messenger() *messaging.ReliableMessenger {
	return c.messenger
}

func (c *CompositionRoot) Router() *messaging.Router {
	return c.router
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() commands.CreateDeliveryCommandHandler {
	var f commands.DeliveryUoWFactory = FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateDeliveryCommandHandler(f, c.geocoder)
}

func (c *CompositionRoot) CreateAssignDeliveryCommandHandler() commands.AssignDeliveryCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignDeliveryCommandHandler(f, services.NewUnitDispatcher(), c.messenger)
}

func (c *CompositionRoot) CreateUpdateDeliveryStatusCommandHandler() commands.UpdateDeliveryStatusCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpdateDeliveryStatusCommandHandler(f, c.messenger, c.logger)
}

func (c *CompositionRoot) CreateRecordUnitReportCommandHandler() commands.RecordUnitReportCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewRecordUnitReportCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreateMarkUnitsOfflineCommandHandler() commands.MarkUnitsOfflineCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewMarkUnitsOfflineCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreateGetAllDeliveriesQueryHandler() queries.GetAllDeliveriesQueryHandler {
	return queries.NewGetAllDeliveriesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetAllUnitsQueryHandler() queries.GetAllUnitsQueryHandler {
	return queries.NewGetAllUnitsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *http.Server {
	return http.NewServer(
		c.CreateCreateDeliveryCommandHandler(),
		c.CreateAssignDeliveryCommandHandler(),
		c.CreateUpdateDeliveryStatusCommandHandler(),
		c.CreateGetAllDeliveriesQueryHandler(),
		c.CreateGetAllUnitsQueryHandler(),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	var f commands.DeliveryUoWFactory = FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
	return jobs.NewJobManager(
		f,
		c.CreateAssignDeliveryCommandHandler(),
		c.CreateMarkUnitsOfflineCommandHandler(),
		c.silenceWindow,
		c.logger,
	)
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

func durationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func intOrDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
