package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/netbar/billing-system/internal/api"
	"github.com/netbar/billing-system/internal/core/ports"
	"github.com/netbar/billing-system/internal/core/service"
	"github.com/netbar/billing-system/internal/infrastructure/broker"
	dbmongo "github.com/netbar/billing-system/internal/infrastructure/db/mongo"
	dbredis "github.com/netbar/billing-system/internal/infrastructure/db/redis"
	"github.com/netbar/billing-system/internal/pkg/config"
	"github.com/netbar/billing-system/pkg/logger"
)

// app holds the live connections and the services built on them.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	client   *mongo.Client
	db       *mongo.Database
	rdb      *redis.Client
	events   broker.Publisher
	revoker  ports.TokenRevoker
	services api.Services
	sessions *service.SessionService
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(loggerOptions(cfg)), nil
}

// loggerOptions keeps production on JSON output whatever LOG_PRETTY says.
func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty && !cfg.IsProduction(),
		Env:    cfg.Env,
	}
}

// connect dials Mongo, Redis and the broker and builds every service.
func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	client, db, err := dbmongo.Connect(ctx, dbmongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	if err := dbmongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := dbredis.Connect(ctx, dbredis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	events, err := broker.New(broker.Config{
		Kind:         cfg.Broker.Kind,
		NATSURL:      cfg.Broker.NATSURL,
		AMQPURL:      cfg.Broker.AMQPURL,
		AMQPExchange: cfg.Broker.AMQPExchange,
	}, logger.Component(log, "broker"))
	if err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, log: log, client: client, db: db, rdb: rdb, events: events}
	a.wire()
	return a, nil
}

func (a *app) wire() {
	admins := dbmongo.NewAdminRepository(a.db)
	users := dbmongo.NewUserRepository(a.db)
	zones := dbmongo.NewZoneRepository(a.db)
	machines := dbmongo.NewMachineRepository(a.db)
	commodities := dbmongo.NewCommodityRepository(a.db)
	orders := dbmongo.NewOrderRepository(a.db)
	messages := dbmongo.NewMessageRepository(a.db)
	logs := dbmongo.NewLogRepository(a.db)

	idem := dbredis.NewIdempotencyStore(a.rdb)
	a.revoker = dbredis.NewTokenRevoker(a.rdb)
	audit := service.NewAudit(logs, logger.Component(a.log, "audit"))

	messageService := service.NewMessageService(messages, users, machines, a.events, audit, a.log)
	a.sessions = service.NewSessionService(users, machines, zones, a.events, audit, a.log)

	a.services = api.Services{
		Auth:        service.NewAuthService(admins, users, a.revoker, audit, a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL),
		Users:       service.NewUserService(users, idem, audit, a.log),
		Sessions:    a.sessions,
		Zones:       service.NewZoneService(zones, machines, audit, a.log),
		Machines:    service.NewMachineService(machines, zones, messageService, a.events, audit, a.log),
		Commodities: service.NewCommodityService(commodities, audit),
		Orders:      service.NewOrderService(orders, users, machines, commodities, idem, a.events, audit, a.log),
		Messages:    messageService,
		Logs:        service.NewLogService(logs),
	}
}

func (a *app) close(ctx context.Context) {
	if err := a.events.Close(); err != nil {
		a.log.Warn().Err(err).Msg("broker close")
	}
	if err := a.rdb.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close")
	}
	if err := a.client.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("mongo disconnect")
	}
}
