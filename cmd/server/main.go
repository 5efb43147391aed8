package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"tgwallet/internal/config"
	"tgwallet/internal/handler"
	"tgwallet/internal/infrastructure/cache"
	"tgwallet/internal/infrastructure/database"
	"tgwallet/internal/infrastructure/lock"
	"tgwallet/internal/infrastructure/logging"
	"tgwallet/internal/infrastructure/mq"
	"tgwallet/internal/job"
	"tgwallet/internal/metrics"
	"tgwallet/internal/repository"
	"tgwallet/internal/repository/memory"
	"tgwallet/internal/service"
	"tgwallet/internal/telegram"
	"tgwallet/pkg/cryptocloud"
	"tgwallet/pkg/httpclient"
	"tgwallet/pkg/idgen"
	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/phonecheck"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	fx.New(
		fx.Supply(configFile(*configPath)),
		fx.Provide(
			loadConfig,
			newLogger,
			newRegistry,
			newMetrics,
			newStore,
			newLocker,
			newEventFactory,
			newGateway,
			newGeoLocator,
			newPhoneProvider,
			newVerifier,
			newAccountService,
			service.NewCatalogService,
			service.NewTransactionService,
			newTopUpService,
			newPurchaseService,
			service.NewSeedService,
			newHandler,
			newRouter,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Invoke(initIDGen, seedData, startJobs, startServer),
	).Run()
}

type configFile string

func loadConfig(path configFile) (*config.Config, error) {
	return config.LoadConfig(string(path))
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewMetrics(reg)
}

func newStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("Using in-memory storage, balances are lost on restart")
		return memory.NewStore(), nil
	}

	db, err := database.NewMySQL(&cfg.MySQL, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return repository.NewGormStore(db), nil
}

func newLocker(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (lock.Locker, error) {
	if cfg.Lock.Driver == config.LockLocal {
		return lock.NewLocalLocker(), nil
	}

	client, err := cache.NewRedis(&cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.RetryInterval), nil
}

// newEventFactory only emits outbox rows when something will relay them.
func newEventFactory(cfg *config.Config) *service.EventFactory {
	if !cfg.Kafka.Enabled {
		return service.NewEventFactory("")
	}
	return service.NewEventFactory(cfg.Kafka.Topic)
}

func newGateway(cfg *config.Config) cryptocloud.Gateway {
	return cryptocloud.NewGateway(cfg.CryptoCloud, httpclient.NewHTTPClient(cfg.CryptoCloud.Timeout))
}

func newGeoLocator(cfg *config.Config) ipapi.GeoLocator {
	return ipapi.NewClient(cfg.IPAPI, httpclient.NewHTTPClient(cfg.IPAPI.Timeout))
}

func newPhoneProvider(cfg *config.Config, logger *zap.Logger) phonecheck.Provider {
	pc := cfg.PhoneCheck
	if pc.Provider == phonecheck.ProviderIPQS && pc.APIKey != "" {
		return phonecheck.NewIPQS(pc, httpclient.NewHTTPClient(pc.Timeout))
	}
	logger.Warn("Phone checks are simulated", zap.String("provider", pc.Provider))
	return phonecheck.NewSimulated(pc.Country, pc.Operator, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newVerifier(cfg *config.Config, logger *zap.Logger) *telegram.Verifier {
	if cfg.Telegram.AllowDemoIdentity {
		logger.Warn("Demo identity is enabled, unsigned launch data is accepted")
	}
	return telegram.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.AllowDemoIdentity, cfg.Telegram.MaxAge)
}

func newAccountService(store repository.Store, verifier *telegram.Verifier, m *metrics.Metrics, logger *zap.Logger) *service.AccountService {
	return service.NewAccountService(store, verifier, m, logger.Named("account"))
}

func newTopUpService(
	cfg *config.Config,
	store repository.Store,
	locker lock.Locker,
	gateway cryptocloud.Gateway,
	events *service.EventFactory,
	m *metrics.Metrics,
	logger *zap.Logger,
) *service.TopUpService {
	return service.NewTopUpService(store, locker, gateway, events, &cfg.Business,
		cfg.CryptoCloud.WebhookSecret, m, logger.Named("topup"))
}

func newPurchaseService(
	cfg *config.Config,
	store repository.Store,
	locker lock.Locker,
	geo ipapi.GeoLocator,
	phones phonecheck.Provider,
	events *service.EventFactory,
	m *metrics.Metrics,
	logger *zap.Logger,
) *service.PurchaseService {
	return service.NewPurchaseService(store, locker, geo, phones, events, &cfg.Business, m, logger.Named("purchase"))
}

func newHandler(
	accounts *service.AccountService,
	catalog *service.CatalogService,
	transactions *service.TransactionService,
	topUps *service.TopUpService,
	purchases *service.PurchaseService,
	logger *zap.Logger,
) *handler.Handler {
	return handler.NewHandler(accounts, catalog, transactions, topUps, purchases, logger)
}

func newRouter(h *handler.Handler, cfg *config.Config, m *metrics.Metrics, reg *prometheus.Registry, logger *zap.Logger) (*gin.Engine, error) {
	return handler.SetupRouter(h, &cfg.Server, m, reg, logger.Named("http"))
}

func initIDGen() error {
	return idgen.Init(1)
}

func seedData(lc fx.Lifecycle, seeder *service.SeedService, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return seeder.Seed(ctx, cfg.Demo.SeedData)
		},
	})
}

func startJobs(
	lc fx.Lifecycle,
	cfg *config.Config,
	store repository.Store,
	topUps *service.TopUpService,
	m *metrics.Metrics,
	logger *zap.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	reconcile := job.NewInvoiceReconcileJob(store, topUps, cfg.Business.ReconcileInterval, cfg.Business.ReconcileGrace, m, logger)

	var (
		producer *mq.Producer
		sender   *job.OutboxSender
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if cfg.Kafka.Enabled {
				p, err := mq.NewKafkaProducer(&cfg.Kafka)
				if err != nil {
					cancel()
					return err
				}
				producer = p
				sender = job.NewOutboxSender(store, producer, cfg.Business.OutboxInterval, cfg.Business.MaxRetryCount, m, logger)
				go sender.Start(ctx)
			}
			go reconcile.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			reconcile.Stop()
			if sender != nil {
				sender.Stop()
			}
			cancel()
			if producer != nil {
				return producer.Close()
			}
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			logger.Info("HTTP server listening", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server")
			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			return server.Shutdown(ctx)
		},
	})
}
