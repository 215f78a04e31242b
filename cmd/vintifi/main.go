package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sublimeanger/vintifi/modules/dashboard"
	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/artifact"
	"github.com/sublimeanger/vintifi/pkg/billing"
	"github.com/sublimeanger/vintifi/pkg/config"
	"github.com/sublimeanger/vintifi/pkg/email"
	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/httpserver"
	"github.com/sublimeanger/vintifi/pkg/ledger"
	"github.com/sublimeanger/vintifi/pkg/logger"
	"github.com/sublimeanger/vintifi/pkg/metering"
	"github.com/sublimeanger/vintifi/pkg/mongo"
	"github.com/sublimeanger/vintifi/pkg/pg"
	"github.com/sublimeanger/vintifi/pkg/redis"
)

type appConfig struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"production"`
	CatalogPath   string `env:"CATALOG_PATH"`
	DevEmailDir   string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"redis"`
}

func main() {
	ctx := context.Background()

	var (
		appCfg      appConfig
		logCfg      logger.Config
		pgCfg       pg.Config
		redisCfg    redis.Config
		httpCfg     httpserver.Config
		paddleCfg   billing.PaddleConfig
		emailCfg    email.Config
		gatewayCfg  dashboard.GatewayConfig
		artifactCfg artifact.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&paddleCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&gatewayCfg)
	config.MustLoad(&artifactCfg)

	log := logger.FromConfig("vintifi", logCfg)
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		fatal(log, "postgres connection failed", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		fatal(log, "migrations failed", err)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		fatal(log, "redis connection failed", err)
	}
	defer func() { _ = redisClient.Close() }()

	catalogSource := entitlement.Source(entitlement.NewInMemSource(entitlement.DefaultCatalogSpec()))
	if appCfg.CatalogPath != "" {
		catalogSource = entitlement.NewYAMLSource(appCfg.CatalogPath)
	}
	catalog, err := entitlement.NewCatalog(ctx, catalogSource)
	if err != nil {
		fatal(log, "catalog load failed", err)
	}

	// Redis fronts the hot debit path by default; Postgres remains the
	// system of record for accounts and the webhook dedup log.
	ledgers, err := newLedgerStore(ctx, appCfg.LedgerBackend, redisClient, pool)
	if err != nil {
		fatal(log, "ledger store init failed", err)
	}
	accounts := account.NewPGStore(pool)
	dedup := billing.NewPGDedupStore(pool)

	var sender email.Sender
	if appCfg.Environment == "development" {
		sender = email.NewDevSender(appCfg.DevEmailDir)
	} else {
		sender, err = email.NewPostmarkSender(emailCfg)
		if err != nil {
			fatal(log, "email sender init failed", err)
		}
	}

	reconciler := billing.NewReconciler(accounts, ledgers, catalog, dedup,
		billing.WithNotifier(billing.NewEmailNotifier(sender)),
		billing.WithLogger(log))

	webhook, err := billing.NewPaddleWebhook(paddleCfg, catalog)
	if err != nil {
		fatal(log, "paddle webhook init failed", err)
	}

	artifacts, err := artifact.NewStore(ctx, artifactCfg)
	if err != nil {
		fatal(log, "artifact store init failed", err)
	}

	gateway, err := dashboard.NewGatewayClient(gatewayCfg)
	if err != nil {
		fatal(log, "gateway client init failed", err)
	}

	mod := dashboard.New(dashboard.Deps{
		Meter:      metering.NewMeter(catalog, ledgers, log),
		Accounts:   accounts,
		Ledgers:    ledgers,
		Reconciler: reconciler,
		Webhook:    webhook,
		Artifacts:  artifacts,
		Prices:     gateway,
		Optimizer:  gateway,
		Translator: gateway,
		Studio:     gateway,
		Log:        log,
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)

	router.Get("/health", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	router.Mount("/", mod.Handle())

	if err := httpserver.New(httpCfg, log).Run(ctx, router); err != nil {
		fatal(log, "http server failed", err)
	}
}

// newLedgerStore selects the usage-ledger backend. Mongo configuration is
// only read when that backend is selected, so the other deployments do not
// need MONGODB_URL set.
func newLedgerStore(ctx context.Context, backend string, redisClient goredis.UniversalClient, pool *pgxpool.Pool) (ledger.Store, error) {
	switch backend {
	case "redis":
		return ledger.NewRedisStore(redisClient), nil
	case "postgres":
		return ledger.NewPGStore(pool), nil
	case "mongo":
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return nil, err
		}
		db, err := mongo.Database(ctx, mongoCfg)
		if err != nil {
			return nil, err
		}
		return ledger.NewMongoStore(db.Collection("usage_ledgers")), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
