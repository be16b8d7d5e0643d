package routes

import (
    "context"
    "fmt"
    "log/slog"
    "net/http"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/gofiber/fiber/v2/middleware/logger"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"

    "github.com/tezgate/tezgate/internal/balances"
    "github.com/tezgate/tezgate/internal/config"
    "github.com/tezgate/tezgate/internal/journal"
    "github.com/tezgate/tezgate/internal/ledgerapi"
    "github.com/tezgate/tezgate/internal/middleware"
    "github.com/tezgate/tezgate/internal/notification"
    "github.com/tezgate/tezgate/internal/orchestrator"
    "github.com/tezgate/tezgate/internal/tezos"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
    Cfg    config.Config
    DB     *pgxpool.Pool
    Cache  *redis.Client
    Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
    // Enforce DB/Redis presence outside of dev, even though main also checks.
    if !d.Cfg.IsDev() {
        if d.DB == nil {
            return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
        if d.Cache == nil {
            return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
    }
    // Middlewares
    app.Use(recover.New())
    app.Use(middleware.RequestID())
    // Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
    app.Use(logger.New(logger.Config{
        Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
        TimeFormat: "15:04:05",
        TimeZone:   "Local",
    }))

    // Health
    RegisterHealthRoutes(app, d)

    // Collaborators and services
    var store balances.Store
    if d.Cache != nil {
        store = balances.NewRedisStore(d.Cache, d.Cfg.BalanceCacheTTL)
    } else {
        store = balances.NewMemoryStore()
    }

    var journalRepo journal.Repository
    if d.DB != nil {
        pgJournal := journal.NewPostgresRepository(d.DB)
        if err := pgJournal.EnsureSchema(context.Background()); err != nil {
            return fmt.Errorf("ensure journal schema: %w", err)
        }
        journalRepo = pgJournal
    } else {
        journalRepo = journal.NewMemoryRepository()
    }

    var wallet tezos.WalletSession
    if d.Cfg.WalletBridgeURL != "" {
        wallet = tezos.NewBridgeSession(d.Cfg.WalletBridgeURL, d.Cfg.ConfirmTimeout, d.Cfg.ConfirmPoll)
    } else {
        wallet = tezos.NewStaticSession(d.Cfg.WalletAddress)
        d.Logger.Warn("no wallet bridge configured, using simulated wallet")
    }

    ledgerClient := ledgerapi.NewClient(d.Cfg.LedgerURL)

    var chain tezos.ChainReader
    if d.Cfg.BalanceSource == "ledger" {
        chain = ledgerapi.NewReader(ledgerClient)
    } else {
        chain = tezos.NewRPCReader(d.Cfg.RPCURL, d.Cfg.IndexerURL, d.Cfg.TokenContract)
    }

    svc := orchestrator.New(orchestrator.Config{
        Network:        d.Cfg.Network,
        DepositAddress: d.Cfg.DepositAddress,
        AccountID:      d.Cfg.AccountID,
    }, orchestrator.Deps{
        Wallet:   wallet,
        Chain:    chain,
        Ledger:   ledgerClient,
        Balances: store,
        Journal:  journalRepo,
        Notifier: notification.NewLoggerNotifier(d.Logger),
        Logger:   d.Logger,
    })

    transferHandler := orchestrator.NewHandler(svc)
    journalHandler := journal.NewHandler(journalRepo)

    // API routes
    api := app.Group("/api/v1", middleware.Audit(d.Logger), middleware.APIKey(d.Cfg.APIKeyHash))
    api.Get("/ping", func(c *fiber.Ctx) error {
        reqID, _ := c.Locals("X-Request-ID").(string)
        return c.Status(http.StatusOK).JSON(fiber.Map{
            "status": "ok",
            "request_id": reqID,
            "timestamp": time.Now().UTC().Format(time.RFC3339Nano),
        })
    })

    RegisterSessionRoutes(api, transferHandler, middleware.ConnectRateLimit(d.Cache, 10))
    RegisterTransferRoutes(api, transferHandler, journalHandler, d)

    return nil
}
