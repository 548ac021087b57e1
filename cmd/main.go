package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi"
	"github.com/go-chi/docgen"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/stock-ledger/api"
	"github.com/sksmith/stock-ledger/config"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/db"
	"github.com/sksmith/stock-ledger/db/invrepo"
	"github.com/sksmith/stock-ledger/db/usrrepo"
	"github.com/sksmith/stock-ledger/lock"
	"github.com/sksmith/stock-ledger/queue"
)

var routes = flag.Bool("routes", false, "print the api routes as markdown and exit")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	configLogging(cfg)
	printLogHeader(cfg)
	cfg.Print()

	log.Info().Msg("creating repositories...")
	ir, ur := configRepositories(ctx, cfg)

	log.Info().Msg("creating inventory service...")
	locker := configLocker(cfg)
	ledger := inventory.NewLedger(
		inventory.WithDefaultLocation(cfg.Ledger.DefaultLocationName, cfg.Ledger.DefaultLocationType),
		inventory.WithFallbackReorderQuantity(cfg.Ledger.FallbackReorderQty),
	)

	var bq *bunnyq.BunnyQ
	if !cfg.RabbitMQ.Mock {
		bq = rabbit(ctx, cfg)
	}
	inventoryService := inventory.NewService(ir, configInventoryQueue(bq, cfg), locker, ledger)

	log.Info().Msg("creating user service...")
	userService := user.NewService(ur)
	bootstrapAdmin(ctx, cfg, userService)

	log.Info().Msg("configuring router...")
	r := api.ConfigureRouter(cfg, inventoryService, userService)

	if *routes {
		fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "github.com/sksmith/stock-ledger",
			Intro:       "Stock ledger REST API.",
		}))
		return
	}

	if bq != nil {
		log.Info().Msg("consuming products...")
		prodQueue := queue.NewProductQueue(bq, cfg.RabbitMQ.Product.Queue, cfg.RabbitMQ.Product.Dlt.Exchange)
		go prodQueue.ConsumeProducts(ctx, inventoryService)
	}

	serve(ctx, cfg, r)
}

func serve(ctx context.Context, cfg *config.Config, r chi.Router) {
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down cleanly")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Send()
	}
}

func configRepositories(ctx context.Context, cfg *config.Config) (inventory.Repository, user.Repository) {
	var ir inventory.Repository
	var ur user.Repository

	if cfg.Db.InMemory {
		log.Info().Msg("using in memory repositories")
		ir = invrepo.NewMemoryRepo()
		ur = usrrepo.NewMemoryRepo()
	} else {
		dbPool, err := db.ConnectDb(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to the database")
		}
		ir = invrepo.NewPostgresRepo(dbPool)

		cacheSize := 0
		if cfg.Cache.Enabled {
			cacheSize = cfg.Cache.Size
		}
		ur = usrrepo.NewPostgresRepo(dbPool, cacheSize)
	}

	if cfg.Cache.Enabled {
		log.Info().Int("size", cfg.Cache.Size).Msg("caching item reads")
		ir = invrepo.NewCachingRepo(ir, cfg.Cache.Size)
	}

	return ir, ur
}

func configLocker(cfg *config.Config) inventory.Locker {
	if !cfg.Redis.Enabled {
		log.Info().Msg("using process local product locks")
		return lock.NewLocalLocker()
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis product locks")
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Pass,
		DB:       cfg.Redis.DB,
	})
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait)
}

func configInventoryQueue(bq *bunnyq.BunnyQ, cfg *config.Config) inventory.Queue {
	if bq == nil {
		log.Info().Msg("creating mock queue...")
		return queue.NewMockQueue()
	}
	return queue.New(bq, cfg.RabbitMQ.Inventory.Exchange, cfg.RabbitMQ.Reorder.Exchange)
}

func rabbit(ctx context.Context, cfg *config.Config) *bunnyq.BunnyQ {
	log.Info().Str("host", cfg.RabbitMQ.Host).Msg("connecting to rabbitmq...")

	osChannel := make(chan os.Signal, 1)
	signal.Notify(osChannel, syscall.SIGTERM)

	return bunnyq.New(ctx,
		bunnyq.Address{
			User: cfg.RabbitMQ.User,
			Pass: cfg.RabbitMQ.Pass,
			Host: cfg.RabbitMQ.Host,
			Port: cfg.RabbitMQ.Port,
		},
		osChannel,
		bunnyq.LogHandler(logger{}),
	)
}

// bootstrapAdmin creates the configured administrator on first start so the user api can be reached at all.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, userService user.Service) {
	if cfg.Admin.User == "" {
		return
	}

	_, err := userService.Get(ctx, cfg.Admin.User)
	if err == nil {
		return
	}
	if !errors.Is(err, core.ErrNotFound) {
		log.Error().Err(err).Str("username", cfg.Admin.User).Msg("failed to look up administrator")
		return
	}

	_, err = userService.Create(ctx, user.CreateUserRequest{
		Username:          cfg.Admin.User,
		PlainTextPassword: cfg.Admin.Pass,
		IsAdmin:           true,
	})
	if err != nil {
		log.Error().Err(err).Str("username", cfg.Admin.User).Msg("failed to create administrator")
		return
	}
	log.Info().Str("username", cfg.Admin.User).Msg("created administrator")
}

type logger struct {
}

func (l logger) Log(_ context.Context, level bunnyq.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case bunnyq.LogLevelTrace:
		evt = log.Trace()
	case bunnyq.LogLevelDebug:
		evt = log.Debug()
	case bunnyq.LogLevelWarn:
		evt = log.Warn()
	case bunnyq.LogLevelError:
		evt = log.Error()
	default:
		evt = log.Info()
	}

	for k, v := range data {
		evt.Interface(k, v)
	}

	evt.Str("component", "rabbitmq").Msg(msg)
}

func printLogHeader(cfg *config.Config) {
	if cfg.Log.Structured {
		log.Info().Str("application", cfg.AppName).
			Str("revision", cfg.Revision).
			Str("version", cfg.AppVersion).
			Str("sha1ver", cfg.Sha1Version).
			Str("build-time", cfg.BuildTime).
			Str("profile", cfg.Profile).
			Str("config-source", cfg.Config.Source).
			Str("config-branch", cfg.Config.Spring.Branch).
			Send()
		return
	}

	f := figure.NewFigure(cfg.AppName, "", true)
	f.Print()

	log.Info().Msg("=============================================")
	log.Info().Msg(fmt.Sprintf("       Revision: %s", cfg.Revision))
	log.Info().Msg(fmt.Sprintf("        Profile: %s", cfg.Profile))
	log.Info().Msg(fmt.Sprintf("  Config Server: %s - %s", cfg.Config.Source, cfg.Config.Spring.Branch))
	log.Info().Msg(fmt.Sprintf("    Tag Version: %s", cfg.AppVersion))
	log.Info().Msg(fmt.Sprintf("   Sha1 Version: %s", cfg.Sha1Version))
	log.Info().Msg(fmt.Sprintf("     Build Time: %s", cfg.BuildTime))
	log.Info().Msg("=============================================")
}

func configLogging(cfg *config.Config) {
	log.Info().Msg("configuring logging...")

	if !cfg.Log.Structured {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("loglevel", cfg.Log.Level).Err(err).Msg("defaulting to info")
		level = zerolog.InfoLevel
	}
	log.Info().Str("loglevel", level.String()).Msg("setting log level")
	zerolog.SetGlobalLevel(level)
}
