package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"listing-auction-service/internal/adapters/broadcaster"
	"listing-auction-service/internal/adapters/db"
	"listing-auction-service/internal/adapters/httpapi"
	"listing-auction-service/internal/adapters/memory"
	"listing-auction-service/internal/adapters/redis"
	"listing-auction-service/internal/adapters/scheduler"
	"listing-auction-service/internal/adapters/ws"
	"listing-auction-service/internal/app"
	"listing-auction-service/internal/config"
	"listing-auction-service/internal/ports/outbound"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Str("backend", cfg.Database.Backend).Msg("Starting Listing Auction Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var healthChecks []httpapi.HealthCheck

	// Store
	var auctionRepo outbound.AuctionRepository
	var listingRepo outbound.ListingRepository
	if cfg.Database.UsesPostgres() {
		dbConn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		if err := dbConn.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}

		repoFactory := db.NewRepositoryFactory(dbConn)
		auctionRepo = repoFactory.GetAuctionRepository()
		listingRepo = repoFactory.GetListingRepository()
		healthChecks = append(healthChecks, httpapi.HealthCheck{Name: "postgres", Check: dbConn.GetDB().PingContext})
		log.Info().Msg("Database connection established")
	} else {
		store := memory.NewStore()
		auctionRepo = store.Auctions()
		listingRepo = store.Listings()
		log.Warn().Msg("Using in-memory store, data is lost on restart")
	}

	// Broadcaster and sweep lease
	var eventBroadcaster outbound.Broadcaster
	var sweepLock outbound.SweepLock
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(cfg.Redis)
		defer redisClient.Close()
		if err := redis.PingRedis(ctx, redisClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

		eventBroadcaster = broadcaster.NewRedisBroadcaster(broadcaster.RedisBroadcasterParams{
			RedisClient: redisClient,
			Logger:      log.Logger,
		})
		sweepLock = redis.NewSweepLock(redis.SweepLockParams{
			RedisClient: redisClient,
			TTL:         cfg.Sweeper.LockTTL,
			Logger:      log.Logger,
		})
		healthChecks = append(healthChecks, httpapi.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redis.PingRedis(ctx, redisClient)
		}})
		log.Info().Msg("Redis broadcaster initialized")
	} else {
		eventBroadcaster = broadcaster.NewLocalBroadcaster(broadcaster.LocalBroadcasterParams{Logger: log.Logger})
		log.Info().Msg("Redis disabled, using in-process broadcaster")
	}
	defer eventBroadcaster.Close()

	emitter := broadcaster.NewEmitter(broadcaster.EmitterParams{
		Broadcaster: eventBroadcaster,
		Timeout:     cfg.Sweeper.EmitTimeout,
		Logger:      log.Logger,
	})

	// Business services
	listingService := app.NewListingService(app.ListingServiceParams{
		ListingRepo:  listingRepo,
		StoreTimeout: cfg.Database.Timeout,
		Logger:       log.Logger,
	})
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo:  auctionRepo,
		ListingRepo:  listingRepo,
		Emitter:      emitter,
		StoreTimeout: cfg.Database.Timeout,
		Logger:       log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		AuctionRepo:  auctionRepo,
		Emitter:      emitter,
		StoreTimeout: cfg.Database.Timeout,
		Logger:       log.Logger,
	})
	lifecycleService := app.NewLifecycleService(app.LifecycleServiceParams{
		AuctionRepo:  auctionRepo,
		Emitter:      emitter,
		StoreTimeout: cfg.Database.Timeout,
		Workers:      cfg.Sweeper.Workers,
		Logger:       log.Logger,
	})

	if n := cfg.Database.SeedListings; n > 0 {
		if _, err := listingService.SeedListings(ctx, n); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed listings")
		}
		log.Info().Int("count", n).Msg("Seeded demo listings")
	}

	log.Info().Msg("Business services initialized")

	sweeper := scheduler.NewSweeper(scheduler.SweeperParams{
		Lifecycle: lifecycleService,
		Lock:      sweepLock,
		Interval:  cfg.Sweeper.Interval,
		Logger:    log.Logger,
	})

	wsHandler := ws.NewHandler(ws.WsHandlerParams{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			// Origin checks belong to the gateway
			CheckOrigin: func(*http.Request) bool { return true },
		},
		AuctionService: auctionService,
		BidService:     bidService,
		Broadcaster:    eventBroadcaster,
		Logger:         log.Logger,
	})

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.SetupRouter(httpapi.RouterParams{
		Handler: httpapi.NewHandler(httpapi.HandlerParams{
			AuctionService: auctionService,
			BidService:     bidService,
			ListingService: listingService,
			Logger:         log.Logger,
		}),
		WebSocket:    wsHandler.HandleWebSocket,
		HealthChecks: healthChecks,
		Logger:       log.Logger,
	})
	server := httpapi.NewServer(httpapi.ServerParams{
		Addr:    cfg.Addr(),
		Handler: router,
		Logger:  log.Logger,
	})

	sweeper.Start()
	log.Info().Dur("interval", cfg.Sweeper.Interval).Bool("lease", sweepLock != nil).Msg("Lifecycle sweeper started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}

	log.Info().Msg("Starting graceful shutdown...")

	sweeper.Stop()
	log.Info().Msg("Lifecycle sweeper stopped")

	wsHandler.Shutdown()
	emitter.Close()

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
