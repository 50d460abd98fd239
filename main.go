package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/events"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open local store: %v", err)
	}
	history := events.NewHistory(db)

	api := apiclient.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout})
	wsHub := hub.New()
	store := cart.NewStore(cart.NewGormKV(db))

	cartChanges, cancelCartFeed := store.Subscribe(64)
	defer cancelCartFeed()
	go wsHub.ForwardCartChanges(ctx, cartChanges)

	publishers := []events.Publisher{history, wsHub}

	var guard services.PushGuard = services.NewMemoryGuard(cfg.ReconcileDebounce)
	rdb, err := config.InitRedis(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Printf("Redis unavailable, push guard stays in memory: %v", err)
	} else if rdb != nil {
		defer rdb.Close()
		guard = services.NewRedisGuard(rdb, cfg.ReconcileDebounce)
		utils.InfoLogger.Printf("Push guard shared through Redis at %s", cfg.RedisAddr)
	}

	if writer := config.NewKafkaWriter(cfg); writer != nil {
		defer writer.Close()
		publishers = append(publishers, events.NewKafkaPublisher(writer))
		utils.InfoLogger.Printf("Publishing status changes to Kafka topic %s", cfg.StatusTopic)
	}

	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.StatusSubject)
		if err != nil {
			utils.ErrorLogger.Printf("NATS disabled: %v", err)
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
			utils.InfoLogger.Printf("Publishing status changes to NATS subject %s.*", cfg.StatusSubject)
		}
	}

	reconciler := services.NewStatusReconciler(services.APIGateway{Client: api}, guard, publishers...)
	reconciler.Interval = cfg.ReconcileInterval
	reconciler.Kinds = cfg.ReconcileKinds
	reconciler.Location = cfg.Location
	reconciler.Start(ctx)
	defer reconciler.Stop()

	corsPolicy := middlewares.CORS(cfg.CORSOrigins)
	r := router.SetupRouter(router.Dependencies{
		API:           api,
		Cart:          store,
		Hub:           wsHub,
		Reconciler:    reconciler,
		History:       history,
		Location:      cfg.Location,
		ServiceRate:   cfg.ServiceRate,
		PublicBaseURL: cfg.PublicBaseURL,
		DeviceSecret:  cfg.DeviceSecret,
		RateLimit:     cfg.RateLimit,
		AllowOrigin: func(origin string) bool {
			return corsPolicy.OriginAllowed(&http.Request{Header: http.Header{"Origin": []string{origin}}})
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsPolicy.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s (API %s)", cfg.Port, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}
