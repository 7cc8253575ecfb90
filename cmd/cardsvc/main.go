package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/flashmod/card-services/configs"
	svcconfig "github.com/flashmod/card-services/internal/cardsvc/config"
	handlers "github.com/flashmod/card-services/internal/cardsvc/handlers"
	"github.com/flashmod/card-services/internal/cardsvc/service"
	"github.com/flashmod/card-services/internal/cardsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {

	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	supabase := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
	cardService := service.NewCardService(supabase, cfg.Tables, cfg.FixturesDir)

	// Seed empty module tables before accepting any traffic. Seeding
	// failures are logged inside and never abort startup.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	cardService.SeedAll(seedCtx)
	cancelSeed()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(cardService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
