package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/travelbooks/backend/docs"
	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/database"
	"github.com/travelbooks/backend/internal/handlers"
	mW "github.com/travelbooks/backend/internal/middleware"
	"github.com/travelbooks/backend/internal/services"
)

// @title Travel Agency Ledger API
// @version 1.0
// @description Running-balance ledger for agents and tickets
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	config.InitViper()
	ledgerConfig := config.LoadLedgerConfig()

	port := viper.GetString("server.port")
	docs.SwaggerInfo.Host = "localhost:" + port

	var (
		store   services.LedgerStore
		tickets services.TicketRepository
		methods services.PaymentMethodLookup
	)

	switch viper.GetString("ledger.store") {
	case "memory":
		log.Println("Using in-memory ledger store")
		memoryStore := services.NewMemoryLedgerStore()
		repo := services.NewMemoryTicketRepository()
		memoryStore.ResolveNamesWith(repo.DisplayName)
		store, tickets, methods = memoryStore, repo, repo
	default:
		db := database.InitDatabase()
		defer db.Close()
		store = services.NewPostgresLedgerStore(db)
		repo := services.NewPostgresTicketRepository(db)
		tickets, methods = repo, repo
	}

	var events services.EventPublisher
	if nc := database.InitNats(); nc != nil {
		defer nc.Drain()
		events = services.NewNatsPublisher(nc)
	}

	ledgerService := services.NewLedgerService(store, events, ledgerConfig)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	var queue services.PostingQueue
	if redisClient := database.InitRedis(); redisClient != nil {
		defer redisClient.Close()
		outbox := services.NewRedisOutbox(redisClient, ledgerService, ledgerConfig)
		queue = outbox
		go outbox.Run(workerCtx)
	}

	poster := services.NewTicketPoster(ledgerService, queue)
	ticketService := services.NewTicketService(tickets, methods, poster, ledgerConfig)

	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	ticketHandler := handlers.NewTicketHandler(ticketService)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", ledgerHandler.ListEntries)
			r.Get("/summary", ledgerHandler.Summary)
			r.Get("/entity/{entityId}", ledgerHandler.EntityLedger)
			r.Get("/balance/{entityId}", ledgerHandler.Balance)
			r.Get("/verify/{entityId}", ledgerHandler.VerifyChain)
			r.Post("/payment", ledgerHandler.RecordPayment)
			r.Post("/manual-entry", ledgerHandler.CreateManualEntry)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", ticketHandler.CreateTicket)
			r.Get("/{id}", ticketHandler.GetTicket)
			r.Patch("/{id}", ticketHandler.UpdateTicket)
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
