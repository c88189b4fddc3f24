package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"luckyyield/internal/auth"
	"luckyyield/internal/handlers"
	"luckyyield/internal/notify"
	"luckyyield/internal/service"
	"luckyyield/internal/storage"
	"luckyyield/internal/ui"
)

func main() {
	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize SQLite database
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/luckyyield.db"
	}
	log.Printf("Opening database at: %s", dbPath)
	store, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "luckyyield-demo-secret"
		log.Println("SESSION_SECRET not set, using demo default")
	}

	// Services share the one store; no package-level state.
	modals := ui.NewCoordinator()
	walletSvc := service.NewWalletService(store)
	catalogSvc := service.NewCatalogService(store)

	settlementDelay := service.DefaultSettlementDelay
	if ms := os.Getenv("SETTLEMENT_DELAY_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= 0 {
			settlementDelay = time.Duration(v) * time.Millisecond
		}
	}
	purchaseSvc := service.NewPurchaseService(store, settlementDelay)

	// Background worker finalizing expired raffles
	workerInterval := service.DefaultWorkerInterval
	if s := os.Getenv("WORKER_INTERVAL_SECONDS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			workerInterval = time.Duration(v) * time.Second
		}
	}
	worker := service.NewRaffleWorker(store, modals, workerInterval)

	// Optional Telegram channel announcements
	var announcer *notify.Service
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		announcer, err = notify.New(token, os.Getenv("CHANNEL_ID"))
		if err != nil {
			log.Printf("Telegram announcements disabled: %v", err)
			announcer = nil
		} else {
			worker.SetAnnouncer(announcer)
		}
	}

	worker.Start()
	defer worker.Stop()

	h := handlers.New(walletSvc, catalogSvc, purchaseSvc, modals, secret)

	// API routes with auth middleware
	mux := http.NewServeMux()
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/ping", h.HandlePing)
	apiMux.HandleFunc("/login", h.HandleLogin)
	apiMux.HandleFunc("/logout", h.HandleLogout)
	apiMux.HandleFunc("/me", h.HandleMe)
	apiMux.HandleFunc("/me/transactions", h.HandleTransactions)
	apiMux.HandleFunc("/raffles", h.HandleRaffles)
	apiMux.HandleFunc("/purchases", h.HandlePurchases)
	apiMux.HandleFunc("/ui/modal", h.HandleModal)

	// Debug panel endpoints exist only when DEBUG_MODE=1
	if os.Getenv("DEBUG_MODE") == "1" {
		log.Println("Debug mode enabled")
		admin := service.NewAdminService(store, modals)
		if announcer != nil {
			admin.SetAnnouncer(announcer)
		}
		h.EnableDebug(admin)
		apiMux.HandleFunc("/debug/finalize", h.HandleDebugFinalize)
		apiMux.HandleFunc("/debug/credit", h.HandleDebugCredit)
	}

	mux.Handle("/api/", auth.Middleware(secret, http.StripPrefix("/api", apiMux)))

	// Static file serving (web directory)
	mux.Handle("/", http.FileServer(http.Dir("./web")))

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
