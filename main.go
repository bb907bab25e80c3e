package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/Tombez/bank-transaction-vis-sub000/src/config"
	"github.com/Tombez/bank-transaction-vis-sub000/src/database"
	"github.com/Tombez/bank-transaction-vis-sub000/src/handlers"
	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/processors"
	"github.com/Tombez/bank-transaction-vis-sub000/src/rules"
	"github.com/Tombez/bank-transaction-vis-sub000/src/services"
	"github.com/Tombez/bank-transaction-vis-sub000/src/workspace"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Bank transaction visualization backend starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	// Rules may legitimately be absent at first launch; classification is
	// safe to run with an empty set and again once rules arrive.
	ruleSet, err := rules.LoadFile(config.Cfg.RulesPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.L.Warn("No rule file found, starting with an empty rule set", "path", config.Cfg.RulesPath)
			ruleSet = rules.NewRuleSet()
		} else {
			logger.L.Error("Failed to load rule file", "path", config.Cfg.RulesPath, "error", err)
			os.Exit(1)
		}
	} else {
		logger.L.Info("Rule set loaded", "path", config.Cfg.RulesPath, "rules", ruleSet.Len())
	}

	balanceProcessor, err := processors.NewBalanceProcessor(
		config.Cfg.NoisePatterns,
		processors.CreditAccountMatcher(config.Cfg.CreditAccountPattern),
	)
	if err != nil {
		logger.L.Error("Invalid balance configuration", "error", err)
		os.Exit(1)
	}

	store := workspace.NewSQLStore(database.DB)
	ws, err := store.Load()
	if err != nil {
		logger.L.Error("Failed to load workspace from database", "error", err)
		os.Exit(1)
	}

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	pipelineService := services.NewPipelineService(ws, ruleSet, store, balanceProcessor, reportCache)

	workspaceHandler := handlers.NewWorkspaceHandler(pipelineService)
	reportHandler := handlers.NewReportHandler(pipelineService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Bank transaction visualization backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/workspace", workspaceHandler.HandleGetWorkspace)
		r.Put("/workspace", workspaceHandler.HandlePutWorkspace)
		r.Post("/banks/{bank}/accounts/{account}/files", workspaceHandler.HandleUploadFile)
		r.Patch("/files/{fileID}/settings", workspaceHandler.HandleUpdateFileSettings)

		r.Get("/reports/categories", reportHandler.HandleGetCategories)
		r.Get("/reports/flow", reportHandler.HandleGetFlow)
		r.Get("/reports/balances", reportHandler.HandleGetBalances)
		r.Post("/reports/reconcile", reportHandler.HandleReconcile)
		r.Get("/ledger.csv", reportHandler.HandleGetLedgerCSV)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
