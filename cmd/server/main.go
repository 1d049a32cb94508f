package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esusuhq/esusu/internal/auth"
	"github.com/esusuhq/esusu/internal/config"
	"github.com/esusuhq/esusu/internal/gateway/paystack"
	"github.com/esusuhq/esusu/internal/middleware"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/service"
	"github.com/esusuhq/esusu/internal/storage/sqlite"
	"github.com/esusuhq/esusu/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	gw := paystack.New(cfg.PaystackSecretKey, cfg.DefaultCurrency,
		paystack.WithBaseURL(cfg.PaystackBaseURL),
		paystack.WithTimeout(cfg.GatewayTimeout),
	)

	settlement := service.NewSettlementService(store, gw)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	mux := http.NewServeMux()

	// The external scheduler hits the sweep endpoints once a day; both are
	// idempotent so a double fire is harmless.
	mux.Handle("POST /sweeps/save", middleware.RequireAuth(jwtManager,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			report, err := settlement.CollectSavings(r.Context())
			if err != nil {
				slog.Error("Collect-savings sweep failed", "error", err)
				http.Error(w, "sweep failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, report)
		})))

	mux.Handle("POST /sweeps/pay", middleware.RequireAuth(jwtManager,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			report, err := settlement.DisbursePayments(r.Context())
			if err != nil {
				slog.Error("Disburse-payments sweep failed", "error", err)
				http.Error(w, "sweep failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, report)
		})))

	mux.HandleFunc("POST /webhooks/paystack", func(w http.ResponseWriter, r *http.Request) {
		var event struct {
			Data struct {
				Reference string `json:"reference"`
				Status    string `json:"status"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		status := models.TransactionStatus(event.Data.Status)
		if err := settlement.HandleGatewayWebhook(r.Context(), event.Data.Reference, status); err != nil {
			slog.Error("Webhook handling failed", "reference", event.Data.Reference, "error", err)
			http.Error(w, "webhook failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Logging(mux)

	slog.Info("Server starting", "address", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
