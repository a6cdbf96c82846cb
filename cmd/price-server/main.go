// Command price-server exposes the cached SteamApis market price lookup
// over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/steamtools/price-service/internal/config"
	"github.com/steamtools/price-service/pkg/cache"
	"github.com/steamtools/price-service/pkg/fetcher"
	"github.com/steamtools/price-service/pkg/logging"
	"github.com/steamtools/price-service/pkg/pricing"
	"github.com/steamtools/price-service/pkg/steamapis"
)

// requestTimeout bounds one inbound request end to end.
const requestTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file (falls back to environment variables)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Logging is not configured yet, fall back to a bare logger.
		fallback := logging.Setup(logging.DefaultConfig())
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})
	logger := logging.NewLogger("price-server")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	client, err := steamapis.New(steamapis.Config{
		BaseURL:         cfg.SteamApis.BaseURL,
		APIKey:          cfg.SteamApis.APIKey,
		ConnectTimeout:  cfg.SteamApis.ConnectTimeout.Std(),
		ResponseTimeout: cfg.SteamApis.ResponseTimeout.Std(),
		Retry: steamapis.RetryConfig{
			MaxAttempts:       cfg.SteamApis.MaxRetries,
			InitialBackoff:    cfg.SteamApis.InitialBackoff.Std(),
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create SteamApis client")
	}

	store := cache.NewStore(redisClient, cfg.Cache.TTL.Std())
	marketFetcher := fetcher.New(client, store)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/market/item/", marketItemHandler(marketFetcher, logger))

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           withRequestID(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("Starting price server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown error")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadAndValidate(path)
	}
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// marketDataFetcher is what the handler needs from the orchestrator.
type marketDataFetcher interface {
	GetMarketData(ctx context.Context, appID, marketHashName string) (*pricing.PriceRecord, error)
}

// itemResponse is the external success shape. Prices are widened to
// floating point here only; every record carries both sides, and a
// legitimate zero price is emitted as 0, never null.
type itemResponse struct {
	AppID           string  `json:"app_id"`
	MarketHashName  string  `json:"market_hash_name"`
	HighestBuyOrder float64 `json:"highest_buy_order"`
	LowestSellOrder float64 `json:"lowest_sell_order"`
}

// marketItemHandler serves GET /market/item/{app_id}/{market_hash_name}.
func marketItemHandler(f marketDataFetcher, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appID, marketHashName, ok := parseItemPath(r.URL.Path)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "bad_request",
				"message": "app_id and market_hash_name are required",
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		record, err := f.GetMarketData(ctx, appID, marketHashName)
		if err != nil {
			logger.Error().
				Err(err).
				Str("app_id", appID).
				Str("market_hash_name", marketHashName).
				Msg("Market data request failed")
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, itemResponse{
			AppID:           record.AppID,
			MarketHashName:  record.MarketHashName,
			HighestBuyOrder: record.HighestBuyOrder.InexactFloat64(),
			LowestSellOrder: record.LowestSellOrder.InexactFloat64(),
		})
	})
}

// parseItemPath splits /market/item/{app_id}/{market_hash_name}.
func parseItemPath(path string) (appID, marketHashName string, ok bool) {
	rest := strings.TrimPrefix(path, "/market/item/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// writeError maps a typed SteamApis error to the external error shape.
// Anything unclassified becomes a generic 500 with no internal details.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *steamapis.Error
	if !errors.As(err, &apiErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "internal_server_error",
			"message": "An unexpected error occurred",
		})
		return
	}

	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := map[string]any{
		"error":   string(apiErr.Kind),
		"message": apiErr.Message,
	}
	if d := apiErr.Details; d != nil {
		if d.Type != "" {
			body["type"] = d.Type
		}
		if len(d.Requests) > 0 {
			body["requests"] = d.Requests
		}
		if len(d.UpstreamResponse) > 0 {
			body["steamapis_response"] = d.UpstreamResponse
		}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withRequestID tags every request with a correlation id and emits an
// access log line.
func withRequestID(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
