package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scan engine.
type Metrics struct {
	SymbolsScanned prometheus.Counter
	SignalsEmitted prometheus.Counter
	ScanErrors     prometheus.Counter

	ScanDuration       prometheus.Histogram
	SimulationDuration prometheus.Histogram
	SQLiteQueryDur     prometheus.Histogram
	RedisPublishDur    prometheus.Histogram

	LastScanUnix prometheus.Gauge
	Watchlist    prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartscan_symbols_scanned_total",
			Help: "Total symbols evaluated across all scans",
		}),
		SignalsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartscan_signals_emitted_total",
			Help: "Total buy signals produced",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartscan_scan_errors_total",
			Help: "Symbols that failed to scan (bad history, storage errors)",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartscan_scan_duration_seconds",
			Help:    "Full universe scan latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartscan_simulation_duration_seconds",
			Help:    "Single-symbol backtest simulation latency",
			Buckets: prometheus.DefBuckets,
		}),
		SQLiteQueryDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartscan_sqlite_query_duration_seconds",
			Help:    "SQLite bar query latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartscan_redis_publish_duration_seconds",
			Help:    "Redis signal publish latency",
			Buckets: prometheus.DefBuckets,
		}),
		LastScanUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartscan_last_scan_timestamp_seconds",
			Help: "Unix time of the last completed universe scan",
		}),
		Watchlist: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartscan_watchlist_size",
			Help: "Symbols that qualified in the last scan",
		}),
	}

	prometheus.MustRegister(
		m.SymbolsScanned,
		m.SignalsEmitted,
		m.ScanErrors,
		m.ScanDuration,
		m.SimulationDuration,
		m.SQLiteQueryDur,
		m.RedisPublishDur,
		m.LastScanUnix,
		m.Watchlist,
	)

	return m
}

// HealthStatus represents scanner health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastScanAt     time.Time `json:"last_scan_at"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.RedisConnected = v
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.SQLiteOK = v
}

func (h *HealthStatus) SetLastScanAt(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastScanAt = t
}

// CheckRedis pings Redis and records latency. rdb may be nil when signal
// publishing is disabled.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	if rdb == nil {
		return
	}
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	lat := float64(time.Since(start).Microseconds()) / 1000.0

	h.mu.Lock()
	defer h.mu.Unlock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = lat
	h.LastCheckAt = time.Now()
}

// CheckSQLite pings the bar database and records latency.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	if db == nil {
		return
	}
	start := time.Now()
	err := db.PingContext(ctx)
	lat := float64(time.Since(start).Microseconds()) / 1000.0

	h.mu.Lock()
	defer h.mu.Unlock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = lat
	h.LastCheckAt = time.Now()
}

// StartLivenessChecker pings dependencies on the given interval until ctx
// is cancelled.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.CheckRedis(ctx, rdb)
				h.CheckSQLite(ctx, sqlDB)
			}
		}
	}()
}

// ServeHTTP reports health as JSON; 503 when the bar database is down.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	httpCode := http.StatusOK
	if !h.SQLiteOK {
		httpCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(h)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
