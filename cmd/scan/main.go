// cmd/scan evaluates the configured symbol universe against the stored
// daily bars, publishes qualified signals to Redis, and exposes Prometheus
// metrics. With --interval it keeps rescanning until interrupted.
//
// Usage:
//
//	go run ./cmd/scan --interval=1h
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chartscan/config"
	"chartscan/internal/logger"
	"chartscan/internal/metrics"
	"chartscan/internal/notification"
	"chartscan/internal/scanner"
	redisstore "chartscan/internal/store/redis"
	sqlitestore "chartscan/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	interval := flag.Duration("interval", 0, "Rescan interval (0 = scan once and exit)")
	dbPath := flag.String("db", "", "SQLite bar database (overrides SQLITE_PATH)")
	universe := flag.String("universe", "", "Comma-separated symbols (overrides SCAN_UNIVERSE; empty = whole store)")
	workers := flag.Int("workers", 0, "Scan worker count (overrides SCAN_WORKERS)")
	redisAddr := flag.String("redis", "", "Redis address (overrides REDIS_ADDR)")
	flag.Parse()

	cfg := config.Load()
	if *dbPath != "" {
		cfg.SQLitePath = *dbPath
	}
	if *universe != "" {
		cfg.Universe = *universe
	}
	if *workers > 0 {
		cfg.ScanWorkers = *workers
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	logger.Init("scanner", logger.ParseLevel(cfg.LogLevel))

	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[scan] sqlite open failed: %v", err)
	}
	defer store.Close()

	var pub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		pub, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("[scan] redis connect failed: %v", err)
		}
		defer pub.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown requested")
		cancel()
	}()

	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetSQLiteOK(true)
	if pub != nil {
		health.SetRedisConnected(true)
		health.StartLivenessChecker(ctx, pub.Client(), store.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, store.DB(), 30*time.Second)
	}

	srv := metrics.NewServer(cfg.MetricsAddr, health)
	srv.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Stop(shutdownCtx)
	}()

	notifier := buildNotifier(cfg)
	sc := scanner.New(store, cfg.ScanWorkers, prom)

	for {
		runScan(ctx, cfg, store, sc, pub, notifier, prom, health)
		if *interval <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}
}

// buildNotifier assembles the alert fan-out from config. Always includes
// the log backend so qualified symbols show up in plain output.
func buildNotifier(cfg *config.Config) notification.Notifier {
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return notification.NewMulti(backends...)
}

func runScan(ctx context.Context, cfg *config.Config, store *sqlitestore.Store, sc *scanner.Scanner, pub *redisstore.Publisher, notifier notification.Notifier, prom *metrics.Metrics, health *metrics.HealthStatus) {
	symbols := cfg.ParseUniverse()
	if len(symbols) == 0 {
		var err error
		symbols, err = store.Symbols(ctx)
		if err != nil {
			log.Printf("[scan] symbol list failed: %v", err)
			return
		}
	}
	if len(symbols) == 0 {
		log.Print("[scan] no symbols to scan")
		return
	}

	results := sc.ScanUniverse(ctx, symbols)
	health.SetLastScanAt(time.Now())

	var watchlist []string
	for _, r := range results {
		if !r.Qualified {
			continue
		}
		watchlist = append(watchlist, r.Symbol)
		fmt.Printf("  %-8s score %5.1f  %s\n", r.Symbol, r.Score, r.Reason)

		if len(r.Signals) > 0 {
			notifier.Send(ctx, notification.Alert{
				Level:   notification.AlertInfo,
				Symbol:  r.Symbol,
				Title:   "buy signal",
				Message: r.Signals[0].Reasoning,
			})
		}

		if pub != nil && len(r.Signals) > 0 {
			start := time.Now()
			if err := pub.PublishSignals(ctx, r.Symbol, r.Signals); err != nil {
				log.Printf("[scan] publish %s failed: %v", r.Symbol, err)
			}
			prom.RedisPublishDur.Observe(time.Since(start).Seconds())
		}
	}
	prom.Watchlist.Set(float64(len(watchlist)))

	if pub != nil {
		if err := pub.PublishWatchlist(ctx, watchlist); err != nil {
			log.Printf("[scan] watchlist publish failed: %v", err)
		}
	}
	slog.Info("scan finished", slog.Int("watchlist", len(watchlist)))
}
