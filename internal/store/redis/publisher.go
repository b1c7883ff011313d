// Package redis publishes scan output so downstream consumers (dashboards,
// alert bots) can read the latest signals without touching the bar store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"chartscan/internal/model"
)

const (
	// Keep roughly a quarter of trading signals for a year per symbol.
	signalStreamMaxLen = 1000
	defaultLatestTTL   = 24 * time.Hour
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signals and watchlists to Redis.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a new Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

type signalEnvelope struct {
	Symbol    string            `json:"symbol"`
	ScannedAt time.Time         `json:"scanned_at"`
	Signals   []model.BuySignal `json:"signals"`
}

// PublishSignals appends a symbol's signals to its capped stream, refreshes
// the latest-value key, and notifies PubSub subscribers in one pipeline.
func (p *Publisher) PublishSignals(ctx context.Context, symbol string, signals []model.BuySignal) error {
	if len(signals) == 0 {
		return nil
	}

	payload, err := json.Marshal(signalEnvelope{Symbol: symbol, ScannedAt: time.Now().UTC(), Signals: signals})
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	data := string(payload)

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "signals:" + symbol,
		MaxLen: signalStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": data},
	})
	pipe.Set(ctx, "signals:latest:"+symbol, data, defaultLatestTTL)
	pipe.Publish(ctx, "pub:signals:"+symbol, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish signals %s: %w", symbol, err)
	}
	return nil
}

// PublishWatchlist stores the qualified symbols of the last scan.
func (p *Publisher) PublishWatchlist(ctx context.Context, symbols []string) error {
	payload, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("marshal watchlist: %w", err)
	}

	if err := p.client.Set(ctx, "scan:watchlist", string(payload), defaultLatestTTL).Err(); err != nil {
		return fmt.Errorf("redis set watchlist: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
