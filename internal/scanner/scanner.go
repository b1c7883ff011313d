// Package scanner evaluates a universe of symbols in parallel, scoring
// each one and deciding whether it qualifies as a trade candidate.
//
// Each symbol's evaluation is independent, so the scan fans out across a
// fixed-size worker pool with no coordination beyond collecting results.
// Result order matches the input symbol order regardless of completion
// order.
package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chartscan/internal/analysis"
	"chartscan/internal/metrics"
	"chartscan/internal/model"
	"chartscan/internal/signal"
)

// minScanBars matches the synthesizer's minimum history.
const minScanBars = 120

// DefaultWorkers is the scan pool size when none is configured.
const DefaultWorkers = 4

// BarSource supplies historical daily bars for a symbol, sorted ascending
// by date. Implementations own any storage or caching; the scanner never
// touches I/O beyond this interface.
type BarSource interface {
	Bars(ctx context.Context, symbol string) ([]model.Bar, error)
}

// Result is the outcome of evaluating one symbol.
type Result struct {
	Symbol    string            `json:"symbol"`
	Qualified bool              `json:"qualified"`
	Signals   []model.BuySignal `json:"signals,omitempty"`
	Reason    string            `json:"reason"`
	Score     float64           `json:"score"`
}

// Scanner runs multi-symbol scans against a BarSource.
type Scanner struct {
	source  BarSource
	workers int
	prom    *metrics.Metrics
}

// New creates a Scanner. workers <= 0 falls back to DefaultWorkers; prom
// may be nil to disable instrumentation.
func New(source BarSource, workers int, prom *metrics.Metrics) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scanner{source: source, workers: workers, prom: prom}
}

// ScanUniverse evaluates every symbol and returns one Result per input, in
// input order. A failing symbol yields an unqualified Result rather than
// aborting the scan. Pending symbols are skipped once ctx is cancelled.
func (s *Scanner) ScanUniverse(ctx context.Context, symbols []string) []Result {
	started := time.Now()
	results := make([]Result, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.scanOne(ctx, symbols[idx])
			}
		}()
	}

feed:
	for i := range symbols {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range results {
		if results[i].Symbol == "" {
			results[i] = Result{Symbol: symbols[i], Reason: "scan cancelled"}
		}
	}

	if s.prom != nil {
		s.prom.ScanDuration.Observe(time.Since(started).Seconds())
		s.prom.LastScanUnix.SetToCurrentTime()
	}
	slog.Info("universe scan complete",
		slog.Int("symbols", len(symbols)),
		slog.Int("qualified", countQualified(results)),
		slog.Duration("took", time.Since(started)))
	return results
}

func (s *Scanner) scanOne(ctx context.Context, symbol string) Result {
	if s.prom != nil {
		s.prom.SymbolsScanned.Inc()
	}

	bars, err := s.source.Bars(ctx, symbol)
	if err != nil {
		if s.prom != nil {
			s.prom.ScanErrors.Inc()
		}
		slog.Warn("bar fetch failed", slog.String("symbol", symbol), slog.Any("err", err))
		return Result{Symbol: symbol, Reason: "history unavailable"}
	}
	if len(bars) < minScanBars {
		return Result{Symbol: symbol, Reason: "insufficient history"}
	}

	report := analysis.Analyze(bars)
	if report == nil {
		return Result{Symbol: symbol, Reason: "analysis unavailable"}
	}

	signals := signal.Scan(bars)
	if s.prom != nil && len(signals) > 0 {
		s.prom.SignalsEmitted.Add(float64(len(signals)))
	}

	qualified, reason := Qualifies(report, signals)
	return Result{
		Symbol:    symbol,
		Qualified: qualified,
		Signals:   signals,
		Reason:    reason,
		Score:     Score(report, signals),
	}
}

func countQualified(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Qualified {
			n++
		}
	}
	return n
}
