// cmd/backtest replays historical daily bars from SQLite through the signal
// synthesizer and simulator, then prints trades and performance stats.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/bars.db --symbol=AAPL --config=backtest.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"chartscan/internal/backtest"
	sqlitestore "chartscan/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/bars.db", "Path to SQLite bar database")
	symbol := flag.String("symbol", "", "Symbol to simulate (required)")
	cfgPath := flag.String("config", "", "Optional YAML config overriding simulator defaults")
	jsonOut := flag.Bool("json", false, "Emit the full result as JSON instead of a summary")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("[backtest] --symbol is required")
	}

	cfg := backtest.DefaultConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = backtest.LoadConfig(*cfgPath)
		if err != nil {
			log.Fatalf("[backtest] config load failed: %v", err)
		}
	}

	store, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	bars, err := store.Bars(context.Background(), *symbol)
	if err != nil {
		log.Fatalf("[backtest] bar load failed: %v", err)
	}
	log.Printf("[backtest] loaded %d bars for %s", len(bars), *symbol)

	result := backtest.New(cfg).Run(bars, *symbol)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("[backtest] encode result: %v", err)
		}
		return
	}

	for _, tr := range result.Trades {
		fmt.Printf("  [%s] %-26s %d @ %.2f -> %.2f on %s  pnl %+.2f (%+.2f%%) %s\n",
			tr.EntryDate.Format("2006-01-02"), tr.SignalType, tr.Shares,
			tr.EntryPrice, tr.ExitPrice, tr.ExitDate.Format("2006-01-02"),
			tr.PnL, tr.PnLPct, tr.ExitReason)
	}

	s := result.Stats
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Trades:          %-18d ║\n", s.TradeCount)
	fmt.Printf("║  Win rate:        %-17.2f%% ║\n", s.WinRate)
	fmt.Printf("║  Total return:    %-17.2f%% ║\n", s.TotalReturnPct)
	fmt.Printf("║  Profit factor:   %-18.2f ║\n", s.ProfitFactor)
	fmt.Printf("║  Max drawdown:    %-17.2f%% ║\n", s.MaxDrawdownPct)
	fmt.Printf("║  Sharpe ratio:    %-18.2f ║\n", s.SharpeRatio)
	fmt.Println("╚══════════════════════════════════════╝")
}
