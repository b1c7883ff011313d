// cmd/import loads daily bars from CSV files into the SQLite bar store.
// Each file holds one symbol: a header row, then date,open,high,low,close,volume.
// The symbol defaults to the file name without extension.
//
// Usage:
//
//	go run ./cmd/import --db=data/bars.db AAPL.csv MSFT.csv
//	go run ./cmd/import --db=data/bars.db --symbol=AAPL history.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chartscan/internal/model"
	sqlitestore "chartscan/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/bars.db", "Path to SQLite bar database")
	symbol := flag.String("symbol", "", "Symbol override (only valid with a single file)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("[import] no CSV files given")
	}
	if *symbol != "" && len(files) > 1 {
		log.Fatal("[import] --symbol only applies to a single file")
	}

	store, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[import] sqlite open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	total := 0
	for _, path := range files {
		sym := *symbol
		if sym == "" {
			sym = strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}

		bars, err := readCSV(path)
		if err != nil {
			log.Fatalf("[import] %s: %v", path, err)
		}
		if err := store.WriteBars(ctx, sym, bars); err != nil {
			log.Fatalf("[import] %s: %v", sym, err)
		}
		total += len(bars)
		fmt.Printf("  %-8s %d bars\n", sym, len(bars))
	}
	log.Printf("[import] done: %d bars across %d files", total, len(files))
}

// readCSV parses one bar file. Rows must be in date,open,high,low,close,volume
// order; the first row is skipped as a header.
func readCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	bars := make([]model.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		bar, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRow(rec []string) (model.Bar, error) {
	var bar model.Bar
	var err error

	bar.Date, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(rec[0]), time.UTC)
	if err != nil {
		return bar, fmt.Errorf("bad date %q: %w", rec[0], err)
	}

	fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close}
	for i, dst := range fields {
		*dst, err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return bar, fmt.Errorf("bad price %q: %w", rec[i+1], err)
		}
	}

	bar.Volume, err = strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil {
		return bar, fmt.Errorf("bad volume %q: %w", rec[5], err)
	}
	return bar, nil
}
