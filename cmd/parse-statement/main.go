// Command parse-statement prints the transactions found in a card statement
// without storing them.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/logging"
	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/statement"
)

func main() {
	format := flag.String("format", "json", "output format: json or csv")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: parse-statement [-format json|csv] file.pdf|file.txt\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	logging.Setup(*logLevel)

	if err := run(context.Background(), flag.Arg(0), *format, os.Stdout); err != nil {
		slog.Error("parse failed", "file", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, format string, out io.Writer) error {
	text, err := extractor.New(slog.Default()).ExtractText(ctx, path)
	if err != nil {
		return err
	}
	result, err := statement.Parse(text)
	if err != nil {
		return err
	}

	total, err := models.Total(result.Transactions)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*statement.Result
			Total string `json:"total"`
		}{result, total.StringFixed(2)})
	case "csv":
		return writeCSV(out, result.Transactions)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeCSV(out io.Writer, transactions []models.Transaction) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"card", "start", "end", "amount", "vendor"}); err != nil {
		return err
	}
	for _, t := range transactions {
		v, err := t.Value()
		if err != nil {
			return err
		}
		record := []string{t.CardNumber, t.Start.String(), t.End.String(), v.StringFixed(2), t.Vendor}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
