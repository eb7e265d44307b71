package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/codenarok/SteamGameFetcher/internal/app"
	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/logging"
)

const usage = `usage: steamfetcher <command> [flags]

commands:
  scrape   extract the full compatibility catalog into the append-only CSV
  lookup   resolve titles from an input CSV and write a results CSV
  ingest   reconcile a CSV into the relational table (newest wins)
  sync     fetch titles from SQL, resolve each, store documents in MongoDB
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)

	var err error
	switch cmd := os.Args[1]; cmd {
	case "scrape":
		err = application.RunScrape(ctx)
	case "lookup":
		fs := flag.NewFlagSet("lookup", flag.ExitOnError)
		in := fs.String("in", "", "input CSV with titles")
		out := fs.String("out", "", "output CSV path")
		_ = fs.Parse(os.Args[2:])
		err = application.RunLookup(ctx, *in, *out)
	case "ingest":
		fs := flag.NewFlagSet("ingest", flag.ExitOnError)
		csvPath := fs.String("csv", "", "candidate CSV to reconcile")
		_ = fs.Parse(os.Args[2:])
		err = application.RunIngest(ctx, *csvPath)
	case "sync":
		err = application.RunSync(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}
