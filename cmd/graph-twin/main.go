// Command graph-twin serves a local Facebook Graph API twin for developing
// and testing the tap without network access.
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

	"github.com/custodia-labs/tap-facebook-pages/internal/graphtwin"
)

func main() {
	var (
		port     int
		seedFile string
		verbose  bool
	)
	flag.IntVar(&port, "port", 0, "HTTP listen port")
	flag.StringVar(&seedFile, "seed-file", "", "Path to a JSON or YAML seed fixture")
	flag.BoolVar(&verbose, "verbose", false, "Enable request logging")
	flag.Parse()

	if port == 0 {
		if p := os.Getenv("PORT"); p != "" {
			fmt.Sscanf(p, "%d", &port)
		}
	}
	if port == 0 {
		port = 12190
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	var seed graphtwin.Seed
	if seedFile != "" {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		seed, err = graphtwin.LoadSeed(seedFile, data)
		if err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
	}

	twin := graphtwin.New(graphtwin.NewStore(seed), logger)
	logger.Info("graph-twin ready", "port", port, "pages", len(seed.Pages))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := twin.Serve(ctx, fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
