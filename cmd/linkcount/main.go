// Command linkcount prints the number of live links in the configured store.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/linkstore/internal/app"
	"github.com/sundayezeilo/linkstore/internal/config"
	"github.com/sundayezeilo/linkstore/internal/link"
)

func main() {
	if err := run(os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Only failures are worth reporting from a one-shot command.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, closeStore, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open link store: %w", err)
	}
	defer closeStore()

	links, err := link.NewService(store).List(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%d links\n", len(links))
	return err
}
