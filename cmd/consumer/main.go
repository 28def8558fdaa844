package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/college-bus-booking/internal/config"
	"github.com/iliyamo/college-bus-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()

	logPath := pflag.String("log-file", "logs/booking.log", "file that receives one line per confirmed booking")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c := queue.NewConsumer(config.AMQPURL(), logger)
	c.LogPath = *logPath

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("booking consumer writing to %s", c.LogPath)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
