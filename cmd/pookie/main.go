package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intrntsrfr/pookie"
	"github.com/intrntsrfr/pookie/config"
	"github.com/intrntsrfr/pookie/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.New("pookie", cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	bot, err := pookie.NewBot(ctx, cfg, l)
	cancel()
	if err != nil {
		l.Fatal("failed to create bot", zap.Error(err))
	}
	defer bot.Close()

	if err := bot.Run(); err != nil {
		l.Fatal("failed to connect to discord", zap.Error(err))
	}

	// block until ctrl-c
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
	l.Info("shutting down")
}
