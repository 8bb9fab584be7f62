package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docindex/app/server"
	"docindex/types"
	"docindex/watcher"
)

func init() {
	mustLoadEnvVariables()
}

func main() {
	cfg := types.ConfigFromEnv()
	s := server.NewServer(os.Getenv("SERVER_ADDR"), cfg)

	ready := make(chan struct{})
	go s.Run(ready)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-ready
		watcher.New(cfg, s.Engine()).Run(ctx)
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	cancel()
	s.Stop()
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}
