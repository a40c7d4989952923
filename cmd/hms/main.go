package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Raheemullah8/hms-portal/internal/cli"
	appconfig "github.com/Raheemullah8/hms-portal/internal/config"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{Config: appconfig.Load()}, os.Args[1:])
	stop()
	os.Exit(code)
}
