package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	handlers "aidoc/handler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := handlers.Execute(ctx)
	stop()
	os.Exit(code)
}
