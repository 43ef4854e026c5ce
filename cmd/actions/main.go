package main

import (
	"context"
	stdlog "log"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/app"
)

func main() {
	a := app.New("actions")
	registry := a.Actions(context.Background())
	server := api.NewServer(a.Config, registry, a.Logger)

	if err := a.Run(server.Run); err != nil {
		stdlog.Fatalf("action server: %v", err)
	}
}
