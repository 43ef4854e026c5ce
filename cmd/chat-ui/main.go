package main

import (
	"context"
	"fmt"
	stdlog "log"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/app"
	"github.com/wolvina/wolvina-go/internal/wolvina/chatui"
)

func main() {
	a := app.New("chat-ui")
	uc := a.Config.ChatUI
	rasa := chatui.NewRasaClient(uc.RasaURL, 0)
	server := chatui.NewServer(rasa, a.ChatStore(context.Background()), a.Logger).WithHealth(a.Pools.Health)
	addr := fmt.Sprintf("%s:%d", uc.Host, uc.Port)

	if err := a.Run(func(ctx context.Context) error {
		return api.Serve(ctx, addr, server.Handler(), a.Logger)
	}); err != nil {
		stdlog.Fatalf("chat ui: %v", err)
	}
}
