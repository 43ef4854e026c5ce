package main

import (
	"context"
	"fmt"
	stdlog "log"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/app"
	"github.com/wolvina/wolvina-go/internal/wolvina/searchapi"
)

func main() {
	a := app.New("search-api")
	sc := a.Config.SearchAPI
	limiter := a.Limiter(context.Background(), sc.RateLimitPerMinute)
	server := searchapi.NewServer(a.Search(), limiter, a.Logger)
	addr := fmt.Sprintf("%s:%d", sc.Host, sc.Port)

	if err := a.Run(func(ctx context.Context) error {
		return api.Serve(ctx, addr, server.Handler(), a.Logger)
	}); err != nil {
		stdlog.Fatalf("search api: %v", err)
	}
}
