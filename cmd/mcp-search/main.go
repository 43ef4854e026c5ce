package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/app"
	"github.com/wolvina/wolvina-go/internal/wolvina/mcpserver"
)

func main() {
	a := app.New("mcp-search")
	mc := a.Config.MCP
	server := mcpserver.New(a.Search(), a.Config.App.Version, a.Logger)

	mux := http.NewServeMux()
	mux.Handle(mc.Path, mcpserver.Handler(server))
	addr := fmt.Sprintf("%s:%d", mc.Host, mc.Port)

	if err := a.Run(func(ctx context.Context) error {
		return api.Serve(ctx, addr, mux, a.Logger)
	}); err != nil {
		stdlog.Fatalf("mcp server: %v", err)
	}
}
