// Package app assembles services from configuration for the binaries.
package app

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wolvina/wolvina-go/internal/wolvina/actions"
	"github.com/wolvina/wolvina-go/internal/wolvina/chatui"
	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/pool"
	"github.com/wolvina/wolvina-go/internal/wolvina/ratelimit"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
)

// App holds the shared collaborators of one process.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Pools  *pool.Manager
}

// New loads configuration and builds the logger for service.
func New(service string) *App {
	return NewWithOutput(service, nil)
}

// NewWithOutput is New with console logs sent to out instead of stdout.
func NewWithOutput(service string, out io.Writer) *App {
	cfg := config.Load()
	logger := log.New(log.Options{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
		File:    cfg.App.LogFile,
		Service: service,
		Output:  out,
	})
	ctx := context.Background()
	for _, w := range cfg.Validate() {
		logger.Warn(ctx, w)
	}
	logger.Info(ctx, "configuration loaded",
		log.KV("version", cfg.App.Version),
		log.KV("environment", cfg.App.Environment))
	return &App{Config: cfg, Logger: logger, Pools: pool.NewManager(cfg.Memory, logger)}
}

// LLM returns the default provider client, or nil when none is configured.
// Callers fall back to canned text on nil.
func (a *App) LLM(ctx context.Context) llm.Client {
	client, err := llm.NewClient(ctx, a.Config.LLM.DefaultProvider, a.Config, a.Logger)
	if err != nil {
		a.Logger.Warn(ctx, "llm client unavailable", log.KV("provider", a.Config.LLM.DefaultProvider), log.Err(err))
		return nil
	}
	return client
}

// Search builds the search tool from configuration.
func (a *App) Search() *search.Tool {
	return SearchTool(a.Config.Search, a.Logger)
}

// SearchTool registers DuckDuckGo and, when a key is present, Tavily. With no
// provider configured, Tavily is the default whenever it is registered.
func SearchTool(sc config.SearchConfig, logger *log.Logger) *search.Tool {
	providers := []search.Provider{search.NewDuckDuckGoClient(sc.DuckDuckGoURL, sc.Timeout)}
	defaultProvider := sc.DefaultProvider
	if sc.TavilyAPIKey != "" {
		tavily := search.NewTavilyClient(sc.TavilyAPIKey, sc.TavilyBaseURL, sc.Timeout)
		providers = append([]search.Provider{tavily}, providers...)
		if defaultProvider == "" {
			defaultProvider = tavily.Name()
		}
	}
	return search.NewTool(logger, defaultProvider, providers...)
}

// Actions builds the action registry with every dependency wired.
func (a *App) Actions(ctx context.Context) *actions.Registry {
	return actions.Default(actions.DepsFromConfig(a.Config, a.Logger, a.LLM(ctx), a.Search()))
}

func (a *App) redisEnabled() bool {
	return a.Config.Memory.StoreType == "redis"
}

// Limiter returns a Redis limiter when Redis is configured and reachable,
// otherwise an in-process one.
func (a *App) Limiter(ctx context.Context, perMinute int) ratelimit.Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if a.redisEnabled() {
		client, err := a.Pools.Client(ctx, pool.RateLimit)
		if err == nil {
			return ratelimit.NewRedis(client, a.Logger, time.Minute, perMinute)
		}
		a.Logger.Warn(ctx, "redis rate limiter unavailable, using memory", log.Err(err))
	}
	return ratelimit.NewMemory(time.Minute, perMinute)
}

// ChatStore returns a Redis transcript store when configured, otherwise an
// in-memory one.
func (a *App) ChatStore(ctx context.Context) chatui.Store {
	if a.redisEnabled() {
		client, err := a.Pools.Client(ctx, pool.ChatHistory)
		if err == nil {
			return chatui.NewRedisStore(client, a.Config.ChatUI.HistoryTTL)
		}
		a.Logger.Warn(ctx, "redis chat store unavailable, using memory", log.Err(err))
	}
	return chatui.NewMemoryStore()
}

// Run executes every task until one fails or the process is signalled.
func (a *App) Run(tasks ...func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}
	err := g.Wait()
	if cerr := a.Pools.Close(); cerr != nil {
		a.Logger.Warn(context.Background(), "closing redis pools", log.Err(cerr))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info(context.Background(), "stopped")
	return nil
}
