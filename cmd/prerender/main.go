// Command prerender warms the cache the way a static site build does: it runs
// in static-generation mode, computes every canonical collection and derived
// view through the cache manager and reports how each key was served.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"escaperooms-directory/internal/repositories"
	"escaperooms-directory/internal/services"
	"escaperooms-directory/internal/transformers"
	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/config"
	"escaperooms-directory/pkg/logger"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config (defaults to $CONFIG_PATH or configs/config.yaml)")
		perRoom    = flag.Bool("rooms", true, "also warm every room detail entry")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall deadline")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, relying on system environment variables: %v", err)
	}
	cfg, err := config.LoadConfig(resolveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg.Log.Level, cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	code := run(ctx, cfg, *perRoom, os.Stdout)
	cancel()
	stop()
	_ = logger.GlobalLogger.Sync()
	os.Exit(code)
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// run returns the process exit code. Only a compute failure is fatal; cache
// trouble just means the build ran uncached.
func run(ctx context.Context, cfg *config.Config, perRoom bool, out io.Writer) int {
	store, err := cache.OpenStore(cfg.Cache, cache.ModeStatic)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to open cache backend, warming uncached: %v", err)
	}
	manager := cache.NewManager(ctx, store, cache.Options{
		Namespace:    cfg.Cache.Namespace,
		WriteTimeout: cfg.Cache.WriteTimeout,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Cache.WriteTimeout+time.Second)
		defer cancel()
		if err := manager.Close(closeCtx); err != nil {
			logger.GlobalLogger.Errorf("Failed to close cache: %v", err)
		}
	}()

	repo := repositories.NewRoomRepository(repositories.NewSource(cfg.Source), transformers.NewRoomTransformer())
	svc := services.NewRoomService(manager, repo, cfg.TTL)

	start := time.Now()
	report, err := svc.Warm(ctx, perRoom)
	printReport(out, report, manager.Degraded(), time.Since(start))

	if err != nil {
		var computeErr *cache.ComputeFailedError
		if errors.As(err, &computeErr) {
			color.New(color.FgRed, color.Bold).Fprintf(out, "prerender failed: %v\n", err)
			return 1
		}
		color.New(color.FgYellow).Fprintf(out, "prerender finished with warnings: %v\n", err)
	}
	return 0
}

func printReport(out io.Writer, report *services.WarmReport, degraded bool, took time.Duration) {
	if report == nil {
		return
	}
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(out, "Prerender summary")

	if degraded {
		color.New(color.FgYellow).Fprintln(out, "  cache: degraded, every view computed directly")
	}

	keys := make([]string, 0, len(report.Outcomes))
	for k := range report.Outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-20s %s\n", k, outcomeColor(report.Outcomes[k]).Sprint(report.Outcomes[k]))
	}

	fmt.Fprintf(out, "  rooms=%d states=%d cities=%d themes=%d countries=%d details=%d\n",
		report.Rooms, report.States, report.Cities, report.Themes, report.Countries, report.Details)
	if report.Stats != nil {
		fmt.Fprintf(out, "  average rating %.1f over %d rated rooms\n", report.Stats.AverageRating, report.Stats.RatedRooms)
	}
	color.New(color.FgGreen).Fprintf(out, "  done in %s\n", took.Round(time.Millisecond))
}

func outcomeColor(o cache.Outcome) *color.Color {
	switch o {
	case cache.Hit:
		return color.New(color.FgGreen)
	case cache.MissRecovered, cache.StaticFallback:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgYellow)
	}
}
