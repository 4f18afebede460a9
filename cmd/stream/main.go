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
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"StockStream/internal/collector"
	"StockStream/internal/config"
	"StockStream/internal/model"
	"StockStream/internal/notifier"
	"StockStream/internal/recorder"
	"StockStream/internal/scheduler"
)

const (
	exitOK       = 0
	exitRuntime  = 1
	exitArgument = 2
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

type cliArgs struct {
	configPath string
	symbols    string
	from       string
	to         string
	interval   time.Duration
	window     int
	capacity   int
	ordered    bool
}

func parseArgs(args []string) (*cliArgs, map[string]bool, error) {
	a := &cliArgs{configPath: "configs/config.yaml"}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		a.configPath = v
	}

	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	fs.StringVar(&a.configPath, "config", a.configPath, "YAML config file (missing file is fine)")
	fs.StringVar(&a.symbols, "symbols", "", "comma-separated ticker symbols (default AAPL,MSFT,UBER,GOOG)")
	fs.StringVar(&a.from, "from", "", "period start: RFC3339, YYYY-MM-DD or unix seconds (required)")
	fs.StringVar(&a.to, "to", "", "period end, defaults to now; not allowed with -interval")
	fs.DurationVar(&a.interval, "interval", 0, "re-run every interval until interrupted; 0 runs once")
	fs.IntVar(&a.window, "window", 0, "moving-average window in days (default 30)")
	fs.IntVar(&a.capacity, "capacity", 0, "result buffer capacity (default 100)")
	fs.BoolVar(&a.ordered, "ordered", false, "one-shot only: print rows in input symbol order")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return a, set, nil
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cfg *config.Config, a *cliArgs, set map[string]bool) {
	if set["symbols"] {
		cfg.Symbols = strings.Split(a.symbols, ",")
	}
	if set["window"] {
		cfg.Pipeline.WindowSize = a.window
	}
	if set["capacity"] {
		cfg.Pipeline.SinkCapacity = a.capacity
	}
	if set["ordered"] {
		cfg.Pipeline.Ordered = a.ordered
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	a, set, err := parseArgs(args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitArgument
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		log.Printf("[FATAL] load config: %v", err)
		return exitArgument
	}
	applyFlags(cfg, a, set)
	if err := cfg.Validate(); err != nil {
		log.Printf("[FATAL] config validation: %v", err)
		return exitArgument
	}

	interval := cfg.Interval()
	if set["interval"] {
		interval = a.interval
	}
	if interval < 0 {
		log.Printf("[FATAL] invalid interval %s: must not be negative", interval)
		return exitArgument
	}

	if a.from == "" {
		log.Println("[FATAL] -from is required")
		return exitArgument
	}
	start, err := config.ParseTime("from", a.from)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return exitArgument
	}
	end, err := config.ParseTime("to", a.to)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return exitArgument
	}
	symbols, _ := model.NormalizeSymbols(cfg.Symbols)

	src, closeSource, err := buildSource(ctx, cfg)
	if err != nil {
		log.Printf("[FATAL] init data source: %v", err)
		return exitRuntime
	}
	defer closeSource()
	log.Printf("[INFO] data source: %s", src.Name())

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.DSN != "" {
		sr, err := recorder.NewSQLRecorder(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.Printf("[WARN] init %s recorder failed, using noop: %v", cfg.Database.Driver, err)
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	var fwd *notifier.Forwarder
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		fwd = notifier.NewForwarder(context.WithoutCancel(ctx), tn, cfg.Pipeline.WindowSize, 256, 3)
		log.Println("[INFO] Telegram forwarding enabled")
	}

	mode := scheduler.OneShot
	if interval > 0 {
		mode = scheduler.Interval
	}
	ordered := cfg.Pipeline.Ordered && mode == scheduler.OneShot
	if cfg.Pipeline.Ordered && !ordered {
		log.Println("[WARN] ordered output is ignored in interval mode")
	}

	driver := scheduler.NewDriver(src, scheduler.Options{
		Mode:         mode,
		Interval:     interval,
		WindowSize:   cfg.Pipeline.WindowSize,
		SinkCapacity: cfg.Pipeline.SinkCapacity,
	})

	out := notifier.NewCSVWriter(stdout, notifier.Formatter{WindowSize: cfg.Pipeline.WindowSize}, ordered, symbols)
	if err := out.WriteHeader(); err != nil {
		log.Printf("[FATAL] %v", err)
		return exitRuntime
	}

	runErr := make(chan error, 1)
	go func() { runErr <- driver.Run(ctx, symbols, start, end) }()

	for r := range driver.Records() {
		if err := out.Write(r); err != nil {
			log.Printf("[ERROR] %v", err)
		}
		if err := rec.RecordSummary(context.WithoutCancel(ctx), r); err != nil {
			log.Printf("[WARN] record %s: %v", r.Symbol, err)
		}
		if fwd != nil {
			fwd.Forward(r)
		}
	}
	if err := out.Flush(); err != nil {
		log.Printf("[ERROR] %v", err)
	}
	if fwd != nil {
		log.Printf("[INFO] forwarded %d rows to Telegram", fwd.Close())
	}

	if err := <-runErr; err != nil {
		log.Printf("[FATAL] %v", err)
		var argErr *model.ArgumentError
		if errors.As(err, &argErr) {
			return exitArgument
		}
		return exitRuntime
	}
	log.Printf("[INFO] done: %d rows over %d cycles", out.Rows(), driver.Cycles())
	return exitOK
}

// buildSource selects the provider and wraps it with the configured cache and
// throttle. The returned func releases cache connections.
func buildSource(ctx context.Context, cfg *config.Config) (collector.QuoteSource, func(), error) {
	var src collector.QuoteSource
	switch cfg.DataSource.Provider {
	case "yahoo":
		var opts []collector.YahooOption
		if cfg.DataSource.BaseURL != "" {
			opts = append(opts, collector.WithYahooBaseURL(cfg.DataSource.BaseURL))
		}
		src = collector.NewYahooFetcher(cfg.Proxy, cfg.FetchTimeout(), opts...)
	case "rest":
		src = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.FetchTimeout())
	case "financego":
		src = collector.NewFinanceGoFetcher()
	case "static":
		src = &collector.StaticFetcher{}
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.DataSource.Provider)
	}

	cleanup := func() {}
	if ttl := cfg.CacheTTL(); ttl > 0 {
		var store collector.Store = collector.NewMemoryStore(cfg.Cache.MaxItems)
		if cfg.Cache.RedisAddr != "" {
			rs := collector.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
			if err := rs.Ping(ctx); err != nil {
				log.Printf("[WARN] redis %s unreachable, using in-memory cache: %v", cfg.Cache.RedisAddr, err)
				_ = rs.Close()
			} else {
				store = rs
				cleanup = func() { _ = rs.Close() }
			}
		}
		src = &collector.Cached{Source: src, Store: store, TTL: ttl}
	}

	// financego has no context support; the throttle timeout bounds it
	var timeout time.Duration
	if cfg.DataSource.Provider == "financego" {
		timeout = cfg.FetchTimeout()
	}
	return collector.NewThrottled(src, cfg.DataSource.MaxConcurrent, timeout), cleanup, nil
}
