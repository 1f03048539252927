package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/clock"
	"github.com/hourglass-exchange/hourglass/internal/config"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/dispatcher"
	"github.com/hourglass-exchange/hourglass/internal/events"
	"github.com/hourglass-exchange/hourglass/internal/exchange"
	"github.com/hourglass-exchange/hourglass/internal/httpserver"
	"github.com/hourglass-exchange/hourglass/internal/model"
	"github.com/hourglass-exchange/hourglass/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	configPath := os.Getenv("HOURGLASS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfgFile config.File
	if _, statErr := os.Stat(configPath); statErr != nil {
		slog.Warn("config file not found, using built-in defaults", "path", configPath)
		cfgFile = config.Defaults()
	} else {
		var err error
		cfgFile, err = config.Load(configPath)
		if err != nil {
			slog.Error("config load failed", "err", err)
			os.Exit(1)
		}
	}

	if dump, err := cfgFile.Dump(); err != nil {
		slog.Warn("could not render effective config for logging", "err", err)
	} else {
		slog.Debug("effective config", "yaml", string(dump))
	}

	var cleanup []func()
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Archive sink ---
	var sink persistence.ArchiveSink
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		if _, err := pool.Exec(context.Background(), persistence.Schema); err != nil {
			slog.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		sink = persistence.NewPostgresSink(pool)
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory archive sink (data will not persist)")
		sink = persistence.NewMemorySink()
	}

	// --- Account, data source, exchange ---
	clk := clock.New(0, clock.NewConstant(0))
	session := uuid.New()
	acc := account.New(cfgFile.ToAccountConfig(), clk, session)

	source, err := buildSource(cfgFile)
	if err != nil {
		slog.Error("data source setup failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	builder := exchange.NewBuilder().
		Account(acc).
		DataSource(source).
		Symbols(cfgFile.Instruments()).
		Sink(&archiveSink{sink: sink, session: session.String()})

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		builder = builder.Sink(events.NewRedisRelay(ctx, rdb, "hourglass:events:"+session.String()))
		slog.Info("Redis event relay enabled")
	}

	ex, err := builder.Initiate()
	if err != nil {
		slog.Error("exchange builder incomplete", "err", err)
		os.Exit(1)
	}

	go ex.Dispatcher.Run(ctx)
	go ex.Hub.Run(ctx, ex.Dispatcher)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      httpserver.New(ex.Hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("hourglass listening", "port", port, "session", session.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// --- Tick driver ---
	go driveTicks(ctx, ex.Dispatcher)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down hourglass...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("hourglass stopped")
}

// buildSource opens the configured backtest feed file as a newline-delimited
// JSON MarketTrade source, or falls back to an empty slice source outside
// backtest mode (a live adapter would plug in here via datasource.NewChannel).
func buildSource(f config.File) (datasource.Source, error) {
	if f.DataPath == "" {
		return datasource.NewSlice(nil), nil
	}
	data, err := os.ReadFile(f.DataPath)
	if err != nil {
		return nil, fmt.Errorf("read data_path %s: %w", f.DataPath, err)
	}
	trades, err := datasource.DecodeJSONLines(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.DataPath, err)
	}
	return datasource.NewSlice(trades), nil
}

// driveTicks issues LetItRoll requests back to back until a tick returns
// an error or ctx is cancelled. Once the source is exhausted it keeps
// issuing idle ticks, sleeping a millisecond after each EndOfStream so
// the loop doesn't spin the CPU.
func driveTicks(ctx context.Context, disp *dispatcher.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		req := dispatcher.NewRequest(dispatcher.ReqLetItRoll)
		select {
		case disp.Requests() <- req:
		case <-ctx.Done():
			return
		}
		select {
		case resp := <-req.Response:
			if resp.Err != nil {
				slog.Error("tick loop halted", "err", resp.Err)
				return
			}
			for _, ev := range resp.AccountEvents {
				if ev.Kind == model.EventEndOfStream {
					time.Sleep(time.Millisecond)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// archiveSink implements events.Sink, persisting every ExitedPosition
// the hub publishes. Registered via hub.Subscribe so it observes the same
// fanned-out stream as WebSocket clients rather than racing them for
// events on the dispatcher's own channels.
type archiveSink struct {
	sink    persistence.ArchiveSink
	session string
}

func (a *archiveSink) Publish(env events.Envelope) {
	ev, ok := env.Account.(model.AccountEvent)
	if !ok || ev.ExitedPosition == nil {
		return
	}
	if err := a.sink.Archive(context.Background(), a.session, *ev.ExitedPosition); err != nil {
		slog.Error("archive failed", "err", err)
	}
}
