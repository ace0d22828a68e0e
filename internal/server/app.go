// Package server assembles the matching core, its ledger, the gRPC and HTTP
// endpoints and the event dispatcher, and runs them until a shutdown signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/fhe/simfhe"
	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/config"
	"github.com/dmitrijs2005/gophmatch/internal/server/httpapi"
	"github.com/dmitrijs2005/gophmatch/internal/server/locations"
	"github.com/dmitrijs2005/gophmatch/internal/server/outbox"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmatch/internal/server/services"

	gs "github.com/dmitrijs2005/gophmatch/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	ledger     repomanager.Ledger
	match      *services.MatchService
	grpcServer *gs.GRPCServer
	httpServer *httpapi.Server
	dispatcher *outbox.Dispatcher
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	contract, err := fhe.ParseAddress(c.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}

	catalog, err := locations.LoadFile(c.LocationsFile)
	if err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}

	ledger, err := openLedger(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	sinks, err := openSinks(ctx, c, logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	engine := simfhe.New(c.FabricSecret)
	match := services.NewMatchService(ledger, engine, contract,
		services.WithCache(c.CacheSize, c.CacheTTL),
		services.WithLogger(logger),
	)

	var opts []gs.Option
	if c.GatewayEnabled {
		opts = append(opts, gs.WithGateway(engine, simfhe.NewGateway(engine, match)))
	}
	if c.StrictLocations {
		opts = append(opts, gs.WithLocations(catalog))
	}

	return &App{
		config:     c,
		logger:     logger,
		ledger:     ledger,
		match:      match,
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, match, c.SecretKey, opts...),
		httpServer: httpapi.NewServer(c.EndpointAddrHTTP, httpapi.NewRouter(match, catalog, logger), logger),
		dispatcher: outbox.NewDispatcher(ledger, sinks, logger, c.EventPollInterval, c.EventBatchSize),
	}, nil
}

func openLedger(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.Ledger, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN, using in-memory ledger")
		return memory.NewLedger(), nil
	}

	l, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return l, nil
}

func openSinks(ctx context.Context, c *config.Config, logger logging.Logger) ([]outbox.Sink, error) {
	sinks := []outbox.Sink{outbox.NewLogSink(logger)}

	if c.AMQPURL != "" {
		s, err := outbox.DialAMQP(c.AMQPURL, c.AMQPExchange)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if c.S3Bucket != "" {
		s, err := outbox.NewS3Sink(ctx, outbox.S3Config{
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			for _, open := range sinks {
				open.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until a signal arrives or an endpoint fails, then stops
// everything and closes the ledger.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	app.dispatcher.Start(ctx)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("grpc", app.grpcServer.Run)
	run("http", app.httpServer.Run)
	wg.Wait()

	if err := app.dispatcher.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := app.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close ledger: %w", err))
	}

	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}
