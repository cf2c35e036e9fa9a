// Command rulekit-cache serves a content-addressed cache of provider maps
// over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/cas/server"
	"github.com/kbukum/rulekit/config"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/version"
)

const serviceName = "rulekit-cache"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  string
		envFile     string
		port        int
		showVersion bool
	)
	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVarP(&configFile, "config", "c", "", "path to the YAML config file")
	flagSet.StringVar(&envFile, "env-file", "", "path to a .env file")
	flagSet.IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Fprint(os.Stdout, serviceName)
		return nil
	}

	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := config.Load(serviceName, opts...)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	log := logger.New(&cfg.Logging, cfg.Base.Name)
	logger.SetGlobalLogger(log)
	logger.RegisterDefaults("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()

		meterCfg := observability.MeterConfigFrom(cfg.Tracing)
		mp, err := observability.InitMeter(ctx, &meterCfg)
		if err != nil {
			return err
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
	}

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	backend, err := cas.New(cfg.Cache, log, metrics)
	if err != nil {
		return fmt.Errorf("creating cache backend: %w", err)
	}

	srv := server.New(cfg.Server, backend, log, metrics)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Get("main").Info("Serving", logger.Fields(
		"addr", srv.Addr(),
		logger.FieldBackend, cfg.Cache.Backend,
		"version", version.GetShortVersion(),
	))

	<-ctx.Done()
	return srv.Stop(context.Background())
}
