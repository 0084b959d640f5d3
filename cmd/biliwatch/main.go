package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/pashkov/biliwatch/pkg/bili"
	"github.com/pashkov/biliwatch/pkg/config"
	"github.com/pashkov/biliwatch/pkg/monitor"
	"github.com/pashkov/biliwatch/pkg/notify"
	"github.com/pashkov/biliwatch/pkg/store"
	"github.com/pashkov/biliwatch/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"biliwatch.yml" description:"config file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] can't load config %s: %v", opts.Config, err)
		os.Exit(1)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	setupLog(opts.Debug, opts.NoColor, cfg.SendAPI.Token, cfg.Monitor.Cookie)
	log.Printf("[INFO] starting biliwatch version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts); err != nil {
		cancel()
		log.Printf("[ERROR] biliwatch failed: %v", err)
		os.Exit(1)
	}
	cancel()
	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	db, err := store.New(ctx, store.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	httpc := &http.Client{Timeout: 15 * time.Second}
	keys := bili.NewNavKeyStore(httpc, "", map[string]string{"Cookie": cfg.Monitor.Cookie})
	client := bili.NewClient(bili.ClientConfig{
		HTTPClient: httpc,
		Keys:       keys,
		Cookie:     cfg.Monitor.Cookie,
	})

	resolver := bili.NewNameResolver(client)
	fetcher := bili.NewFetcher(client, bili.NewNormalizer(resolver), cfg.Monitor.LegacyFirst)

	dumper := &monitor.Dumper{
		Enabled: cfg.Monitor.DebugDump,
		Dir:     cfg.Monitor.DebugDumpDir,
		UIDs:    cfg.Monitor.DebugDumpUIDs,
	}
	fetcher.SetDump(dumper.Dump)

	sender := notify.NewHTTPSender(cfg.SendAPI.Endpoint, cfg.SendAPI.Token, nil)
	dispatcher := notify.NewDispatcher(sender, nil, notify.ImageConfig{
		Enabled:        cfg.Images.Enabled,
		MaxCount:       cfg.Images.MaxCount,
		MaxBytes:       cfg.Images.MaxBytes,
		DownscaleWidth: cfg.Images.DownscaleWidth,
		Quality:        cfg.Images.Quality,
		PerImageDelay:  cfg.Images.PerImageDelay,
		ScratchDir:     cfg.Images.ScratchDir,
	})

	mon := monitor.New(fetcher, db, dispatcher, monitor.Config{
		Routes:       cfg.Routes(),
		PollInterval: cfg.Monitor.PollInterval,
		PollJitter:   cfg.Monitor.PollJitter,
		Policy: monitor.Policy{
			MaxPushAge:     cfg.Monitor.MaxPushAge,
			ColdStartGrace: cfg.Monitor.ColdStartGrace,
			BackfillWindow: cfg.Monitor.BackfillWindow,
		},
	})

	srv := server.New(cfg, mon, cfg.Server.AdminTokens, revision, opts.Debug)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if cfg.Monitor.Enabled {
			mon.Start(groupCtx)
		} else {
			log.Print("[WARN] monitor disabled in config, control api can start it")
		}
		<-groupCtx.Done()
		mon.Stop()
		return nil
	})
	group.Go(func() error {
		return srv.Run(groupCtx)
	})

	return group.Wait()
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	for _, sec := range secs {
		if sec != "" {
			logOpts = append(logOpts, lgr.Secret(sec))
		}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
