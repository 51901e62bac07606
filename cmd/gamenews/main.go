package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"gamenews/pkg/config"
	"gamenews/pkg/domain"
	"gamenews/pkg/notify"
	"gamenews/pkg/pipeline"
	"gamenews/pkg/source"
	"gamenews/pkg/state"
)

// Opts with all CLI options
type Opts struct {
	Config     string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Game       string `short:"g" long:"game" env:"ONLY_GAME" description:"restrict the run to a single game"`
	DryRun     bool   `long:"dry-run" env:"DRY_RUN" description:"log deliveries and state writes without performing them"`
	StatePath  string `long:"state" env:"NEWS_STATE_PATH" description:"state file path override"`
	SinceHours int    `long:"since-hours" env:"SINCE_HOURS" description:"only consider items updated within the last N hours"`

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

	// optional .env for the webhook secret, ignore when absent
	_ = godotenv.Load()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] failed to load config: %v", err)
		os.Exit(1)
	}

	color.NoColor = opts.NoColor
	setupLog(opts.Debug, cfg.Delivery.WebhookURL)

	log.Printf("[INFO] starting gamenews version %s", revision)

	if cfg.Delivery.WebhookURL == "" && !opts.DryRun {
		log.Printf("[ERROR] delivery.webhook_url is required unless running with --dry-run")
		os.Exit(1)
	}

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
		log.Printf("[ERROR] cycle failed: %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] run complete")
}

// run wires the pipeline from config and executes a single cycle
func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	client := source.NewClient(source.ClientConfig{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Attempts:  cfg.HTTP.RetryAttempts,
		Delay:     cfg.HTTP.RetryDelay,
		MaxDelay:  cfg.HTTP.RetryMaxDelay,
	})

	statePath := cfg.State.Path
	if opts.StatePath != "" {
		statePath = opts.StatePath
	}
	store := state.NewStore(statePath, opts.DryRun)
	if err := store.Load(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	colors := make(map[domain.Game]int, len(cfg.Colors))
	for game, c := range cfg.Colors {
		colors[domain.Game(game)] = c
	}

	runner := pipeline.NewRunner(
		buildAdapters(cfg, client),
		store,
		notify.NewWebhookSink(cfg.Delivery.WebhookURL, cfg.Delivery.Timeout, opts.DryRun),
		notify.NewBuilder(colors),
		pipeline.Options{
			OnlyGame:   domain.Game(opts.Game),
			SinceHours: opts.SinceHours,
			MaxWorkers: cfg.Run.MaxWorkers,
			SendPacing: cfg.Run.SendPacing,
			RunTimeout: cfg.Run.Timeout,
		},
	)

	_, err := runner.Run(ctx)
	return err
}

// buildAdapters constructs the statically registered adapter set from
// the configured platforms
func buildAdapters(cfg *config.Config, client *source.Client) []source.Adapter {
	var adapters []source.Adapter

	if len(cfg.Platforms.Hoyolab.Games) > 0 {
		games := make(map[domain.Game]source.HoyolabGame, len(cfg.Platforms.Hoyolab.Games))
		for name, gc := range cfg.Platforms.Hoyolab.Games {
			games[domain.Game(name)] = source.HoyolabGame{
				GIDs:       gc.GIDs,
				Categories: toCategories(gc.Categories),
			}
		}
		adapters = append(adapters, source.NewHoyolab(client, games, cfg.Run.CategorySize))
	}

	if len(cfg.Platforms.Gryphline.Games) > 0 {
		games := make(map[domain.Game]source.GryphlineGame, len(cfg.Platforms.Gryphline.Games))
		for name, gc := range cfg.Platforms.Gryphline.Games {
			games[domain.Game(name)] = source.GryphlineGame{Tabs: toCategories(gc.Tabs)}
		}
		adapters = append(adapters, source.NewGryphline(client, games))
	}

	if cfg.Platforms.Shadowverse.Enabled {
		adapters = append(adapters, source.NewShadowverse(client))
	}

	if len(cfg.Platforms.RSS.Feeds) > 0 {
		feeds := make([]source.RSSFeed, 0, len(cfg.Platforms.RSS.Feeds))
		for _, f := range cfg.Platforms.RSS.Feeds {
			feeds = append(feeds, source.RSSFeed{Game: domain.Game(f.Game), URL: f.URL})
		}
		adapters = append(adapters, source.NewRSS(client, feeds))
	}

	return adapters
}

func toCategories(names []string) []domain.Category {
	cats := make([]domain.Category, 0, len(names))
	for _, name := range names {
		cats = append(cats, domain.Category(name))
	}
	return cats
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stdout), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
