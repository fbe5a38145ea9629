package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/serprelay/internal/app"
	"github.com/hyperifyio/serprelay/internal/assemble"
)

type options struct {
	configPath string
	envFiles   string
	port       string
	query      string
	verbose    bool
	version    bool
}

func main() {
	fs := flag.NewFlagSet("serprelay", flag.ExitOnError)
	opts := bindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if opts.version {
		fmt.Printf("serprelay %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	cfg, err := loadConfig(fs, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	app.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts.query, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func bindFlags(fs *flag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.configPath, "config", os.Getenv("SERPRELAY_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&o.envFiles, "env", ".env", "Comma-separated dotenv files to load (missing files are ignored)")
	fs.StringVar(&o.port, "port", "", "Listen port (overrides PORT)")
	fs.StringVar(&o.query, "query", "", "Run the enrichment pipeline once for this query, print JSON and exit")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	return o
}

// loadConfig layers defaults, config file, environment and explicitly set flags.
func loadConfig(fs *flag.FlagSet, o *options) (app.Config, error) {
	if err := app.LoadEnvFiles(strings.Split(o.envFiles, ",")...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.DefaultConfig()
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ApplyEnv(&cfg); err != nil {
		return app.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = o.port
		case "v":
			if o.verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	return cfg, app.ValidateConfig(cfg)
}

func run(ctx context.Context, cfg app.Config, query string, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if query == "" {
		return a.Run(ctx)
	}

	sources, err := a.Query(ctx, query)
	if err != nil {
		return err
	}
	if sources == nil {
		sources = []assemble.Source{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"sourcesWithContent": sources}); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
