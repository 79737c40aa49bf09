package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"asis-server/internal/adapters/storage/filesystem"
	"asis-server/internal/adapters/storage/memory"
	cfgpkg "asis-server/internal/infrastructure/config"
	httpapi "asis-server/internal/infrastructure/httpapi"
	obs "asis-server/internal/infrastructure/observability"
	"asis-server/internal/server"
	"asis-server/internal/usecase"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "asis-server: %v\n", err)
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Printf("asis-server %s (%s) %s\n", obs.Version, obs.Commit, obs.Date)
		return
	}

	logger := obs.NewLoggerTo(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Config, logger); err != nil {
		logger.Error().Err(err).Msg("asis-server failed")
		stop()
		os.Exit(1)
	}
}

// forkChildEnv marks a process started by fork mode; it always runs in the
// foreground.
const forkChildEnv = "ASIS_FORK_CHILD"

type options struct {
	cfgpkg.Config
	showVersion bool
}

// parseFlags layers configuration: defaults, environment, config file, then
// flags given on the command line. A positional argument sets the document
// root.
func parseFlags(args []string) (options, error) {
	opts := options{Config: cfgpkg.FromEnv()}
	fs := flag.NewFlagSet("asis-server", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	root := fs.String("root", "", "directory holding the .asis documents")
	addr := fs.String("addr", "", "listen address")
	mode := fs.String("mode", "", "run mode: foreground, background or fork")
	writeMode := fs.String("write-mode", "", "response writing: raw or structured")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "", "log format: json or console")
	delay := fs.String("delay", "", "response delay in ms, or a range like 100-500")
	h2cFlag := fs.Bool("h2c", false, "accept HTTP/2 over cleartext")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	if *configFile != "" {
		c, err := cfgpkg.LoadFile(*configFile, opts.Config)
		if err != nil {
			return opts, err
		}
		opts.Config = c
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(name string, dst *string, v string) {
		if set[name] {
			*dst = v
		}
	}
	apply("root", &opts.Root, *root)
	apply("addr", &opts.Addr, *addr)
	apply("mode", &opts.RunMode, *mode)
	apply("write-mode", &opts.WriteMode, *writeMode)
	apply("log-level", &opts.LogLevel, *logLevel)
	apply("log-format", &opts.LogFormat, *logFormat)
	if set["h2c"] {
		opts.H2C = *h2cFlag
	}
	if set["delay"] {
		fixed, min, max, err := cfgpkg.ParseDelay(*delay)
		if err != nil {
			return opts, fmt.Errorf("-delay: %w", err)
		}
		opts.ResponseDelayMs, opts.ResponseDelayMinMs, opts.ResponseDelayMaxMs = fixed, min, max
	}
	if fs.NArg() == 1 {
		opts.Root = fs.Arg(0)
	}
	if os.Getenv(forkChildEnv) == "1" {
		opts.RunMode = cfgpkg.ModeForeground
	}
	return opts, opts.Validate()
}

func run(ctx context.Context, cfg cfgpkg.Config, logger *zerolog.Logger) error {
	if cfg.RunMode == cfgpkg.ModeFork {
		return runFork(ctx, cfg, logger)
	}

	handler, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Addr, handler, logger, cfg.ReadyTimeout)

	if cfg.RunMode == cfgpkg.ModeBackground {
		h, err := srv.Start(ctx)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
		case <-h.Done():
		}
		err = h.Close()
		logger.Info().Msg("asis-server stopped")
		return err
	}

	err = srv.Run(ctx)
	logger.Info().Msg("asis-server stopped")
	return err
}

func newHandler(cfg cfgpkg.Config, logger *zerolog.Logger) (http.Handler, error) {
	docs, err := filesystem.NewStore(cfg.Root)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("addr", cfg.Addr).
		Str("root", docs.Root()).
		Str("mode", cfg.RunMode).
		Str("write_mode", cfg.WriteMode).
		Bool("h2c", cfg.H2C).
		Str("version", obs.Version).
		Msg("starting asis-server")

	history := memory.NewStore(cfg.HistorySize, cfg.HistoryTTL)
	svc := usecase.NewDocumentService(docs, history)
	deps := &httpapi.Deps{
		Cfg:     cfg,
		Logger:  logger,
		Metrics: obs.NewMetrics(),
		Svc:     svc,
		Monitor: httpapi.NewMonitorHub(),
		Delay:   httpapi.NewResponseDelay(cfg),
	}
	return httpapi.NewRouterWithDeps(deps), nil
}

// runFork re-executes this binary in foreground mode and supervises it until
// ctx is canceled or the child exits.
func runFork(ctx context.Context, cfg cfgpkg.Config, logger *zerolog.Logger) error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(self, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), forkChildEnv+"=1")

	child, err := server.Spawn(ctx, cmd, cfg.Addr, cfg.ReadyTimeout)
	if err != nil {
		return err
	}
	logger.Info().Int("pid", child.Pid()).Str("addr", child.Addr).Msg("child server ready")

	select {
	case <-ctx.Done():
		err = child.Stop()
	case <-child.Done():
		err = child.Stop()
		if err == nil {
			err = errors.New("child server exited")
		}
	}
	logger.Info().Msg("asis-server stopped")
	return err
}
