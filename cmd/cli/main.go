package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/cookiecutter/internal/buildinfo"
	"github.com/dmitrijs2005/cookiecutter/internal/client/blobs"
	"github.com/dmitrijs2005/cookiecutter/internal/client/cli"
	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/config"
	"github.com/dmitrijs2005/cookiecutter/internal/client/generation"
	"github.com/dmitrijs2005/cookiecutter/internal/client/metrics"
	"github.com/dmitrijs2005/cookiecutter/internal/client/notify"
	"github.com/dmitrijs2005/cookiecutter/internal/client/preview"
	"github.com/dmitrijs2005/cookiecutter/internal/client/session"
	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func newLogger(cfg *config.Config) (logging.Logger, func(), error) {
	if cfg.LogBackend == config.LogBackendZap {
		z, err := logging.NewJSONZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		return z, func() { _ = z.Sync() }, nil
	}
	return logging.NewTextLogger(os.Stderr, cfg.LogLevel), func() {}, nil
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, flush, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer flush()

	kv, closer, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closer.Close()

	ln, err := net.Listen("tcp", cfg.PreviewAddr)
	if err != nil {
		return fmt.Errorf("preview listen: %w", err)
	}

	m := metrics.New()
	registry := blobs.NewRegistry(preview.BlobBase(ln))
	repo := workspace.New(store.NewWorkspaceStore(kv), registry, logger, workspace.WithMetrics(m))

	notifier := notify.New(cfg.NotificationTTL, func(msg notify.Message) {
		fmt.Printf("[%s] %s\n", msg.Severity, msg.Text)
	})

	var resolver *session.Resolver
	opts := client.Options{
		Timeout: cfg.RequestTimeout,
		Rate:    rate.Limit(cfg.GenerateRate),
		Burst:   cfg.GenerateBurst,
		Credential: func() string {
			return resolver.State().Credential()
		},
	}
	resolver = session.NewResolver(kv, client.NewIdentityClient(cfg.IdentityURL, opts), notifier, logger, cfg.RedirectURL)

	pipeline := generation.NewPipeline(
		client.NewGeneratorClient(cfg.GeneratorURL, opts),
		repo,
		generation.DirSaver{Dir: cfg.DownloadDir},
		notifier,
		logger,
		generation.WithMetrics(m),
	)
	editor := generation.NewEditor(pipeline, repo)

	app := cli.NewApp(cli.Deps{
		Repo:     repo,
		Editor:   editor,
		Pipeline: pipeline,
		Session:  resolver,
		Log:      logger,
	})
	srv := preview.New(repo, registry, resolver.OnSignIn, m.Handler(), logger)

	logger.Info(ctx, "preview server listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	replCtx, cancelREPL := context.WithCancel(gctx)
	defer cancelREPL()

	g.Go(func() error {
		return srv.Serve(replCtx, ln)
	})
	g.Go(func() error {
		defer cancelREPL()
		return app.Run(replCtx, cfg.DeepLink)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
