package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/editor"
	"github.com/syssam/schemaflow/graph"
	"github.com/syssam/schemaflow/internal/config"
	"github.com/syssam/schemaflow/internal/server"
	"github.com/syssam/schemaflow/internal/store"
	"github.com/syssam/schemaflow/internal/watch"
)

const shutdownTimeout = 5 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the diagram API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides the configuration"},
			&cli.StringFlag{Name: "watch", Usage: "schema file kept in sync with a served document"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"), ".env")
			if err != nil {
				return err
			}
			if c.IsSet("addr") {
				cfg.Addr = c.String("addr")
			}
			log, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, c.String("watch"), log)
		},
	}
}

func newStore(cfg *config.Config) (schemaflow.Store, error) {
	if cfg.StoreDir == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewFileStore(cfg.StoreDir)
}

// WatchedID returns the document id under which a watched file is served.
// It is stable for a given absolute path.
func WatchedID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

func serve(ctx context.Context, cfg *config.Config, watchPath string, log *zap.Logger) error {
	st, err := newStore(cfg)
	if err != nil {
		return err
	}
	editorOpts := []editor.Option{
		editor.WithLogger(log),
		editor.WithLayoutOptions(cfg.LayoutOptions()...),
	}
	srv, err := server.New(st,
		server.WithLogger(log),
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
		server.WithEditorOptions(editorOpts...),
		server.WithGenerateOptions(cfg.GenerateOptions()...),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if watchPath != "" {
		w, err := openWatched(ctx, srv, watchPath, log, append(editorOpts, editor.WithGenerateOptions(cfg.GenerateOptions()...)))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	hs := srv.HTTPServer(cfg.Addr)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

// openWatched loads the file into a controller, serves it as a document
// and returns the watcher that keeps both in sync.
func openWatched(ctx context.Context, srv *server.Server, path string, log *zap.Logger, opts []editor.Option) (*watch.Watcher, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id := WatchedID(path)
	docs := srv.Documents()
	var positions map[string]graph.Position
	if ctrl, err := docs.Open(ctx, id); err == nil {
		positions = graph.Positions(ctrl.Snapshot().Nodes)
	}
	ctrl, err := editor.New(append(opts, editor.WithSource(string(b)), editor.WithPositions(positions))...)
	if err != nil {
		return nil, err
	}
	if err := docs.Attach(ctx, id, ctrl); err != nil {
		return nil, err
	}
	log.Info("serving watched file", zap.String("path", path), zap.String("id", id))
	return watch.New(path, ctrl, watch.WithLogger(log))
}
