package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/treescope/treescope/internal/server"
	"github.com/treescope/treescope/pkg/store"
)

// shutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command exposing the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [tree.json]",
		Short: "Serve the tree over an HTTP API",
		Long: `Serve a loaded tree over an HTTP API.

Batch endpoints (/layout, /render.svg, /query) share the CLI's pipeline
cache. Interactive clients create uuid-keyed sessions and drive them
with pointer events, mirroring the 'explore' command over the wire.

When the config file names a MongoDB store, its catalog is exposed
under /catalog.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return c.runServe(cmd, input, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, input, addr string, noCache bool) error {
	ctx := cmd.Context()

	opts, err := c.loadOptions(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cmd, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	t, hash, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load tree: %w", err)
	}
	p.done(fmt.Sprintf("Loaded %d nodes", t.Len()))

	var catalog *store.Store
	if c.Config.Store.URI != "" {
		catalog, err = store.New(ctx, c.Config.Store.URI, c.Config.Store.Database)
		if err != nil {
			return err
		}
		defer catalog.Close(context.Background())
	}

	srv := server.New(server.Options{
		Tree:     t,
		TreeHash: hash,
		Runner:   runner,
		Catalog:  catalog,
		Logger:   c.Logger,
	})

	if addr == "" {
		addr = c.Config.Server.Addr
	}
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
