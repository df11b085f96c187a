package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/K1ngNothing/dungeon-generation/pkg/api"
	"github.com/K1ngNothing/dungeon-generation/pkg/config"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		cacheFlag  string
		configPath string
		maxRooms   int
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dungeon API over HTTP",
		Long: `Serve the dungeon API over HTTP.

Results are kept in the cache under their run id. Point several servers at
the same Redis or MongoDB cache to share results between them.`,
		Example: `  dungeongen serve --addr :8080 --cache redis://localhost:6379/0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("addr") {
					addr = cfg.Addr()
				}
				if !cmd.Flags().Changed("cache") && cfg.Cache != "" {
					cacheFlag = cfg.Cache
				}
			}
			return c.runServe(cmd.Context(), addr, cacheFlag,
				api.WithLogger(c.Logger), api.WithMaxRooms(maxRooms), api.WithTimeout(timeout))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&cacheFlag, "cache", "", "cache target: dir, file://dir, redis://..., mongodb://... (default local file cache)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML or YAML config file")
	cmd.Flags().IntVar(&maxRooms, "max-rooms", api.DefaultMaxRooms, "largest dungeon a request may ask for")
	cmd.Flags().DurationVar(&timeout, "timeout", api.DefaultTimeout, "time limit of one pipeline run")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, cacheTarget string, opts ...api.Option) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, cacheTarget, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printSuccess("Listening on %s", StyleLink.Render("http://"+displayAddr(addr)))
	logger.Debug("server started", "addr", addr, "cache", fmt.Sprintf("%T", runner.Cache))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	printInfo("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// displayAddr turns a listen address like ":8080" into a clickable host.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
