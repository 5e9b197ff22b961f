package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conduit-lang/mockls/internal/cli/config"
	"github.com/conduit-lang/mockls/internal/fixture"
	"github.com/conduit-lang/mockls/internal/journal"
	"github.com/conduit-lang/mockls/internal/lsp"
	"github.com/conduit-lang/mockls/internal/mock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		transport   string
		addr        string
		wsPath      string
		idleTimeout time.Duration
		fixturePath string
		watch       bool
		redisAddr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock language server",
		Long: `Start the mock Language Server Protocol server.

Every text document request is answered from the configured results. A
fixture file can preconfigure them, and --watch reapplies it on every save.

Examples:
  # Serve over stdin/stdout, as editors expect
  mockls serve

  # Serve TCP with a fixture that reloads on change
  mockls serve --transport tcp --addr 127.0.0.1:7658 --fixture results.json --watch

  # Serve WebSocket and mirror notifications into Redis
  mockls serve --transport ws --addr :8080 --journal-redis localhost:6379
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("transport") {
				cfg.Server.Transport = transport
			}
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("ws-path") {
				cfg.Server.WSPath = wsPath
			}
			if flags.Changed("idle-timeout") {
				cfg.Server.IdleTimeout = idleTimeout
			}
			if flags.Changed("fixture") {
				cfg.Fixture.Path = fixturePath
			}
			if flags.Changed("watch") {
				cfg.Fixture.Watch = watch
			}
			if flags.Changed("journal-redis") {
				cfg.Journal.RedisAddr = redisAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "Transport: stdio, tcp or ws")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for tcp and ws")
	cmd.Flags().StringVar(&wsPath, "ws-path", "/lsp", "WebSocket endpoint path")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "Stop a tcp server after this long without connections (0 = never)")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "JSON fixture applied at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reapply the fixture when it changes")
	cmd.Flags().StringVar(&redisAddr, "journal-redis", "", "Redis address for the notification journal")

	return cmd
}

// runServe wires the document service and serves it until ctx is done or the
// transport stops.
func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc := mock.NewDocumentService(logger.Named("mock"))

	if cfg.Fixture.Path != "" {
		f, err := fixture.Load(cfg.Fixture.Path)
		if err != nil {
			return err
		}
		if err := fixture.Apply(svc, f); err != nil {
			return err
		}

		if cfg.Fixture.Watch {
			w, err := fixture.NewWatcher(cfg.Fixture.Path, svc, logger.Named("fixture"), fixture.WatcherConfig{})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("failed to watch fixture: %w", err)
			}
			defer w.Stop()
		}
	}

	if cfg.Journal.RedisAddr != "" {
		jcfg := journal.DefaultConfig()
		jcfg.Addr = cfg.Journal.RedisAddr
		jcfg.Key = cfg.Journal.Key
		j, err := journal.New(jcfg, logger.Named("journal"))
		if err != nil {
			return err
		}
		defer j.Close()
		svc.SetEventSink(j)
	}

	server := lsp.NewServer(svc, logger.Named("lsp"), Version)
	logger.Info("starting mock language server",
		zap.String("transport", cfg.Server.Transport),
		zap.String("addr", cfg.Server.Addr),
		zap.String("version", Version))

	switch cfg.Server.Transport {
	case config.TransportTCP:
		return server.ServeTCP(ctx, cfg.Server.Addr, cfg.Server.IdleTimeout)
	case config.TransportWebSocket:
		return server.ServeWebSocket(ctx, cfg.Server.Addr, cfg.Server.WSPath)
	default:
		return server.ServeStdio(ctx)
	}
}
