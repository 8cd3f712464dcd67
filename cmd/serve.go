package cmd

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/intervals-mcp/intervals"
	"github.com/s0up4200/intervals-mcp/tools"
)

const shutdownTimeout = 10 * time.Second

var (
	serveTransport string
	serveAddr      string
	servePublicURL string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server over stdio (for desktop assistants that launch the
server themselves) or over HTTP with server-sent events (for remote clients).

The shared HTTP client is created on startup and closed on shutdown,
including on SIGINT and SIGTERM.`,
	PreRunE: initializeApp,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "", "transport to serve: stdio or sse (overrides config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for the sse transport (overrides config)")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "externally reachable base URL for the sse transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override server settings from the command line if specified
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = strings.ToLower(strings.TrimSpace(serveTransport))
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("public-url") {
		cfg.Server.PublicURL = servePublicURL
	}
	if cfg.Server.Transport != "stdio" && cfg.Server.Transport != "sse" {
		return fmt.Errorf("invalid transport: %s (must be 'stdio' or 'sse')", cfg.Server.Transport)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients := intervals.NewClientManager(logger, intervals.WithUserAgent("intervals-mcp/"+appVersion))
	if _, err := clients.Acquire(); err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	defer func() {
		if err := clients.Release(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release HTTP client")
		}
	}()

	executor := intervals.NewExecutor(clients, logger)
	toolbox := tools.New(cfg, executor, logger)

	srv := server.NewMCPServer("intervals-mcp", appVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	toolbox.Register(srv)

	logger.Info().
		Str("transport", cfg.Server.Transport).
		Str("athlete_id", cfg.Intervals.AthleteID).
		Int("tools", len(toolbox.Tools())).
		Msg("Starting MCP server")

	var err error
	switch cfg.Server.Transport {
	case "sse":
		err = serveSSE(ctx, srv)
	default:
		err = serveStdio(ctx, srv)
	}

	if err != nil {
		return err
	}
	logger.Info().Msg("MCP server stopped")
	return nil
}

// serveStdio serves a single client on stdin and stdout until either side
// closes or the context is cancelled.
func serveStdio(ctx context.Context, srv *server.MCPServer) error {
	stdio := server.NewStdioServer(srv)
	stdio.SetErrorLogger(stdlog.New(logger, "", 0))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// serveSSE runs the HTTP listener and the shutdown watcher together; the
// first to fail stops the other.
func serveSSE(ctx context.Context, srv *server.MCPServer) error {
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts := []server.SSEOption{server.WithHTTPServer(httpSrv)}
	if cfg.Server.PublicURL != "" {
		opts = append(opts, server.WithBaseURL(strings.TrimRight(cfg.Server.PublicURL, "/")))
	}
	sse := server.NewSSEServer(srv, opts...)
	httpSrv.Handler = sse

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("public_url", cfg.Server.PublicURL).
			Msg("Listening for SSE clients")
		if err := sse.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sse transport: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down SSE server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
