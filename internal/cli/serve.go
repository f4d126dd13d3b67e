package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment HTTP API",
	Long: `Serve exposes the assessment pipeline over HTTP:
  POST /api/assess            assess a URL or raw document text
  POST /api/verify            verify a previously issued assessment
  GET  /.well-known/jwks.json published verification keys
  GET  /healthz               liveness probe

Example:
  clauselens serve
  clauselens serve --addr :9090 --key-file signing.key
  clauselens serve --llm-provider openai --llm-model gpt-4o-mini`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&keyFile, "key-file", "", "Ed25519 signing key file (generated at startup if empty)")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the assessment cache")
	serveCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "clause classification provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "", "clause classification model name")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := scanConfig()
	cfg.HTTP.Timeout = 30 * time.Second
	cfg.Server.Addr = serveAddr
	if err := resolveLLMEnv(cfg); err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(builder).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "Listening on %s (key %s)\n", cfg.Server.Addr, builder.Signer().KeyID())
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		fmt.Fprintf(os.Stderr, "Received %s, shutting down\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
