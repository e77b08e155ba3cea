package cli

import (
	"fmt"

	"atsmatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the analysis pipeline.

Available endpoints:
- POST /api/v1/analyze: Analyze a portfolio against a job (JSON, or SSE with Accept: text/event-stream)
- POST /api/v1/optimize: Rewrite a resume from an analysis
- GET /api/v1/analyses/{id}: Fetch a stored analysis
- POST /api/v1/portfolios, GET /api/v1/portfolios/{id}: Store and fetch portfolios
- POST /api/v1/select: Select portfolio items for a job
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	port, host, tlsMode, certFile, keyFile, caFile string
	watchPrompts                                   bool
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().BoolVar(&serveFlags.watchPrompts, "watch-prompts", false, "Reload custom prompt files when they change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	override := func(flag string, target *string, value string) {
		if cmd.Flags().Changed(flag) {
			*target = value
		}
	}
	override("port", &cfg.Server.Port, serveFlags.port)
	override("host", &cfg.Server.Host, serveFlags.host)
	override("tls-mode", &cfg.Server.TLS.Mode, serveFlags.tlsMode)
	override("cert-file", &cfg.Server.TLS.CertFile, serveFlags.certFile)
	override("key-file", &cfg.Server.TLS.KeyFile, serveFlags.keyFile)
	override("ca-file", &cfg.Server.TLS.CAFile, serveFlags.caFile)
	if cmd.Flags().Changed("watch-prompts") {
		cfg.Server.WatchPrompts = serveFlags.watchPrompts
	}

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	analyzer, om, cleanup, err := newAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, analyzer, om, logger).Start(cmd.Context())
}
