package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docextract/internal/document"
	"docextract/internal/logger"
	"docextract/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document API over HTTP",
	Long: `Start the HTTP API:

  GET  /healthz                  liveness
  GET  /readyz                   readiness and enhancer reachability
  POST /api/ocr/process          multipart "file" (or "imagePath" with ALLOW_IMAGE_PATH) + optional "documentType"
  POST /api/documents/classify   {"text": "..."}
  POST /api/documents/parse      {"text": "...", "documentType": "..."}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: SERVER_ADDR)")
	serveCmd.Flags().Bool("enhance", false, "Clean up OCR text with the configured language model")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	forceEnhance, _ := cmd.Flags().GetBool("enhance")

	cfg, err := appConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ServerAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, forceEnhance, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	var pinger server.Pinger
	if p.enhancer != nil {
		pinger = p.enhancer
	}

	h := server.NewHandler(p.service, document.NewParser(), pinger, cfg.UploadDir, cfg.MaxUploadBytes).
		WithImagePaths(cfg.AllowImagePath)
	srv := server.New(server.Config{Addr: addr, MaxUploadBytes: cfg.MaxUploadBytes}, h)

	log.Info().
		Str("addr", addr).
		Str("engine", p.ocr.Name()).
		Str("upload_dir", cfg.UploadDir).
		Msg("Starting HTTP server")

	return srv.Run(ctx)
}
