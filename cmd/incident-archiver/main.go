package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incident-archiver/internal/api"
	"incident-archiver/internal/archive"
	"incident-archiver/internal/attachments"
	"incident-archiver/internal/config"
	"incident-archiver/internal/logging"
	"incident-archiver/internal/servicenow"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var portFlag int

var rootCmd = &cobra.Command{
	Use:   "incident-archiver",
	Short: "Webhook receiver that archives resolved ServiceNow incidents",
	Long: `Incident Archiver receives resolved-incident webhooks from ServiceNow,
downloads the ticket's attachments, renders a Word document recording the
incident, and writes a confirmation back to the ticket's work notes.

Examples:
  incident-archiver
  incident-archiver --port 9090`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8001, "Port to listen on")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	// .env is optional; the environment wins when both are set.
	_ = godotenv.Load()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cmd.Flags().Changed("port") {
		cfg.Addr = fmt.Sprintf(":%d", portFlag)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage directories")
	}

	client := servicenow.NewClient(cfg.ServiceNow)
	downloader := attachments.NewDownloader(client, cfg.AttachmentsDir)
	renderer := archive.NewRenderer(client, cfg.DocsDir)
	notifier := archive.NewNotifier(client)

	var mirror archive.DocumentMirror
	if cfg.S3Bucket != "" {
		m, err := archive.NewMirror(context.Background(), cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 mirror")
		}
		mirror = m
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Document mirroring enabled")
	}

	pipeline := archive.NewPipeline(downloader, renderer, notifier, mirror)

	mux := http.NewServeMux()
	api.NewHandler(pipeline, cfg.DocsDir, cfg.AttachmentsDir).Register(mux)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.WithLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", cfg.Addr).Msg("Starting incident archiver")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
