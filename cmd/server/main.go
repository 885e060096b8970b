package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	historyapp "gaamp-bff/internal/application/history"
	"gaamp-bff/internal/infrastructure/backend"
	"gaamp-bff/internal/infrastructure/config"
	otelinfra "gaamp-bff/internal/infrastructure/observability/otel"
	"gaamp-bff/internal/presentation/rest"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gaamp-bff",
		Short: "Backend-for-frontend for the GAAMP admin dashboard",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("gaamp-bff")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("gaamp-bff")
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// 上流APIクライアントの初期化
	// アクセストークンはセッション（リクエストコンテキスト）から供給される
	client := backend.NewClient(
		cfg.Backend.BaseURL,
		backend.NewSessionTokenSource(),
		logger,
		metrics,
	)

	// アプリケーションサービスの初期化
	historyAppService := historyapp.NewHistoryApplicationService(
		client,
		logger,
		metrics,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		historyAppService,
	)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down server...")

	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
