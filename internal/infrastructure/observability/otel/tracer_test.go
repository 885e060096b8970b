package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gaamp-bff/internal/infrastructure/config"
)

func TestInitTracer_Disabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled: false,
	}

	shutdown, err := InitTracer(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, shutdown)

	// シャットダウン関数がエラーを返さないことを確認
	err = shutdown(context.Background())
	assert.NoError(t, err)
}

func TestInitTracer_OTLP(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled:        true,
		OTLPEndpoint:   "http://localhost:4318",
		OTLPInsecure:   true,
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
	}

	// OTLPエンドポイントに到達できなくても初期化自体は成功する
	shutdown, err := InitTracer(cfg)
	if err != nil {
		t.Logf("InitTracer failed (expected if OTLP endpoint is not available): %v", err)
		return
	}

	assert.NotNil(t, shutdown)
	_ = shutdown(context.Background())
}

func TestTracer(t *testing.T) {
	tracer := Tracer("test-tracer")
	assert.NotNil(t, tracer)
}
