package apm

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fd1az/flashloan-executor/internal/logger"
)

func TestTracer_NoticeError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := NewTracer("test").StartSpanFromContext(context.Background(), "step")
	span.NoticeError(errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want error", ended[0].Status().Code)
	}
	if ended[0].Name() != "step" {
		t.Errorf("name = %q", ended[0].Name())
	}
}

func TestNewTraceProvider_FallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
	}{
		{"unset", ""},
		{"explicit empty", EmptyProvider},
		{"unknown", Provider("jaeger-thrift")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := NewTraceProvider(context.Background(), logger.NewDiscard(), Options{Provider: tt.provider})
			if _, ok := tp.(emptyTraceProvider); !ok {
				t.Errorf("got %T, want emptyTraceProvider", tp)
			}
			if err := tp.Stop(); err != nil {
				t.Errorf("Stop: %v", err)
			}
		})
	}
}
