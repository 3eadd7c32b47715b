package log_test

import (
	"context"
	"testing"

	"github.com/jrife/agency/utils/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOperation(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	ctx := log.WithFields(context.Background(), zap.String("request", "r1"))
	ctx = log.WithFields(ctx, zap.Int("attempt", 2))

	log.Operation(ctx, logger, "Apply").Debug("start")

	entries := logs.All()

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()

	if fields["request"] != "r1" || fields["attempt"] != int64(2) || fields["operation"] != "Apply" {
		t.Fatalf("unexpected fields %#v", fields)
	}
}

func TestFieldsAreNotShared(t *testing.T) {
	parent := log.WithFields(context.Background(), zap.String("a", "1"))
	first := log.WithFields(parent, zap.String("b", "2"))
	second := log.WithFields(parent, zap.String("c", "3"))

	if len(log.Fields(parent)) != 1 || len(log.Fields(first)) != 2 || len(log.Fields(second)) != 2 {
		t.Fatalf("expected child contexts not to change their parent")
	}

	if log.Fields(first)[1].Key != "b" || log.Fields(second)[1].Key != "c" {
		t.Fatalf("expected sibling contexts not to share fields")
	}
}

func TestLoggerFromContext(t *testing.T) {
	defaultLogger := zap.NewNop()
	logger, ctx := log.LoggerFromContext(context.Background(), defaultLogger)

	if logger != defaultLogger || log.Logger(ctx) != defaultLogger {
		t.Fatalf("expected the default logger to be attached to the context")
	}

	other := zap.NewExample()
	logger, _ = log.LoggerFromContext(log.WithLogger(context.Background(), other), defaultLogger)

	if logger != other {
		t.Fatalf("expected the logger from the context")
	}
}
