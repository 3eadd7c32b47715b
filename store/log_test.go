package store_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/agency/protocol"
	"github.com/jrife/agency/utils/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newStore(t)
	ctx := log.WithFields(log.WithLogger(context.Background(), zap.New(core)), zap.String("request", "r1"))

	s.Apply(ctx, []protocol.Transaction{transaction(ops(protocol.Set("/a", 1)))})
	s.Read(ctx, [][]string{{"/a"}})

	if _, err := s.Check(ctx, protocol.Exists("/a")); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	operations := []string{}

	for _, entry := range logs.FilterMessage("start").All() {
		fields := entry.ContextMap()

		if fields["request"] != "r1" {
			t.Fatalf("expected request field on %#v", fields)
		}

		operations = append(operations, fields["operation"].(string))
	}

	if diff := cmp.Diff([]string{"Apply", "Read", "Check"}, operations); diff != "" {
		t.Fatalf(diff)
	}
}
