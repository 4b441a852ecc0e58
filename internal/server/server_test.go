package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/hverdane/ecoestate/internal/appraisal"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/events"
	"github.com/hverdane/ecoestate/internal/feasibility"
	"github.com/hverdane/ecoestate/internal/search"
	"github.com/hverdane/ecoestate/internal/store"
)

func TestServer_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger := zaptest.NewLogger(t)
	st := store.NewInMemoryStore(logger)
	llm := happyLLM()

	handlers := NewHandlers(
		st,
		search.NewService(st, stubEmbedder{}, config.SearchConfig{Limit: 10}, logger),
		appraisal.NewService(llm, st, logger),
		events.NewService(llm, logger),
		feasibility.NewService(llm, stubGeocoder{}, st, logger),
		logger,
	)

	srv := New(config.ServerConfig{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, handlers, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Give the listener a moment to come up, then trigger shutdown.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
