package api_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/botanica/internal/api"
	"github.com/deidaraiorek/botanica/internal/logger"
)

type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) Sync(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestServerSyncsAndShutsDown(t *testing.T) {
	syncer := &countingSyncer{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	server := api.NewServer("127.0.0.1:0", handler, syncer, 10*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
