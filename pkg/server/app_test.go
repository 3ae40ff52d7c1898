package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SeriesPulse/internal/service/ratelimit"
	"SeriesPulse/pkg/config"
	xhttp "SeriesPulse/pkg/http"
	applogger "SeriesPulse/pkg/logger"
)

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.RateLimit.IdleTTL = 10 * time.Millisecond

	l := applogger.NewNop()
	srv := xhttp.NewServer(nil, l, nil, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	lim := ratelimit.New(1, 1, time.Nanosecond)
	lim.Allow("client")

	app := New(cfg, l, srv, lim)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return lim.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
