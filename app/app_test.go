package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"taskbank/app/config"
	"taskbank/app/services"
	"taskbank/app/store"
)

func TestServe_ShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	srv := New(cfg, zap.NewNop(), store.NewMemoryStore())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/tasks")
	require.NoError(t, err)
	var board services.Board
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, board.MainList)

	cancel()
	require.NoError(t, <-done)
	client.CloseIdleConnections()
}
