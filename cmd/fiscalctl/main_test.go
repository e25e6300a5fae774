package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifiscal/internal/emulator"
	"taxifiscal/internal/service/shiftkeeper"
	"taxifiscal/pkg/fiscal"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"state"}, {"shift", "open"}, {"shift", "close"}, {"shift", "ensure"},
		{"receipt"}, {"void"}, {"print", "text"}, {"print", "image"}, {"print", "slip"},
		{"pay", "execute"}, {"pay", "cancel"}, {"keep"}, {"emulate"},
		{"nodes", "list"}, {"nodes", "add"}, {"nodes", "remove"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestReceiptAgainstEmulator(t *testing.T) {
	dev := emulator.New()
	srv := httptest.NewServer(dev.Router())
	defer srv.Close()

	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	dir := t.TempDir()
	t.Setenv("FISCAL_ENABLED", "true")
	t.Setenv("FISCAL_HOST", "127.0.0.1")
	t.Setenv("FISCAL_PORT", "1")
	t.Setenv("PROFILES_PATH", filepath.Join(dir, "nodes.json"))
	envFile := filepath.Join(dir, "none.env")

	run := func(args ...string) error {
		root := newRootCmd()
		root.SetArgs(append([]string{"--env", envFile}, args...))
		return root.ExecuteContext(context.Background())
	}

	require.NoError(t, run("nodes", "add", "emu", "--host", "127.0.0.1", "--port", port))
	require.NoError(t, run("--node", "emu", "receipt", "--order", "A-77", "--price", "350.5", "--method", "qr"))

	receipts := dev.Receipts()
	require.Len(t, receipts, 1)
	assert.Equal(t, 350.5, receipts[0].Goods[0].Sum)
	assert.True(t, receipts[0].Payments[0].Paid)

	require.NoError(t, run("--node", "emu", "void"))
	assert.Empty(t, dev.Receipts())

	require.NoError(t, run("nodes", "remove", "emu"))
	assert.Error(t, run("--node", "emu", "state"))
}

func TestKeeperRouter(t *testing.T) {
	dev := emulator.New()
	srv := httptest.NewServer(dev.Router())
	defer srv.Close()

	client := fiscal.NewClient(fiscal.Config{BaseURL: srv.URL, Timeout: time.Second})
	ctrl, ok := fiscal.Shift(client)
	require.True(t, ok)
	k := shiftkeeper.NewService(ctrl, shiftkeeper.Config{Logger: zerolog.Nop()})
	h := keeperRouter(k)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"shiftOpen":true`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taxifiscal_device_requests_total")
}
