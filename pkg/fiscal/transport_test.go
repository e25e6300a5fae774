package fiscal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func newTestTransport(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Transport {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, Timeout: time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewTransport(cfg)
}

func TestTransportDefaults(t *testing.T) {
	tr := NewTransport(Config{})
	assert.Equal(t, "http://localhost:4445", tr.BaseURL())

	tr = NewTransport(Config{Host: "10.0.0.5", Port: 4446})
	assert.Equal(t, "http://10.0.0.5:4446", tr.BaseURL())
	assert.Equal(t, DefaultTimeout, tr.timeout)
}

func TestTransportCallDecodesData(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, endpointVersion, r.URL.Path)
		_, _ = io.WriteString(w, `{"status":0,"errorMessage":"","data":{"version":"3.1.0"}}`)
	})

	var v VersionInfo
	require.NoError(t, tr.Call(context.Background(), endpointVersion, nil, &v))
	assert.Equal(t, "3.1.0", v.Version)
}

func TestTransportCallWithoutData(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":0,"errorMessage":""}`)
	})

	var s State
	require.NoError(t, tr.Call(context.Background(), endpointGetState, nil, &s))
	assert.Equal(t, State{}, s)
}

func TestTransportDeviceError(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":9,"extCode":12,"extCode2":4,"errorMessage":"нет бумаги"}`)
	})

	err := tr.Call(context.Background(), endpointPrintText, nil, nil)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, StatusPrinterError, fe.Status)
	assert.Equal(t, "нет бумаги", fe.Message)
	assert.Equal(t, 12, fe.ExtCode)
	assert.Equal(t, 4, fe.ExtCode2)
	assert.Equal(t, endpointPrintText, fe.Endpoint)
}

func TestTransportHTTPError(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := tr.Call(context.Background(), endpointGetState, nil, nil)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, StatusInternalServiceError, fe.Status)
	assert.Equal(t, "http 500 for /fiscal/shifts/getState/", fe.Message)
}

func TestTransportInvalidJSON(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	})

	err := tr.Call(context.Background(), endpointGetState, nil, nil)
	assert.Equal(t, StatusInternalServiceError, StatusOf(err))
}

func TestTransportTimeout(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	err := tr.Call(context.Background(), endpointOpenAndCloseRec, nil, nil)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, StatusFiscalCoreError, fe.Status)
	assert.Equal(t, "timeout for /fiscal/bills/openAndCloseRec/ (50)", fe.Message)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransportCallerCancelIsNotTimeout(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Call(ctx, endpointGetState, nil, nil)
	assert.Equal(t, StatusInternalServiceError, StatusOf(err))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestTransportMergesRegistrationNumber(t *testing.T) {
	var got map[string]any
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":0}`)
	}, func(c *Config) { c.RegistrationNumber = "0000000001012345" })

	require.NoError(t, tr.Call(context.Background(), endpointOpenDay, openDayRequest{CashierName: "Киоск", IgnoreIfOpen: true}, nil))
	assert.Equal(t, "0000000001012345", got["registrationNumber"])
	assert.Equal(t, "Киоск", got["cashierName"])
	assert.Equal(t, true, got["ignoreIfOpen"])

	got = nil
	require.NoError(t, tr.Call(context.Background(), endpointCutPaper, nil, nil))
	assert.Equal(t, map[string]any{"registrationNumber": "0000000001012345"}, got)
}

func TestTransportOmitsEmptyRegistrationNumber(t *testing.T) {
	var got map[string]any
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":0}`)
	})

	require.NoError(t, tr.Call(context.Background(), endpointGetState, nil, nil))
	assert.NotContains(t, got, "registrationNumber")
}

func TestTransportDecodesWindows1251(t *testing.T) {
	body, err := charmap.Windows1251.NewEncoder().String(`{"status":6,"errorMessage":"Смена превысила 24 часа"}`)
	require.NoError(t, err)

	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=windows-1251")
		_, _ = io.WriteString(w, body)
	})

	err = tr.Call(context.Background(), endpointOpenAndCloseRec, nil, nil)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Смена превысила 24 часа", fe.Message)
	assert.True(t, IsShiftExpiredError(err))
}

func TestTransportPostEmptyBody(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	raw, err := tr.Post(context.Background(), endpointExecutePayment, nil)
	require.NoError(t, err)
	assert.Empty(t, raw)
}
