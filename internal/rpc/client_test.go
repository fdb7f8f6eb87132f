package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSendsPrefixedMethodAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.Jsonrpc)
		assert.Equal(t, "Ledger.WalletBalance", req.Method)
		assert.Equal(t, []interface{}{"w1"}, req.Params)

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"12.5"}`))
	}))
	defer srv.Close()

	var balance string
	c := NewClient(srv.URL, "s3cret", time.Second)
	require.NoError(t, c.Call(context.Background(), "WalletBalance", []interface{}{"w1"}, &balance))
	assert.Equal(t, "12.5", balance)
}

func TestCallReturnsRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32004,"message":"wallet not found"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", time.Second).Call(context.Background(), "WalletStatus", nil, nil)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32004, rpcErr.Code)
	assert.Equal(t, "wallet not found", rpcErr.Message)
}

func TestCallHTTPErrorIsNotRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", time.Second).Call(context.Background(), "WalletStatus", nil, nil)
	require.Error(t, err)
	var rpcErr *Error
	assert.False(t, errors.As(err, &rpcErr))
	assert.Contains(t, err.Error(), "503")
}

func TestCallHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewClient(srv.URL, "", 0).Call(ctx, "WalletStatus", nil, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
