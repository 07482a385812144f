package caf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kye-workers/internal/common/logger"
)

func newTestClient(t *testing.T, serverURL string, maxAttempts int) *Client {
	return NewClient(Config{
		BaseURL:      serverURL,
		BearerToken:  "test-token",
		TemplateID:   "tpl-123",
		PollInterval: 5 * time.Millisecond,
		MaxAttempts:  maxAttempts,
		Timeout:      5 * time.Second,
	}, logger.NewTestLogger(t))
}

func TestCreateTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req createTransactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tpl-123", req.TemplateID)
		assert.Equal(t, "12345678901", req.Attributes["cpf"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"tx-1","status":"PENDING"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	id, err := client.CreateTransaction(context.Background(), map[string]string{"cpf": "12345678901"})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)
}

func TestWaitForResultApprovedAfterPending(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx-1", r.URL.Path)
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"id":"tx-1","status":"PROCESSING"}`))
			return
		}
		w.Write([]byte(`{"id":"tx-1","status":"APPROVED","data":{"name":"MARIA"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 10)
	tx, err := client.WaitForResult(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, tx.Status)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForResultRejectedIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-1","status":"REJECTED"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	tx, err := client.WaitForResult(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, tx.Status)
}

func TestWaitForResultFailedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-1","status":"FAILED"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	_, err := client.WaitForResult(context.Background(), "tx-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func TestWaitForResultExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-1","status":"PENDING"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	_, err := client.WaitForResult(context.Background(), "tx-1")

	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestWaitForResultContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-1","status":"PENDING"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, server.URL, 100)
	_, err := client.WaitForResult(ctx, "tx-1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateTransactionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	_, err := client.CreateTransaction(context.Background(), map[string]string{"cpf": "1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprint(http.StatusBadGateway))
}
