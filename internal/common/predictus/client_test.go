package predictus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kye-workers/internal/common/logger"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	return NewClient(Config{
		BaseURL:  serverURL,
		Username: "user",
		Password: "pass",
		Timeout:  5 * time.Second,
	}, logger.NewTestLogger(t))
}

func TestSearchByCPF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			var req authRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "user", req.Username)
			w.Write([]byte(`{"accessToken":"token-1"}`))

		case "/predictus-api/processos/judiciais/buscarPorCPFParte":
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "12345678901", payload["cpfParte"])
			w.Write([]byte(`[{"numeroProcessoUnico":"0001234-56.2023.8.26.0100","tribunal":"TJSP"}]`))

		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	records, err := client.SearchByCPF(context.Background(), "12345678901")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0001234-56.2023.8.26.0100", records[0].NumeroProcessoUnico)
	assert.Equal(t, "TJSP", records[0].Tribunal)
}

func TestSearchByNameUpperCases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth" {
			w.Write([]byte(`{"accessToken":"tok"}`))
			return
		}
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "MARIA DA SILVA", payload["nomeParte"])
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	records, err := client.SearchByName(context.Background(), "  maria da silva ")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSearchNadaConsta(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
	}{
		{"204 no content", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }},
		{"empty 200 body", func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/auth" {
					w.Write([]byte(`{"accessToken":"tok"}`))
					return
				}
				tt.handler(w)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			records, err := client.SearchByCPF(context.Background(), "12345678901")

			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestSearchReauthenticatesOn401(t *testing.T) {
	var authCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth" {
			n := authCalls.Add(1)
			if n == 1 {
				w.Write([]byte(`{"accessToken":"stale"}`))
			} else {
				w.Write([]byte(`{"accessToken":"fresh"}`))
			}
			return
		}
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"numeroProcessoUnico":"123"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	records, err := client.SearchByCPF(context.Background(), "12345678901")

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), authCalls.Load())
}

func TestAuthenticateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SearchByCPF(context.Background(), "12345678901")

	assert.Error(t, err)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth" {
			w.Write([]byte(`{"accessToken":"tok"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SearchByCPF(context.Background(), "12345678901")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
