// Package predictus implements the client for the Predictus judicial
// records API: token-based authentication plus the three process search
// endpoints (by party name, party CPF and CNJ number).
package predictus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	httpclient "kye-workers/internal/common/http"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

const searchBasePath = "/predictus-api/processos/judiciais"

type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is safe for concurrent use. The access token is cached and
// refreshed once when a request comes back 401.
type Client struct {
	httpClient *httpclient.Client
	baseURL    string
	username   string
	password   string
	logger     logger.Logger

	mu    sync.Mutex
	token string
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: httpclient.NewClient(cfg.Timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		logger:     log,
	}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
}

// Authenticate fetches a fresh access token and caches it.
func (c *Client) Authenticate(ctx context.Context) error {
	body, status, err := c.httpClient.PostJSON(ctx, c.baseURL+"/auth", authRequest{
		Username: c.username,
		Password: c.password,
	}, nil)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("auth returned status %d", status)
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("auth response contained no access token")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()

	c.logger.Debug("Authenticated with judicial records API", nil)
	return nil
}

// SearchByName searches processes where the given person appears as a
// party. The API matches names in upper case.
func (c *Client) SearchByName(ctx context.Context, name string) ([]models.ProcessRecord, error) {
	payload := map[string]string{"nomeParte": strings.ToUpper(strings.TrimSpace(name))}
	return c.search(ctx, "/buscarPorNomeParte", payload)
}

// SearchByCPF searches processes by the party's CPF (digits only).
func (c *Client) SearchByCPF(ctx context.Context, cpf string) ([]models.ProcessRecord, error) {
	payload := map[string]string{"cpfParte": cpf}
	return c.search(ctx, "/buscarPorCPFParte", payload)
}

// SearchByProcessNumber looks up a single process by its CNJ number.
func (c *Client) SearchByProcessNumber(ctx context.Context, cnj string) ([]models.ProcessRecord, error) {
	payload := map[string]string{"numeroCNJ": strings.TrimSpace(cnj)}
	return c.search(ctx, "/buscarPorNumeroCNJ", payload)
}

func (c *Client) search(ctx context.Context, endpoint string, payload map[string]string) ([]models.ProcessRecord, error) {
	body, status, err := c.doAuthorized(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	// 204 or an empty 200 body means "nada consta": a clean record, not
	// an error.
	if status == http.StatusNoContent {
		return []models.ProcessRecord{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", status)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []models.ProcessRecord{}, nil
	}

	var records []models.ProcessRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if records == nil {
		records = []models.ProcessRecord{}
	}
	return records, nil
}

// doAuthorized sends the request with the cached token, authenticating
// first when no token is cached and retrying once on 401.
func (c *Client) doAuthorized(ctx context.Context, endpoint string, payload map[string]string) ([]byte, int, error) {
	if c.currentToken() == "" {
		if err := c.Authenticate(ctx); err != nil {
			return nil, 0, err
		}
	}

	url := c.baseURL + searchBasePath + endpoint
	body, status, err := c.httpClient.PostJSON(ctx, url, payload, c.authHeader())
	if err != nil {
		return nil, 0, fmt.Errorf("search request failed: %w", err)
	}

	if status == http.StatusUnauthorized {
		c.logger.Warn("Access token expired, re-authenticating", map[string]interface{}{
			"endpoint": endpoint,
		})
		if err := c.Authenticate(ctx); err != nil {
			return nil, 0, err
		}
		body, status, err = c.httpClient.PostJSON(ctx, url, payload, c.authHeader())
		if err != nil {
			return nil, 0, fmt.Errorf("search retry failed: %w", err)
		}
	}

	return body, status, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.currentToken()}
}
