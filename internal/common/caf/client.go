// Package caf implements the client for the TrustCheck identity
// verification API: create a transaction from a template, then poll it
// until it reaches a terminal status.
package caf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "kye-workers/internal/common/http"
	"kye-workers/internal/common/logger"
)

// Transaction statuses reported by the API.
const (
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusFailed     = "FAILED"
	StatusError      = "ERROR"
	StatusProcessing = "PROCESSING"
	StatusPending    = "PENDING"
)

// ErrPollTimeout is returned when the transaction never left a pending
// status within the attempt budget.
var ErrPollTimeout = fmt.Errorf("identity check polling exceeded attempt budget")

type Config struct {
	BaseURL      string
	BearerToken  string
	TemplateID   string
	PollInterval time.Duration
	MaxAttempts  int
	Timeout      time.Duration
}

type Client struct {
	httpClient   *httpclient.Client
	baseURL      string
	bearerToken  string
	templateID   string
	pollInterval time.Duration
	maxAttempts  int
	logger       logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 60
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   httpclient.NewClient(cfg.Timeout),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		bearerToken:  cfg.BearerToken,
		templateID:   cfg.TemplateID,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		logger:       log,
	}
}

// Transaction is the API view of a verification transaction.
type Transaction struct {
	ID     string                 `json:"id"`
	Status string                 `json:"status"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

type createTransactionRequest struct {
	TemplateID string            `json:"templateId"`
	Attributes map[string]string `json:"attributes"`
}

// CreateTransaction starts a verification for the given subject attributes
// (cpf, name, birthDate and so on, per the configured template).
func (c *Client) CreateTransaction(ctx context.Context, attributes map[string]string) (string, error) {
	body, status, err := c.httpClient.PostJSON(ctx, c.baseURL+"/transactions", createTransactionRequest{
		TemplateID: c.templateID,
		Attributes: attributes,
	}, c.authHeader())
	if err != nil {
		return "", fmt.Errorf("create transaction failed: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("create transaction returned status %d", status)
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("failed to decode transaction response: %w", err)
	}
	if tx.ID == "" {
		return "", fmt.Errorf("transaction response contained no id")
	}
	return tx.ID, nil
}

// GetTransaction fetches the current state of a transaction.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	body, status, err := c.httpClient.GetJSON(ctx, c.baseURL+"/transactions/"+transactionID, c.authHeader())
	if err != nil {
		return nil, fmt.Errorf("get transaction failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get transaction returned status %d", status)
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}
	return &tx, nil
}

// WaitForResult polls the transaction until it reaches a terminal status.
// APPROVED and REJECTED are returned as results; FAILED and ERROR are
// returned as errors. The context bounds the total wait.
func (c *Client) WaitForResult(ctx context.Context, transactionID string) (*Transaction, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		tx, err := c.GetTransaction(ctx, transactionID)
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(tx.Status) {
		case StatusApproved, StatusRejected:
			return tx, nil
		case StatusFailed, StatusError:
			return nil, fmt.Errorf("identity check transaction %s ended with status %s", transactionID, tx.Status)
		case StatusProcessing, StatusPending, "":
			c.logger.Debug("Identity check still pending", map[string]interface{}{
				"transactionId": transactionID,
				"attempt":       attempt,
			})
		default:
			return nil, fmt.Errorf("identity check transaction %s reported unknown status %s", transactionID, tx.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, ErrPollTimeout
}

func (c *Client) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.bearerToken}
}
