// internal/workers/screening/notify-compliance/handler_test.go
package notifycompliance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/validation"
	"kye-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		EmailEnabled:  true,
		FromEmail:     "alerts@example.com",
		ToEmails:      []string{"compliance@example.com"},
		SMSEnabled:    true,
		PhoneNumbers:  []string{"+5511999990000"},
		RiskThreshold: "high",
	}
}

type fakeEmail struct {
	err   error
	sent  []string
	body  string
	title string
}

func (f *fakeEmail) SendTextEmail(_ context.Context, _, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	f.title = subject
	f.body = body
	return nil
}

type fakeSMS struct {
	err     error
	sent    []string
	message string
}

func (f *fakeSMS) SendSMS(_ context.Context, phoneNumber, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, phoneNumber)
	f.message = message
	return nil
}

func newHandler(t *testing.T, cfg *Config, email EmailSender, sms SMSSender) *Handler {
	return NewHandler(cfg, email, sms, logger.NewTestLogger(t))
}

func highRiskInput() *Input {
	return &Input{
		SearchTerm: "12345678901",
		SearchType: "cpf",
		RiskAssessment: &models.RiskAssessment{
			Score:      78.5,
			Level:      models.RiskLevelCritical,
			LevelLabel: "Critical Risk",
			Summary:    "4 process(es) found with major risk factors - high caution advised",
			Analysis: models.NarrativeAnalysis{
				RedFlags:       []string{"Criminal case as defendant"},
				Recommendation: "reject",
			},
		},
	}
}

func lowRiskInput() *Input {
	return &Input{
		SearchTerm: "12345678901",
		SearchType: "cpf",
		RiskAssessment: &models.RiskAssessment{
			Score:      10,
			Level:      models.RiskLevelLow,
			LevelLabel: "Low Risk",
		},
	}
}

// ==========================
// Input Schema Tests
// ==========================

func TestGetInputSchema(t *testing.T) {
	schema := GetInputSchema()

	good := validation.ValidateInput(map[string]interface{}{
		"searchTerm": "12345678901",
		"searchType": "cpf",
		"riskAssessment": map[string]interface{}{
			"score": 78.5,
			"level": "critical",
		},
	}, schema)
	assert.True(t, good.Valid)

	missing := validation.ValidateInput(map[string]interface{}{}, schema)
	require.False(t, missing.Valid)
	assert.Equal(t, "riskAssessment", missing.Errors[0].Field)

	badLevel := validation.ValidateInput(map[string]interface{}{
		"riskAssessment": map[string]interface{}{
			"score": 78.5,
			"level": "extreme",
		},
	}, schema)
	assert.False(t, badLevel.Valid)
}

// ==========================
// Threshold Gate Tests
// ==========================

func TestExecuteBelowThresholdDoesNotNotify(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	handler := newHandler(t, createTestConfig(), email, sms)

	output, err := handler.Execute(context.Background(), lowRiskInput())

	require.NoError(t, err)
	assert.False(t, output.Notified)
	assert.Empty(t, output.Channels)
	assert.Empty(t, email.sent)
	assert.Empty(t, sms.sent)
}

func TestShouldNotifyThresholds(t *testing.T) {
	tests := []struct {
		threshold string
		level     models.RiskLevel
		notify    bool
	}{
		{"high", models.RiskLevelLow, false},
		{"high", models.RiskLevelMedium, false},
		{"high", models.RiskLevelHigh, true},
		{"high", models.RiskLevelCritical, true},
		{"medium", models.RiskLevelMedium, true},
		{"critical", models.RiskLevelHigh, false},
		{"critical", models.RiskLevelCritical, true},
		// Unknown threshold falls back to high.
		{"bogus", models.RiskLevelHigh, true},
		{"bogus", models.RiskLevelMedium, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.threshold, tt.level), func(t *testing.T) {
			cfg := createTestConfig()
			cfg.RiskThreshold = tt.threshold
			handler := newHandler(t, cfg, &fakeEmail{}, &fakeSMS{})

			assert.Equal(t, tt.notify, handler.shouldNotify(tt.level))
		})
	}
}

// ==========================
// Delivery Tests
// ==========================

func TestExecuteSendsBothChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	handler := newHandler(t, createTestConfig(), email, sms)

	output, err := handler.Execute(context.Background(), highRiskInput())

	require.NoError(t, err)
	assert.True(t, output.Notified)
	assert.Equal(t, []string{"email", "sms"}, output.Channels)

	assert.Equal(t, []string{"compliance@example.com"}, email.sent)
	assert.Contains(t, email.title, "Critical Risk")
	assert.Contains(t, email.title, "123.456.789-01")
	assert.Contains(t, email.body, "score 78.5")
	assert.Contains(t, email.body, "Criminal case as defendant")
	assert.Contains(t, email.body, "Recommendation: reject")

	assert.Equal(t, []string{"+5511999990000"}, sms.sent)
	assert.Contains(t, sms.message, "Critical Risk")
}

func TestExecuteEmailOnly(t *testing.T) {
	cfg := createTestConfig()
	cfg.SMSEnabled = false

	email := &fakeEmail{}
	sms := &fakeSMS{}
	handler := newHandler(t, cfg, email, sms)

	output, err := handler.Execute(context.Background(), highRiskInput())

	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, output.Channels)
	assert.Empty(t, sms.sent)
}

func TestExecutePartialFailureStillNotifies(t *testing.T) {
	email := &fakeEmail{err: fmt.Errorf("ses throttled")}
	sms := &fakeSMS{}
	handler := newHandler(t, createTestConfig(), email, sms)

	output, err := handler.Execute(context.Background(), highRiskInput())

	require.NoError(t, err)
	assert.True(t, output.Notified)
	assert.Equal(t, []string{"sms"}, output.Channels)
}

func TestExecuteSkipsInvalidRecipients(t *testing.T) {
	cfg := createTestConfig()
	cfg.ToEmails = []string{"not-an-email", "compliance@example.com"}
	cfg.PhoneNumbers = []string{"12345", "+5511999990000"}

	email := &fakeEmail{}
	sms := &fakeSMS{}
	handler := newHandler(t, cfg, email, sms)

	output, err := handler.Execute(context.Background(), highRiskInput())

	require.NoError(t, err)
	assert.True(t, output.Notified)
	// Malformed recipients are skipped, valid ones still get the alert.
	assert.Equal(t, []string{"compliance@example.com"}, email.sent)
	assert.Equal(t, []string{"+5511999990000"}, sms.sent)
}

func TestExecuteAllRecipientsInvalid(t *testing.T) {
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	cfg.ToEmails = []string{"not-an-email"}

	handler := newHandler(t, cfg, &fakeEmail{}, &fakeSMS{})

	_, err := handler.Execute(context.Background(), highRiskInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotificationFailed, stdErr.Code)
}

func TestExecuteAllChannelsFail(t *testing.T) {
	email := &fakeEmail{err: fmt.Errorf("ses down")}
	sms := &fakeSMS{err: fmt.Errorf("sns down")}
	handler := newHandler(t, createTestConfig(), email, sms)

	_, err := handler.Execute(context.Background(), highRiskInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotificationFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteNoChannelsConfigured(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	handler := newHandler(t, cfg, &fakeEmail{}, &fakeSMS{})

	output, err := handler.Execute(context.Background(), highRiskInput())

	// Nothing configured is not an error; the workflow just moves on.
	require.NoError(t, err)
	assert.False(t, output.Notified)
	assert.Empty(t, output.Channels)
}

func TestExecuteMissingAssessment(t *testing.T) {
	handler := newHandler(t, createTestConfig(), &fakeEmail{}, &fakeSMS{})

	_, err := handler.Execute(context.Background(), &Input{SearchTerm: "x"})

	assert.Error(t, err)
}

func TestExecuteNameSubjectLabel(t *testing.T) {
	email := &fakeEmail{}
	handler := newHandler(t, createTestConfig(), email, &fakeSMS{})

	input := highRiskInput()
	input.SearchType = "name"
	input.SearchTerm = "Maria da Silva"

	_, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Contains(t, email.title, "Maria da Silva")
}
