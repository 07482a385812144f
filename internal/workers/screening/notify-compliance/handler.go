// internal/workers/screening/notify-compliance/handler.go
package notifycompliance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/format"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/metrics"
	"kye-workers/internal/common/validation"
	"kye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "screening.notify-compliance"
)

// tierRank orders the risk tiers for threshold comparison.
var tierRank = map[models.RiskLevel]int{
	models.RiskLevelLow:      0,
	models.RiskLevelMedium:   1,
	models.RiskLevelHigh:     2,
	models.RiskLevelCritical: 3,
}

// EmailSender is the slice of the SES client this worker needs.
type EmailSender interface {
	SendTextEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender is the slice of the SNS client this worker needs.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

type Handler struct {
	config       *Config
	email        EmailSender
	sms          SMSSender
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		email:        email,
		sms:          sms,
		errorHandler: errors.NewErrorHandler(workerLog),
		logger:       workerLog,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCodeOf(err)).Inc()
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCodeOf(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
	}

	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationFailedError(
			fmt.Sprintf("validation errors: %v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RiskAssessment == nil {
		return nil, errors.NewNotificationFailedError("input", fmt.Errorf("riskAssessment is missing"))
	}

	if !h.shouldNotify(input.RiskAssessment.Level) {
		h.logger.Info("risk below notification threshold", map[string]interface{}{
			"riskLevel": string(input.RiskAssessment.Level),
			"threshold": h.config.RiskThreshold,
		})
		return &Output{Notified: false, Channels: []string{}}, nil
	}

	var channels []string
	attempted := 0

	if h.config.EmailEnabled && h.email != nil && len(h.config.ToEmails) > 0 {
		attempted++
		if h.sendEmails(ctx, input) {
			channels = append(channels, "email")
		}
	}

	if h.config.SMSEnabled && h.sms != nil && len(h.config.PhoneNumbers) > 0 {
		attempted++
		if h.sendSMS(ctx, input) {
			channels = append(channels, "sms")
		}
	}

	if attempted > 0 && len(channels) == 0 {
		return nil, errors.NewNotificationFailedError("all", fmt.Errorf("no channel delivered the alert"))
	}

	if channels == nil {
		channels = []string{}
	}

	h.logger.Info("compliance notification handled", map[string]interface{}{
		"riskLevel": string(input.RiskAssessment.Level),
		"channels":  channels,
	})

	return &Output{Notified: len(channels) > 0, Channels: channels}, nil
}

func (h *Handler) shouldNotify(level models.RiskLevel) bool {
	threshold, ok := tierRank[models.RiskLevel(strings.ToLower(h.config.RiskThreshold))]
	if !ok {
		threshold = tierRank[models.RiskLevelHigh]
	}
	return tierRank[level] >= threshold
}

func (h *Handler) sendEmails(ctx context.Context, input *Input) bool {
	subject := fmt.Sprintf("[Screening] %s: %s", input.RiskAssessment.LevelLabel, h.subjectLabel(input))
	body := h.emailBody(input)

	delivered := false
	for _, to := range h.config.ToEmails {
		if !validation.ValidateEmail(to) {
			h.logger.Warn("skipping invalid notification email address", map[string]interface{}{
				"to": to,
			})
			continue
		}
		if err := h.email.SendTextEmail(ctx, h.config.FromEmail, to, subject, body); err != nil {
			h.logger.Warn("email notification failed", map[string]interface{}{
				"to":    to,
				"error": err,
			})
			continue
		}
		delivered = true
	}
	return delivered
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) bool {
	message := fmt.Sprintf("Screening alert: %s (score %.1f) for %s. %s",
		input.RiskAssessment.LevelLabel,
		input.RiskAssessment.Score,
		h.subjectLabel(input),
		input.RiskAssessment.Summary,
	)

	delivered := false
	for _, number := range h.config.PhoneNumbers {
		if !validation.ValidatePhone(number) {
			h.logger.Warn("skipping invalid notification phone number", map[string]interface{}{
				"phoneNumber": number,
			})
			continue
		}
		if err := h.sms.SendSMS(ctx, number, message); err != nil {
			h.logger.Warn("sms notification failed", map[string]interface{}{
				"phoneNumber": number,
				"error":       err,
			})
			continue
		}
		delivered = true
	}
	return delivered
}

func (h *Handler) subjectLabel(input *Input) string {
	if input.SearchType == "cpf" {
		return "CPF " + format.FormatCPF(input.SearchTerm)
	}
	return input.SearchTerm
}

func (h *Handler) emailBody(input *Input) string {
	a := input.RiskAssessment
	var b strings.Builder

	fmt.Fprintf(&b, "A screening assessment crossed the notification threshold.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", h.subjectLabel(input))
	fmt.Fprintf(&b, "Risk level: %s (score %.1f)\n", a.LevelLabel, a.Score)
	fmt.Fprintf(&b, "Summary: %s\n", a.Summary)

	if len(a.Analysis.RedFlags) > 0 {
		b.WriteString("\nRed flags:\n")
		for _, flag := range a.Analysis.RedFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	}
	if a.Analysis.Recommendation != "" {
		fmt.Fprintf(&b, "\nRecommendation: %s\n", a.Analysis.Recommendation)
	}

	return b.String()
}

func errorCodeOf(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
