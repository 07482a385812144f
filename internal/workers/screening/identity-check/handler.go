// internal/workers/screening/identity-check/handler.go
package identitycheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kye-workers/internal/common/caf"
	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/format"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/metrics"
	"kye-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "screening.identity-check"
)

// IdentityChecker is the slice of the TrustCheck client this worker needs.
type IdentityChecker interface {
	CreateTransaction(ctx context.Context, attributes map[string]string) (string, error)
	WaitForResult(ctx context.Context, transactionID string) (*caf.Transaction, error)
}

type Handler struct {
	config       *Config
	checker      IdentityChecker
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, checker IdentityChecker, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		checker:      checker,
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
	cpf := format.DigitsOnly(input.CPF)
	if !format.IsCPF(cpf) {
		return nil, errors.NewInvalidCPFFormatError(fmt.Sprintf("cpf: %s", input.CPF))
	}

	attributes := map[string]string{"cpf": cpf}
	if name := strings.TrimSpace(input.Name); name != "" {
		attributes["name"] = name
	}

	transactionID, err := h.checker.CreateTransaction(ctx, attributes)
	if err != nil {
		return nil, errors.NewIdentityCheckFailedError(err)
	}

	h.logger.Info("identity check transaction created", map[string]interface{}{
		"transactionId": transactionID,
	})

	tx, err := h.checker.WaitForResult(ctx, transactionID)
	if err != nil {
		if err == caf.ErrPollTimeout || ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewIdentityCheckTimeoutError(transactionID)
		}
		return nil, errors.NewIdentityCheckFailedError(err)
	}

	status := strings.ToUpper(tx.Status)
	h.logger.Info("identity check completed", map[string]interface{}{
		"transactionId": transactionID,
		"status":        status,
	})

	return &Output{
		TransactionID: transactionID,
		Status:        status,
		Approved:      status == caf.StatusApproved,
	}, nil
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
