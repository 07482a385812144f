// internal/workers/screening/bulk-search/handler.go
package bulksearch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/format"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/metrics"
	"kye-workers/internal/common/validation"
	"kye-workers/internal/models"
	"kye-workers/internal/risk"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "screening.bulk-search"
)

// CPFSearcher is the slice of the judicial records client this worker
// needs.
type CPFSearcher interface {
	SearchByCPF(ctx context.Context, cpf string) ([]models.ProcessRecord, error)
}

type Handler struct {
	config       *Config
	searcher     CPFSearcher
	assessor     *risk.Assessor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, searcher CPFSearcher, assessor *risk.Assessor, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		assessor:     assessor,
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
	cpfs := format.ExtractCPFs(input.FileContent)
	if len(cpfs) == 0 {
		return nil, errors.NewBulkFileInvalidError("no valid CPFs found in file content")
	}
	if len(cpfs) > h.config.MaxSubjects {
		return nil, errors.NewBulkFileInvalidError(
			fmt.Sprintf("file contains %d CPFs, limit is %d", len(cpfs), h.config.MaxSubjects))
	}

	results := make([]ItemResult, len(cpfs))

	concurrency := h.config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = h.screenOne(ctx, cpfs[idx])
			}
		}()
	}

	for idx := range cpfs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	output := summarize(results)

	h.logger.Info("bulk screening completed", map[string]interface{}{
		"total":     output.Total,
		"succeeded": output.Succeeded,
		"failed":    output.Failed,
		"clean":     output.CleanCount,
	})

	return output, nil
}

func summarize(results []ItemResult) *Output {
	output := &Output{
		Results:     results,
		Total:       len(results),
		ByRiskLevel: make(map[string]int),
	}
	for _, r := range results {
		if r.Error != "" {
			output.Failed++
			continue
		}
		output.Succeeded++
		if r.ProcessCount == 0 {
			output.CleanCount++
		} else {
			output.FoundCount++
		}
		output.ByRiskLevel[r.RiskLevel]++
	}
	output.CSVExport = renderCSV(results)
	return output
}

func renderCSV(results []ItemResult) string {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Write([]string{"cpf", "processCount", "riskScore", "riskLevel", "error"})
	for _, r := range results {
		w.Write([]string{
			r.CPF,
			strconv.Itoa(r.ProcessCount),
			strconv.FormatFloat(r.RiskScore, 'f', 1, 64),
			r.RiskLevel,
			r.Error,
		})
	}
	w.Flush()
	return buf.String()
}

// screenOne searches and assesses a single subject. Failures are folded
// into the item so one bad subject never sinks the batch.
func (h *Handler) screenOne(ctx context.Context, cpf string) ItemResult {
	item := ItemResult{CPF: cpf}

	records, err := h.searcher.SearchByCPF(ctx, cpf)
	if err != nil {
		metrics.JudicialSearchesTotal.WithLabelValues("cpf", "error").Inc()
		item.Error = err.Error()
		return item
	}

	outcome := "found"
	if len(records) == 0 {
		outcome = "clean"
	}
	metrics.JudicialSearchesTotal.WithLabelValues("cpf", outcome).Inc()

	assessment := h.assessor.Assess(ctx, records, models.SubjectContext{SearchTerm: cpf})

	item.ProcessCount = len(records)
	item.RiskScore = assessment.Score
	item.RiskLevel = string(assessment.Level)
	return item
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
