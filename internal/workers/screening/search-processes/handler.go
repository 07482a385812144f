// internal/workers/screening/search-processes/handler.go
package searchprocesses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kye-workers/internal/common/database"
	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/format"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/metrics"
	"kye-workers/internal/common/validation"
	"kye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "screening.search-processes"
)

// ProcessSearcher is the slice of the judicial records client this worker
// needs.
type ProcessSearcher interface {
	SearchByName(ctx context.Context, name string) ([]models.ProcessRecord, error)
	SearchByCPF(ctx context.Context, cpf string) ([]models.ProcessRecord, error)
	SearchByProcessNumber(ctx context.Context, cnj string) ([]models.ProcessRecord, error)
}

type Handler struct {
	config       *Config
	searcher     ProcessSearcher
	redis        *redis.Client
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, searcher ProcessSearcher, redisClient *redis.Client, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		redis:        redisClient,
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
	term := strings.TrimSpace(input.SearchTerm)
	if term == "" {
		return nil, errors.NewInvalidCPFFormatError("searchTerm is empty")
	}

	searchType := input.SearchType
	if searchType == "" {
		searchType = SearchTypeCPF
	}

	if searchType == SearchTypeCPF {
		if !format.IsCPF(term) {
			metrics.JudicialSearchesTotal.WithLabelValues(searchType, "invalid").Inc()
			return nil, errors.NewInvalidCPFFormatError(fmt.Sprintf("searchTerm: %s", term))
		}
		term = format.DigitsOnly(term)
	}

	if cached, ok := h.fromCache(ctx, searchType, term); ok {
		metrics.JudicialSearchesTotal.WithLabelValues(searchType, "cache_hit").Inc()
		return &Output{
			Processes:    cached,
			ProcessCount: len(cached),
			SearchTerm:   term,
			SearchType:   searchType,
			CacheHit:     true,
			NadaConsta:   len(cached) == 0,
		}, nil
	}

	records, err := h.search(ctx, searchType, term)
	if err != nil {
		metrics.JudicialSearchesTotal.WithLabelValues(searchType, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewProcessSearchTimeoutError(searchType)
		}
		return nil, errors.NewProcessSearchFailedError(searchType, err)
	}

	outcome := "found"
	if len(records) == 0 {
		outcome = "clean"
	}
	metrics.JudicialSearchesTotal.WithLabelValues(searchType, outcome).Inc()

	h.toCache(ctx, searchType, term, records)

	h.logger.Info("judicial search completed", map[string]interface{}{
		"searchType":   searchType,
		"processCount": len(records),
	})

	return &Output{
		Processes:    records,
		ProcessCount: len(records),
		SearchTerm:   term,
		SearchType:   searchType,
		CacheHit:     false,
		NadaConsta:   len(records) == 0,
	}, nil
}

func (h *Handler) search(ctx context.Context, searchType, term string) ([]models.ProcessRecord, error) {
	switch searchType {
	case SearchTypeCPF:
		return h.searcher.SearchByCPF(ctx, term)
	case SearchTypeName:
		return h.searcher.SearchByName(ctx, term)
	case SearchTypeProcessNumber:
		return h.searcher.SearchByProcessNumber(ctx, term)
	default:
		return nil, errors.NewInvalidCPFFormatError(fmt.Sprintf("unknown searchType: %s", searchType))
	}
}

func cacheKey(searchType, term string) string {
	return "screening:search:" + searchType + ":" + term
}

func (h *Handler) fromCache(ctx context.Context, searchType, term string) ([]models.ProcessRecord, bool) {
	if h.redis == nil {
		return nil, false
	}
	val, err := h.redis.Get(ctx, cacheKey(searchType, term)).Result()
	if err != nil {
		if !database.IsCacheMiss(err) {
			h.logger.Warn("cache read failed", map[string]interface{}{"error": err})
		}
		return nil, false
	}

	var records []models.ProcessRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, false
	}
	if records == nil {
		records = []models.ProcessRecord{}
	}
	return records, true
}

func (h *Handler) toCache(ctx context.Context, searchType, term string, records []models.ProcessRecord) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, cacheKey(searchType, term), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{"error": err})
	}
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
