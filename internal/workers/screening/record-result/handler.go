// internal/workers/screening/record-result/handler.go
package recordresult

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/metrics"
	"kye-workers/internal/history"
	"kye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "screening.record-result"
)

// resultSchema guards against malformed variables reaching the stores.
const resultSchema = `{
	"type": "object",
	"required": ["searchTerm", "searchType", "riskAssessment"],
	"properties": {
		"searchTerm": {"type": "string", "minLength": 1},
		"searchType": {"type": "string", "enum": ["cpf", "name", "process_number"]},
		"processes": {"type": "array"},
		"riskAssessment": {
			"type": "object",
			"required": ["score", "level"],
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"level": {"type": "string", "enum": ["low", "medium", "high", "critical"]}
			}
		}
	}
}`

// DocumentIndexer is the slice of the Elasticsearch client this worker
// needs.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, docID string, body []byte) error
}

type Handler struct {
	config       *Config
	db           *sql.DB
	indexer      DocumentIndexer
	history      *history.Store
	schema       *gojsonschema.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, indexer DocumentIndexer, historyStore *history.Store, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a
		// programming error.
		panic(fmt.Sprintf("invalid result schema: %v", err))
	}

	return &Handler{
		config:       config,
		db:           db,
		indexer:      indexer,
		history:      historyStore,
		schema:       schema,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewRecordSchemaInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCodeOf(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	recordID := uuid.New().String()
	now := time.Now().UTC()

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, errors.NewRecordPersistFailedError(err)
	}

	if err := h.insertResult(ctx, recordID, input, payload, now); err != nil {
		return nil, errors.NewRecordPersistFailedError(err)
	}

	if err := h.appendHistory(recordID, input, now); err != nil {
		return nil, errors.NewHistoryWriteFailedError(err)
	}

	h.saveProcessDetails(input)

	// Indexing is best effort: the relational row is the source of truth
	// and the analytics index can be rebuilt from it.
	indexed := h.indexResult(ctx, recordID, payload)

	h.logger.Info("screening result recorded", map[string]interface{}{
		"recordId":     recordID,
		"searchType":   input.SearchType,
		"processCount": len(input.Processes),
		"riskLevel":    string(input.RiskAssessment.Level),
		"indexed":      indexed,
	})

	return &Output{RecordID: recordID, Indexed: indexed}, nil
}

func (h *Handler) validate(input *Input) error {
	result, err := h.schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return errors.NewRecordSchemaInvalidError(err.Error())
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.NewRecordSchemaInvalidError(strings.Join(details, "; "))
	}
	return nil
}

func (h *Handler) insertResult(ctx context.Context, recordID string, input *Input, payload []byte, now time.Time) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO screening_results
			(id, search_term, search_type, process_count, risk_score, risk_level, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recordID,
		input.SearchTerm,
		input.SearchType,
		len(input.Processes),
		input.RiskAssessment.Score,
		string(input.RiskAssessment.Level),
		payload,
		now,
	)
	return err
}

func (h *Handler) appendHistory(recordID string, input *Input, now time.Time) error {
	if h.history == nil {
		return nil
	}
	return h.history.Append(models.SearchRecord{
		ID:         recordID,
		SearchTerm: input.SearchTerm,
		SearchType: input.SearchType,
		Timestamp:  now.Format(time.RFC3339),
		Resultados: input.Processes,
		Assessment: input.RiskAssessment,
	})
}

// saveProcessDetails merges per-process detail payloads into the history
// entry just written. Best effort, like indexing.
func (h *Handler) saveProcessDetails(input *Input) {
	if h.history == nil || len(input.ProcessDetails) == 0 {
		return
	}
	for processNumber, details := range input.ProcessDetails {
		saved, err := h.history.SaveProcessDetails(processNumber, details)
		if err != nil {
			h.logger.Warn("process detail merge failed", map[string]interface{}{
				"processNumber": processNumber,
				"error":         err,
			})
			continue
		}
		if !saved {
			h.logger.Warn("process not found in history, details dropped", map[string]interface{}{
				"processNumber": processNumber,
			})
		}
	}
}

func (h *Handler) indexResult(ctx context.Context, recordID string, payload []byte) bool {
	if h.indexer == nil {
		return false
	}
	if err := h.indexer.IndexDocument(ctx, h.config.Index, recordID, payload); err != nil {
		indexErr := errors.NewRecordIndexFailedError(err)
		h.logger.Warn("screening result indexing failed", map[string]interface{}{
			"recordId": recordID,
			"error":    indexErr.Details,
		})
		return false
	}
	return true
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
