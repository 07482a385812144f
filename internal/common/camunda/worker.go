// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"kye-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every screening worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// CamundaWorker ties one task type to one handler on an open job stream.
type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	jobTimeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(jobTimeout).
		Open()

	log.Info("worker registered", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
		"jobTimeout":    jobTimeout.String(),
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
}
