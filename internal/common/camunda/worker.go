// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"econest-automation/internal/common/config"
	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// ExecuteFunc runs a job's business logic on decoded variables and returns
// the variables to complete the job with.
type ExecuteFunc func(ctx context.Context, job entities.Job) (interface{}, error)

// JobRecorder receives one outcome per finished job. Satisfied by
// *observability.Observability.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
}

var jobRecorder JobRecorder

// SetJobRecorder installs r for all runners. Call before workers open.
func SetJobRecorder(r JobRecorder) {
	jobRecorder = r
}

// JobRunner holds the plumbing every worker shares: timeout, completion,
// BPMN error throwing and metrics.
type JobRunner struct {
	taskType     string
	timeout      time.Duration
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType:     taskType,
		timeout:      timeout,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

// Run executes fn for one job and reports the outcome to the broker.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn ExecuteFunc) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := fn(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(errors.AsStandard(err).Code)).Inc()
		r.record(ctx, "failed")
		r.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.record(ctx, "completed")
}

func (r *JobRunner) record(ctx context.Context, status string) {
	if jobRecorder != nil {
		jobRecorder.RecordJobProcessed(ctx, r.taskType, status)
	}
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc worker.JobHandler, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jw
}
