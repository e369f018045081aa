package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"claimintake/internal/app"
	"claimintake/internal/platform/rabbitmq"
)

// JobRunner is satisfied by app.BulkProcessor.
type JobRunner interface {
	ProcessJob(ctx context.Context, job rabbitmq.CaseJob) app.BulkItem
	Limit() int
}

// CaseProcessWorker consumes queued case jobs and re-runs each case from its
// stored files. Up to runner.Limit() deliveries are in flight at once.
type CaseProcessWorker struct {
	conn      *amqp.Connection
	runner    JobRunner
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCaseProcessWorker(conn *amqp.Connection, runner JobRunner, queueName string, logger *zap.Logger) *CaseProcessWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseProcessWorker{
		conn:      conn,
		runner:    runner,
		queueName: queueName,
		logger:    logger.Named("worker"),
	}
}

func (w *CaseProcessWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	prefetch := w.runner.Limit()
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		var inflight sync.WaitGroup
		defer inflight.Wait()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					w.process(workerCtx, d.Body, d.Redelivered, d)
				}()
			}
		}
	}()

	w.logger.Info("case worker started", zap.String("queue", w.queueName), zap.Int("prefetch", prefetch))
	return nil
}

// Acknowledger is the part of amqp.Delivery the handler needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process decodes and runs one job. Malformed jobs and unknown cases are
// dropped; other failures are requeued once.
func (w *CaseProcessWorker) process(ctx context.Context, body []byte, redelivered bool, ack Acknowledger) {
	var job rabbitmq.CaseJob
	if err := json.Unmarshal(body, &job); err != nil || job.TenantID == "" || job.CaseID == "" {
		w.logger.Warn("worker decode case job failed", zap.ByteString("body", body), zap.Error(err))
		_ = ack.Nack(false, false)
		return
	}

	item := w.runner.ProcessJob(ctx, job)
	switch {
	case item.Err == nil:
		w.logger.Info("case job done",
			zap.String("job_id", job.JobID),
			zap.String("case_id", job.CaseID),
			zap.String("status", item.Result.Status),
		)
		_ = ack.Ack(false)
	case app.IsNotFound(item.Err):
		w.logger.Warn("case job dropped", zap.String("job_id", job.JobID), zap.String("case_id", job.CaseID), zap.String("error", item.Error))
		_ = ack.Nack(false, false)
	default:
		w.logger.Error("case job failed",
			zap.String("job_id", job.JobID),
			zap.String("case_id", job.CaseID),
			zap.Bool("redelivered", redelivered),
			zap.String("error", item.Error),
		)
		_ = ack.Nack(false, !redelivered)
	}
}

func (w *CaseProcessWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
