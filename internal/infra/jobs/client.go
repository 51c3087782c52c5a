package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return &Client{
		client: asynq.NewClient(redisOpt),
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueSearchLog enqueues a search log record job. The request id, when
// present, is the task id so a retried request is recorded once.
func (c *Client) EnqueueSearchLog(ctx context.Context, payload SearchLogPayload) error {
	taskID := payload.RequestID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	task, err := NewSearchLogTask(payload, "searchlog:"+payload.Module+":"+taskID)
	if err != nil {
		metrics.SearchLogsEnqueued.WithLabelValues(metrics.StatusError).Inc()
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		c.logger.WithContext(ctx).Debug("search log already queued", "module", payload.Module)
		return nil
	}
	metrics.SearchLogsEnqueued.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		c.logger.WithContext(ctx).Error("failed to enqueue search log",
			"module", payload.Module,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.WithContext(ctx).Debug("search log queued",
		"task_id", info.ID,
		"module", payload.Module,
		"queue", info.Queue,
	)
	return nil
}

// Record implements searchlog.Recorder by queueing the entry.
func (c *Client) Record(ctx context.Context, e *searchlog.Entry) error {
	return c.EnqueueSearchLog(ctx, NewSearchLogPayload(e))
}

var _ searchlog.Recorder = (*Client)(nil)
