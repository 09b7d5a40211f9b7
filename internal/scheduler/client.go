package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Config provides the Redis/queue settings for background work.
type Config interface {
	GetRedisURL() string
	GetAsynqQueueName() string
}

// Notifier enqueues staff notification tasks.
type Notifier interface {
	EnqueueStaffAssigned(ctx context.Context, payload StaffAssignedPayload) error
}

// Client enqueues background tasks. A nil *Client is a usable no-op so the
// pipeline works without Redis configured.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client from the Redis URL.
func NewClient(cfg Config) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueStaffAssigned schedules a staff notification email.
func (c *Client) EnqueueStaffAssigned(ctx context.Context, payload StaffAssignedPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewStaffAssignedTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(3))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
