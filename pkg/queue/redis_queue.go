// Package queue provides an optional Redis Streams queue for running the
// embedding phase of ingestion out of band. Without it, embedding happens
// inline during upload.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"faqbot/internal/util"
)

// Embed job targets.
const (
	KindDocument = "document"
	KindWebsite  = "website"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

const (
	streamMaxLen = 10000
	readCount    = 10
	claimCount   = 10
)

// EmbedJob tracks one deferred embedding computation through the queue.
type EmbedJob struct {
	ID           string    `json:"id"`
	ContentID    string    `json:"contentId"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RedisEmbedQueue is a consumer-group backed job queue. Jobs survive worker
// crashes: stalled deliveries are reclaimed after claimIdle and retried up
// to maxRetries times.
type RedisEmbedQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	jobTTL       time.Duration
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	once         sync.Once
}

type Config struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	JobTTL     time.Duration
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
}

func NewRedisEmbedQueue(cfg Config) (*RedisEmbedQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "embed_jobs"
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "embedders"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	q := &RedisEmbedQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		jobTTL:       cfg.JobTTL,
		maxRetries:   cfg.MaxRetries,
		block:        cfg.Block,
		claimIdle:    cfg.ClaimIdle,
		retryDelay:   cfg.RetryDelay,
	}
	if q.jobTTL <= 0 {
		q.jobTTL = 24 * time.Hour
	}
	if q.maxRetries <= 0 {
		q.maxRetries = 3
	}
	if q.block <= 0 {
		q.block = 5 * time.Second
	}
	if q.claimIdle <= 0 {
		q.claimIdle = 30 * time.Second
	}
	if q.retryDelay <= 0 {
		q.retryDelay = 2 * time.Second
	}
	return q, nil
}

// Enqueue records a queued job and appends it to the stream.
func (q *RedisEmbedQueue) Enqueue(ctx context.Context, kind, contentID string) (EmbedJob, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return EmbedJob{}, errors.New("contentId required")
	}
	if kind != KindDocument && kind != KindWebsite {
		return EmbedJob{}, fmt.Errorf("unknown job kind %q", kind)
	}
	now := time.Now().UTC()
	job := EmbedJob{
		ID:        util.NewID(),
		ContentID: contentID,
		Kind:      kind,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return EmbedJob{}, err
	}
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":     job.ID,
			"content_id": job.ContentID,
			"kind":       job.Kind,
		},
	}).Err(); err != nil {
		return EmbedJob{}, err
	}
	return job, nil
}

// GetJob looks up a job's status record.
func (q *RedisEmbedQueue) GetJob(ctx context.Context, jobID string) (EmbedJob, bool, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return EmbedJob{}, false, nil
	}
	data, err := q.client.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return EmbedJob{}, false, err
	}
	if len(data) == 0 {
		return EmbedJob{}, false, nil
	}
	return decodeEmbedJob(jobID, data), true, nil
}

// Start launches concurrency consumer goroutines that run until ctx is
// cancelled.
func (q *RedisEmbedQueue) Start(ctx context.Context, concurrency int, handler func(context.Context, EmbedJob) error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *RedisEmbedQueue) Close() error {
	return q.client.Close()
}

func (q *RedisEmbedQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			// best-effort; errors will surface on consume
		}
	})
}

func (q *RedisEmbedQueue) consumeLoop(ctx context.Context, consumer string, handler func(context.Context, EmbedJob) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    readCount,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisEmbedQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    claimCount,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *RedisEmbedQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler func(context.Context, EmbedJob) error) {
	jobID, _ := msg.Values["job_id"].(string)
	contentID, _ := msg.Values["content_id"].(string)
	kind, _ := msg.Values["kind"].(string)
	if jobID == "" || contentID == "" || kind == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	job, err := q.markProcessing(ctx, jobID, contentID, kind)
	if err != nil {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if err := handler(ctx, job); err == nil {
		_ = q.setStatus(ctx, jobID, StatusDone, "")
		q.ackAndDel(ctx, msg.ID)
		return
	} else if job.Attempts >= q.maxRetries {
		_ = q.setStatus(ctx, jobID, StatusFailed, err.Error())
		q.ackAndDel(ctx, msg.ID)
		return
	} else {
		_ = q.setStatus(ctx, jobID, StatusQueued, err.Error())
	}
	if q.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
	_ = q.requeueAndAck(ctx, msg.ID, jobID, contentID, kind)
}

func (q *RedisEmbedQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

func (q *RedisEmbedQueue) requeueAndAck(ctx context.Context, msgID, jobID, contentID, kind string) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":     jobID,
			"content_id": contentID,
			"kind":       kind,
		},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisEmbedQueue) markProcessing(ctx context.Context, jobID, contentID, kind string) (EmbedJob, error) {
	job, found, err := q.GetJob(ctx, jobID)
	if err != nil {
		return EmbedJob{}, err
	}
	if !found {
		job = EmbedJob{ID: jobID, CreatedAt: time.Now().UTC()}
	}
	job.ContentID = contentID
	job.Kind = kind
	job.Attempts++
	job.Status = StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	if err := q.writeStatus(ctx, job); err != nil {
		return EmbedJob{}, err
	}
	return job, nil
}

func (q *RedisEmbedQueue) setStatus(ctx context.Context, jobID, status, errMsg string) error {
	job, _, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()
	return q.writeStatus(ctx, job)
}

func (q *RedisEmbedQueue) writeStatus(ctx context.Context, job EmbedJob) error {
	payload := map[string]any{
		"id":        job.ID,
		"contentId": job.ContentID,
		"kind":      job.Kind,
		"status":    job.Status,
		"error":     job.ErrorMessage,
		"attempts":  strconv.Itoa(job.Attempts),
		"createdAt": job.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": job.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := q.client.HSet(ctx, q.jobKey(job.ID), payload).Err(); err != nil {
		return err
	}
	_ = q.client.Expire(ctx, q.jobKey(job.ID), q.jobTTL).Err()
	return nil
}

func (q *RedisEmbedQueue) jobKey(jobID string) string {
	return fmt.Sprintf("embedjob:%s:%s", q.stream, jobID)
}

func decodeEmbedJob(jobID string, data map[string]string) EmbedJob {
	job := EmbedJob{ID: jobID}
	job.ContentID = data["contentId"]
	job.Kind = data["kind"]
	job.Status = data["status"]
	job.ErrorMessage = data["error"]
	if v := data["attempts"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			job.Attempts = n
		}
	}
	if v := data["createdAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			job.CreatedAt = t
		}
	}
	if v := data["updatedAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			job.UpdatedAt = t
		}
	}
	return job
}
