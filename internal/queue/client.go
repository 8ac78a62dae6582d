package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultTTL bounds how long an abandoned result stream lingers in Redis.
const ResultTTL = 24 * time.Hour

const workerGroup = "workers"

// Client wraps a Redis connection with the stream layout of one prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New connects to addr and pings it.
func New(ctx context.Context, addr, prefix string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return &Client{rdb: rdb, prefix: prefix}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// JobStream is the stream all jobs are enqueued on.
func (c *Client) JobStream() string { return c.prefix + ":jobs" }

// ResultStream is the outcome stream of one batch.
func (c *Client) ResultStream(batchID string) string {
	return c.prefix + ":results:" + batchID
}

// EnsureGroup creates the worker consumer group (and the job stream) if
// missing. The group starts at "0" so jobs enqueued before any worker
// started are still delivered.
func (c *Client) EnsureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.JobStream(), workerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Enqueue appends a job and returns its entry ID.
func (c *Client) Enqueue(ctx context.Context, job JobMessage) (string, error) {
	values, err := encode(job)
	if err != nil {
		return "", err
	}
	return c.rdb.XAdd(ctx, &redis.XAddArgs{Stream: c.JobStream(), Values: values}).Result()
}

// ReadJob blocks up to block for the next undelivered job. It returns nil
// without error when none arrived.
func (c *Client) ReadJob(ctx context.Context, consumer string, block time.Duration) (*Delivery, error) {
	res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    workerGroup,
		Consumer: consumer,
		Streams:  []string{c.JobStream(), ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return nil, nil
	}
	msg := res[0].Messages[0]
	d := &Delivery{ID: msg.ID}
	if err := decode(msg.Values, &d.Job); err != nil {
		return d, fmt.Errorf("job %s: %w", msg.ID, err)
	}
	return d, nil
}

// Ack marks a job entry as processed.
func (c *Client) Ack(ctx context.Context, id string) error {
	return c.rdb.XAck(ctx, c.JobStream(), workerGroup, id).Err()
}

// ClaimStale moves up to count jobs that have been pending longer than
// minIdle (their consumer died) to consumer and returns them.
func (c *Client) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration, count int) ([]Delivery, error) {
	pend, err := c.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.JobStream(),
		Group:  workerGroup,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  int64(count),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(pend) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(pend))
	for _, p := range pend {
		ids = append(ids, p.ID)
	}
	claimed, err := c.rdb.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.JobStream(),
		Group:    workerGroup,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Delivery, 0, len(claimed))
	for _, msg := range claimed {
		d := Delivery{ID: msg.ID}
		if err := decode(msg.Values, &d.Job); err != nil {
			// Undecodable entries would be claimed forever; drop them.
			_ = c.Ack(ctx, msg.ID)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Publish appends an outcome to its batch's result stream.
func (c *Client) Publish(ctx context.Context, out OutcomeMessage) error {
	values, err := encode(out)
	if err != nil {
		return err
	}
	stream := c.ResultStream(out.BatchID)
	pipe := c.rdb.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values})
	pipe.Expire(ctx, stream, ResultTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// ReadOutcomes blocks up to block for outcomes after lastID ("0" for the
// start of the stream). It returns the ID to pass on the next call.
func (c *Client) ReadOutcomes(ctx context.Context, batchID, lastID string, block time.Duration) ([]OutcomeMessage, string, error) {
	res, err := c.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{c.ResultStream(batchID), lastID},
		Count:   256,
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, lastID, nil
	}
	if err != nil {
		return nil, lastID, err
	}
	var out []OutcomeMessage
	for _, stream := range res {
		for _, msg := range stream.Messages {
			lastID = msg.ID
			var om OutcomeMessage
			if err := decode(msg.Values, &om); err != nil {
				continue
			}
			out = append(out, om)
		}
	}
	return out, lastID, nil
}

// DropBatch deletes a batch's result stream.
func (c *Client) DropBatch(ctx context.Context, batchID string) error {
	return c.rdb.Del(ctx, c.ResultStream(batchID)).Err()
}
