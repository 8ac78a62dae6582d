package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/planner"
	"github.com/fixmyhalo/fixmyhalo/internal/probe"
	"github.com/fixmyhalo/fixmyhalo/internal/queue"
)

// reclaimBatch bounds how many stale tasks one Reclaim call takes over.
const reclaimBatch = 16

// RedisBroker adapts a queue.Client to both Broker and WorkQueue.
type RedisBroker struct {
	client *queue.Client

	mu     sync.Mutex
	cursor map[string]string // batch ID → last result entry read
}

// NewRedisBroker wraps client. The client's consumer group must exist
// (queue.Client.EnsureGroup).
func NewRedisBroker(client *queue.Client) *RedisBroker {
	return &RedisBroker{client: client, cursor: make(map[string]string)}
}

func (b *RedisBroker) Enqueue(ctx context.Context, task Task) error {
	_, err := b.client.Enqueue(ctx, queue.JobMessage{
		BatchID: task.BatchID,
		JobID:   task.Job.ID,
		Input:   task.Job.Input,
		Output:  task.Job.Output,
		Padding: task.Padding,
		DryRun:  task.DryRun,
	})
	return err
}

func (b *RedisBroker) Collect(ctx context.Context, batchID string, block time.Duration) ([]Outcome, error) {
	b.mu.Lock()
	last, ok := b.cursor[batchID]
	b.mu.Unlock()
	if !ok {
		last = "0"
	}

	msgs, next, err := b.client.ReadOutcomes(ctx, batchID, last, block)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.cursor[batchID] = next
	b.mu.Unlock()

	outs := make([]Outcome, 0, len(msgs))
	for _, m := range msgs {
		outs = append(outs, outcomeFromMessage(m))
	}
	return outs, nil
}

func (b *RedisBroker) Drop(ctx context.Context, batchID string) error {
	b.mu.Lock()
	delete(b.cursor, batchID)
	b.mu.Unlock()
	return b.client.DropBatch(ctx, batchID)
}

func (b *RedisBroker) Next(ctx context.Context, consumer string, block time.Duration) (*Task, error) {
	d, err := b.client.ReadJob(ctx, consumer, block)
	if err != nil {
		if d != nil {
			// Undecodable entry: ack it so it is not redelivered forever.
			_ = b.client.Ack(ctx, d.ID)
		}
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	t := taskFromDelivery(*d)
	return &t, nil
}

func (b *RedisBroker) Reclaim(ctx context.Context, consumer string, minIdle time.Duration) ([]Task, error) {
	ds, err := b.client.ClaimStale(ctx, consumer, minIdle, reclaimBatch)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, len(ds))
	for i, d := range ds {
		tasks[i] = taskFromDelivery(d)
	}
	return tasks, nil
}

func (b *RedisBroker) Complete(ctx context.Context, task Task, out Outcome) error {
	if err := b.client.Publish(ctx, messageFromOutcome(task.BatchID, out)); err != nil {
		return err
	}
	return b.client.Ack(ctx, task.ID)
}

func taskFromDelivery(d queue.Delivery) Task {
	return Task{
		ID:      d.ID,
		BatchID: d.Job.BatchID,
		Job:     planner.Job{ID: d.Job.JobID, Input: d.Job.Input, Output: d.Job.Output},
		Padding: d.Job.Padding,
		DryRun:  d.Job.DryRun,
	}
}

func messageFromOutcome(batchID string, o Outcome) queue.OutcomeMessage {
	return queue.OutcomeMessage{
		BatchID:       batchID,
		JobID:         o.Job.ID,
		Input:         o.Job.Input,
		Output:        o.Job.Output,
		Kind:          string(o.Kind),
		Error:         o.Err,
		InputBytes:    o.InputBytes,
		OutputBytes:   o.OutputBytes,
		Width:         o.Stats.Width,
		Height:        o.Stats.Height,
		Transparent:   o.Stats.Transparent,
		Translucent:   o.Stats.Translucent,
		Opaque:        o.Stats.Opaque,
		PixelsChanged: o.PixelsChanged,
		ElapsedMS:     o.Elapsed.Milliseconds(),
		Worker:        o.Worker,
	}
}

func outcomeFromMessage(m queue.OutcomeMessage) Outcome {
	return Outcome{
		Job:         planner.Job{ID: m.JobID, Input: m.Input, Output: m.Output},
		Kind:        ErrorKind(m.Kind),
		Err:         m.Error,
		InputBytes:  m.InputBytes,
		OutputBytes: m.OutputBytes,
		Stats: probe.Stats{
			Width:       m.Width,
			Height:      m.Height,
			Transparent: m.Transparent,
			Translucent: m.Translucent,
			Opaque:      m.Opaque,
		},
		PixelsChanged: m.PixelsChanged,
		Elapsed:       time.Duration(m.ElapsedMS) * time.Millisecond,
		Worker:        m.Worker,
	}
}
