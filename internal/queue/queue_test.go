package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDecode_StringAndBytes(t *testing.T) {
	want := JobMessage{BatchID: "b", JobID: "j", Input: "/in/a.png", Output: "/out/a.png", Padding: 8}
	values, err := encode(want)
	if err != nil {
		t.Fatal(err)
	}

	// go-redis hands back strings; encode produces []byte. Both must decode.
	raw := values[dataField].([]byte)
	for name, v := range map[string]any{"bytes": raw, "string": string(raw)} {
		var got JobMessage
		if err := decode(map[string]any{dataField: v}, &got); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: got %+v, want %+v", name, got, want)
		}
	}
}

func TestDecode_MissingField(t *testing.T) {
	var m OutcomeMessage
	if err := decode(map[string]any{"other": "x"}, &m); err == nil {
		t.Error("decode without data field should fail")
	}
}

func TestStreamNames(t *testing.T) {
	c := &Client{prefix: "fmh"}
	if got := c.JobStream(); got != "fmh:jobs" {
		t.Errorf("JobStream = %q", got)
	}
	if got := c.ResultStream("42"); got != "fmh:results:42" {
		t.Errorf("ResultStream = %q", got)
	}
}

// TestClient_RoundTrip needs a disposable Redis; set FIXMYHALO_REDIS_ADDR to run it.
func TestClient_RoundTrip(t *testing.T) {
	addr := os.Getenv("FIXMYHALO_REDIS_ADDR")
	if addr == "" {
		t.Skip("FIXMYHALO_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prefix := "fixmyhalo-test-" + uuid.NewString()
	c, err := New(ctx, addr, prefix)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	defer c.rdb.Del(context.Background(), c.JobStream())

	if err := c.EnsureGroup(ctx); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}
	if err := c.EnsureGroup(ctx); err != nil {
		t.Fatalf("EnsureGroup twice: %v", err)
	}

	job := JobMessage{BatchID: "batch", JobID: "job-1", Input: "a.png", Output: "b.png", Padding: 3}
	if _, err := c.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d, err := c.ReadJob(ctx, "w1", time.Second)
	if err != nil || d == nil {
		t.Fatalf("ReadJob = %v, %v", d, err)
	}
	if d.Job != job {
		t.Errorf("job = %+v, want %+v", d.Job, job)
	}

	// Unacked and idle: another consumer may claim it.
	time.Sleep(50 * time.Millisecond)
	claimed, err := c.ClaimStale(ctx, "w2", 10*time.Millisecond, 10)
	if err != nil {
		t.Fatalf("ClaimStale: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != d.ID {
		t.Errorf("claimed = %+v, want entry %s", claimed, d.ID)
	}
	if err := c.Ack(ctx, d.ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	if err := c.Publish(ctx, OutcomeMessage{BatchID: "batch", JobID: "job-1", PixelsChanged: 7}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	defer c.DropBatch(context.Background(), "batch")
	outs, last, err := c.ReadOutcomes(ctx, "batch", "0", time.Second)
	if err != nil {
		t.Fatalf("ReadOutcomes: %v", err)
	}
	if len(outs) != 1 || outs[0].JobID != "job-1" || outs[0].PixelsChanged != 7 {
		t.Errorf("outcomes = %+v", outs)
	}
	if last == "0" {
		t.Error("last ID should advance")
	}
}
