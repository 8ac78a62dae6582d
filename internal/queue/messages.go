package queue

import (
	"encoding/json"
	"fmt"
)

// JobMessage is one job on the job stream.
type JobMessage struct {
	BatchID string `json:"batch_id"`
	JobID   string `json:"job_id"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	Padding int    `json:"padding"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// OutcomeMessage reports the result of one job on its batch's result stream.
// Kind is empty on success.
type OutcomeMessage struct {
	BatchID       string `json:"batch_id"`
	JobID         string `json:"job_id"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	Kind          string `json:"kind,omitempty"`
	Error         string `json:"error,omitempty"`
	InputBytes    int64  `json:"input_bytes"`
	OutputBytes   int64  `json:"output_bytes"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Transparent   int    `json:"transparent"`
	Translucent   int    `json:"translucent"`
	Opaque        int    `json:"opaque"`
	PixelsChanged int    `json:"pixels_changed"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	Worker        string `json:"worker"`
}

// Delivery is a job read from the stream together with the entry ID needed
// to acknowledge it.
type Delivery struct {
	ID  string
	Job JobMessage
}

const dataField = "data"

func encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return map[string]any{dataField: b}, nil
}

func decode(values map[string]any, v any) error {
	raw, ok := values[dataField]
	if !ok {
		return fmt.Errorf("stream entry has no %q field", dataField)
	}
	return json.Unmarshal(bytesFromAny(raw), v)
}

// bytesFromAny handles Redis returning either string or []byte.
func bytesFromAny(v any) []byte {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case []byte:
		return t
	default:
		b, _ := json.Marshal(t)
		return b
	}
}
