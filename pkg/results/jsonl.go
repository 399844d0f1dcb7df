package results

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/soundprediction/toponimo/pkg/types"
)

// jsonlRow wraps a linked mention with the run metadata the Parquet schema
// carries in columns.
type jsonlRow struct {
	types.LinkedMention
	RunID      string  `json:"run_id"`
	RankMethod string  `json:"rank_method"`
	LinkMethod string  `json:"link_method"`
	LatencyMS  float64 `json:"latency_ms"`
}

// JSONLWriter streams one JSON object per linked mention.
type JSONLWriter struct {
	config Config

	mu  sync.Mutex
	out io.Writer
	c   io.Closer
}

// NewJSONLWriter writes rows to out. The caller keeps ownership of out.
func NewJSONLWriter(out io.Writer, config Config) *JSONLWriter {
	return &JSONLWriter{config: config, out: out}
}

// NewJSONLFileWriter creates path (truncating it) and writes rows there.
func NewJSONLFileWriter(path string, config Config) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file %s: %w", path, err)
	}
	return &JSONLWriter{config: config, out: f, c: f}, nil
}

// Append implements Writer.
func (w *JSONLWriter) Append(mentions []types.LinkedMention, latency time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	latencyMS := float64(latency.Microseconds()) / 1000.0
	for _, m := range mentions {
		line, err := sonic.Marshal(jsonlRow{
			LinkedMention: m,
			RunID:         w.config.RunID,
			RankMethod:    w.config.RankMethod,
			LinkMethod:    w.config.LinkMethod,
			LatencyMS:     latencyMS,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal linked mention: %w", err)
		}
		if _, err := w.out.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write linked mention: %w", err)
		}
	}
	return nil
}

// Flush implements Writer. Lines are written through immediately, so there
// is nothing to flush.
func (w *JSONLWriter) Flush() error { return nil }

// Close implements Writer.
func (w *JSONLWriter) Close() error {
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}
