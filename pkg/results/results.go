package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/toponimo/pkg/types"
)

// Writer receives linked mentions as documents finish processing.
type Writer interface {
	// Append records the mentions of one processed document together
	// with the time the document took end to end.
	Append(mentions []types.LinkedMention, latency time.Duration) error
	// Flush forces buffered rows out.
	Flush() error
	// Close flushes and releases the writer.
	Close() error
}

// Config identifies the run that produced the rows.
type Config struct {
	// RunID groups all rows written by one pipeline run.
	RunID string `json:"run_id" mapstructure:"run_id"`
	// RankMethod tags rows with the candidate-ranking strategy used.
	RankMethod string `json:"rank_method" mapstructure:"rank_method"`
	// LinkMethod tags rows with the disambiguation strategy used.
	LinkMethod string `json:"link_method" mapstructure:"link_method"`
}

// Row is the Parquet schema for one linked mention.
type Row struct {
	RunID        string     `parquet:"run_id"`
	DocumentID   string     `parquet:"document_id"`
	SentenceID   string     `parquet:"sentence_id"`
	Mention      string     `parquet:"mention"`
	CharStart    int64      `parquet:"char_start"`
	CharEnd      int64      `parquet:"char_end"`
	Tag          string     `parquet:"tag"`
	NERScore     float64    `parquet:"ner_score"`
	Prediction   string     `parquet:"prediction"`
	Confidence   float64    `parquet:"confidence"`
	Distribution string     `parquet:"distribution"` // JSON string
	RankMethod   string     `parquet:"rank_method"`
	LinkMethod   string     `parquet:"link_method"`
	LatencyMS    float64    `parquet:"latency_ms"`
	CreatedAt    *time.Time `parquet:"created_at"`
}

// ParquetWriter buffers rows and writes one part file per flush.
type ParquetWriter struct {
	dir    string
	config Config

	mu   sync.Mutex
	rows []Row
}

// NewParquetWriter creates a writer that emits part files under dir.
func NewParquetWriter(dir string, config Config) (*ParquetWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &ParquetWriter{dir: dir, config: config}, nil
}

// Append implements Writer.
func (w *ParquetWriter) Append(mentions []types.LinkedMention, latency time.Duration) error {
	rows, err := toRows(mentions, w.config, latency)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush implements Writer. Buffered rows go to a fresh part file; an empty
// buffer writes nothing.
func (w *ParquetWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.rows) == 0 {
		return nil
	}
	filename := fmt.Sprintf("predictions_%s_%d.parquet", w.config.RunID, time.Now().UnixNano())
	path := filepath.Join(w.dir, filename)
	if err := parquet.WriteFile(path, w.rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.rows = w.rows[:0]
	return nil
}

// Close implements Writer.
func (w *ParquetWriter) Close() error {
	return w.Flush()
}

// toRows renders linked mentions into the Parquet schema. The candidate
// distribution is carried as a JSON string column.
func toRows(mentions []types.LinkedMention, config Config, latency time.Duration) ([]Row, error) {
	now := time.Now().UTC()
	rows := make([]Row, 0, len(mentions))
	for _, m := range mentions {
		distJSON, err := json.Marshal(m.Prediction.Distribution)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal distribution: %w", err)
		}
		rows = append(rows, Row{
			RunID:        config.RunID,
			DocumentID:   m.DocumentID,
			SentenceID:   m.SentenceID,
			Mention:      m.Text,
			CharStart:    int64(m.Start),
			CharEnd:      int64(m.End),
			Tag:          m.Tag,
			NERScore:     m.Score,
			Prediction:   m.Prediction.ID,
			Confidence:   m.Prediction.Confidence,
			Distribution: string(distJSON),
			RankMethod:   config.RankMethod,
			LinkMethod:   config.LinkMethod,
			LatencyMS:    float64(latency.Microseconds()) / 1000.0,
			CreatedAt:    &now,
		})
	}
	return rows, nil
}
