package toponimo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/toponimo/pkg/linking"
	"github.com/soundprediction/toponimo/pkg/ranking"
	"github.com/soundprediction/toponimo/pkg/recognizer"
	"github.com/soundprediction/toponimo/pkg/results"
	"github.com/soundprediction/toponimo/pkg/types"
)

// Pipeline ties the engine together: mention recognition (optional),
// candidate ranking and disambiguation, producing one LinkedMention per
// recognized mention.
//
// The ranker and disambiguator are fixed at construction; a Pipeline is one
// ranking session, so repeated surface forms across documents reuse the
// session memo.
type Pipeline struct {
	ranker *ranking.Ranker
	linker linking.Disambiguator

	recognizer recognizer.Recognizer
	writer     results.Writer
	logger     *slog.Logger
	runID      string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecognizer supplies the mention recognition client used when the
// caller passes raw text instead of pre-recognized mentions.
func WithRecognizer(r recognizer.Recognizer) Option {
	return func(p *Pipeline) { p.recognizer = r }
}

// WithResultsWriter records every processed document's linked mentions.
func WithResultsWriter(w results.Writer) Option {
	return func(p *Pipeline) { p.writer = w }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithRunID overrides the generated run identifier, letting callers tag the
// pipeline and an externally built results writer with the same run.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

// NewPipeline creates a Pipeline over a constructed ranker and
// disambiguator. Each pipeline owns a run identifier that tags its log
// lines and result rows.
func NewPipeline(ranker *ranking.Ranker, linker linking.Disambiguator, opts ...Option) (*Pipeline, error) {
	if ranker == nil {
		return nil, types.NewInputShapeError("candidate ranker", "nil")
	}
	if linker == nil {
		return nil, types.NewInputShapeError("disambiguator", "nil")
	}
	p := &Pipeline{
		ranker: ranker,
		linker: linker,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("run_id", p.runID)
	p.logger.Info("pipeline created",
		"rank_method", ranker.Method(),
		"link_method", linker.Method())
	return p, nil
}

// RunID returns the identifier tagging this pipeline's output.
func (p *Pipeline) RunID() string {
	return p.runID
}

// RunOption carries per-run metadata.
type RunOption func(*types.Document)

// WithPlaceOfPublication attaches the document's place of publication,
// which the distance and delegated strategies use as geographic context.
func WithPlaceOfPublication(name, id string) RunOption {
	return func(d *types.Document) {
		d.Place = name
		d.PlaceID = id
	}
}

// RunCandidateSelection exposes the ranking half of the pipeline: mentions
// in, candidate sets keyed by normalized surface form out.
func (p *Pipeline) RunCandidateSelection(ctx context.Context, mentions []types.Mention) (map[string]types.CandidateSet, error) {
	return p.ranker.FindCandidates(ctx, mentions)
}

// RunDisambiguation exposes the linking half of the pipeline.
func (p *Pipeline) RunDisambiguation(ctx context.Context, batch linking.Batch) ([]types.Prediction, error) {
	return p.linker.PerformLinking(ctx, batch)
}

// Link resolves externally recognized mentions against the document they
// were found in. Mentions must carry the SentenceID of the sentence they
// belong to. The returned rows are aligned with the input mentions.
func (p *Pipeline) Link(ctx context.Context, doc types.Document, mentions []types.Mention) ([]types.LinkedMention, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	sets, err := p.ranker.FindCandidates(ctx, mentions)
	if err != nil {
		return nil, err
	}

	batch := linking.Batch{Document: doc, Mentions: make([]linking.MentionCandidates, 0, len(mentions))}
	for _, m := range mentions {
		batch.Mentions = append(batch.Mentions, linking.MentionCandidates{
			Mention:    m,
			Candidates: sets[ranking.Normalize(m.Text)],
		})
	}

	predictions, err := p.linker.PerformLinking(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(predictions) != len(mentions) {
		// A misaligned join silently attaches predictions to the wrong
		// rows; refuse instead.
		return nil, types.NewExternalModelError(doc.ID,
			fmt.Errorf("prediction count mismatch: %d mentions, %d predictions", len(mentions), len(predictions)))
	}

	linked := make([]types.LinkedMention, len(mentions))
	for i, m := range mentions {
		linked[i] = types.LinkedMention{
			Mention:    m,
			DocumentID: doc.ID,
			Candidates: sets[ranking.Normalize(m.Text)],
			Prediction: predictions[i],
		}
	}

	if p.writer != nil {
		if err := p.writer.Append(linked, time.Since(start)); err != nil {
			p.logger.Warn("results write failed", "document_id", doc.ID, "error", err)
		}
	}
	p.logger.Debug("document linked",
		"document_id", doc.ID,
		"mentions", len(mentions),
		"duration", time.Since(start))
	return linked, nil
}

// RunDocument recognizes and links the mentions of one document. Requires a
// recognizer.
func (p *Pipeline) RunDocument(ctx context.Context, doc types.Document) ([]types.LinkedMention, error) {
	if p.recognizer == nil {
		return nil, types.NewInputShapeError("pre-recognized mentions or a pipeline recognizer", "raw document without recognizer")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var mentions []types.Mention
	for _, sentence := range doc.Sentences {
		found, err := p.recognizer.Recognize(ctx, sentence.Text)
		if err != nil {
			return nil, types.NewExternalModelError(doc.ID, err)
		}
		for _, m := range found {
			m.SentenceID = sentence.ID
			mentions = append(mentions, m)
		}
	}
	return p.Link(ctx, doc, mentions)
}

// RunText splits raw text into sentences and runs the document pipeline
// over them under a fresh document identifier.
func (p *Pipeline) RunText(ctx context.Context, text string, opts ...RunOption) ([]types.LinkedMention, error) {
	doc := types.Document{ID: uuid.NewString()}
	for i, sentence := range SplitSentences(text) {
		doc.Sentences = append(doc.Sentences, types.Sentence{
			ID:   fmt.Sprintf("%d", i),
			Text: sentence,
		})
	}
	for _, opt := range opts {
		opt(&doc)
	}
	return p.RunDocument(ctx, doc)
}

// RunSentence runs the pipeline over a single sentence.
func (p *Pipeline) RunSentence(ctx context.Context, sentence string, opts ...RunOption) ([]types.LinkedMention, error) {
	doc := types.Document{
		ID:        uuid.NewString(),
		Sentences: []types.Sentence{{ID: "0", Text: sentence}},
	}
	for _, opt := range opts {
		opt(&doc)
	}
	return p.RunDocument(ctx, doc)
}

// DocumentResult is the outcome of one document in a batch run.
type DocumentResult struct {
	DocumentID string
	Mentions   []types.LinkedMention
	Err        error
}

// RunDocuments processes documents sequentially. A failing document is
// recorded in its result and does not disturb documents already processed
// or still to come.
func (p *Pipeline) RunDocuments(ctx context.Context, docs []types.Document) []DocumentResult {
	out := make([]DocumentResult, 0, len(docs))
	failed := 0
	for _, doc := range docs {
		linked, err := p.RunDocument(ctx, doc)
		if err != nil {
			failed++
			p.logger.Warn("document failed", "document_id", doc.ID, "error", err)
		}
		out = append(out, DocumentResult{DocumentID: doc.ID, Mentions: linked, Err: err})
	}
	p.logger.Info("batch done", "documents", len(docs), "failed", failed)
	return out
}

// Close flushes the results writer and releases the recognizer.
func (p *Pipeline) Close() error {
	var errs []error
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.recognizer != nil {
		if err := p.recognizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pipeline close: %v", errs)
	}
	return nil
}

// SplitSentences performs a naive sentence split on terminal punctuation
// followed by whitespace. Good enough for feeding the recognizer, which
// works sentence by sentence; callers with a real sentence segmenter should
// build Documents themselves.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			next := i + 1
			for next < len(runes) && (runes[next] == '"' || runes[next] == '\'' || runes[next] == ')') {
				b.WriteRune(runes[next])
				next++
			}
			i = next - 1
			if next >= len(runes) || runes[next] == ' ' || runes[next] == '\n' || runes[next] == '\t' {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
