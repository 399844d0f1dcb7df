package linking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/soundprediction/toponimo/pkg/types"
	"github.com/soundprediction/toponimo/pkg/xref"
)

// publicationSentenceID keys the synthetic sentence that carries the place
// of publication into the scorer. Predictions returned for it are context
// only and are discarded on the way back.
const publicationSentenceID = "#publication"

// publicationPrefix is ASCII, so its byte length is also the character
// offset of the place name in the synthetic sentence.
const publicationPrefix = "This article is published in "

// Delegated defers the linking decision to an externally trained scorer.
// It adapts mentions into the scorer's sentence-keyed batch format, ranks
// the candidates it forwards, and maps the scorer's label predictions back
// into identifier space through the cross-reference store.
type Delegated struct {
	scorer   Scorer
	crossRef xref.Store
	logger   *slog.Logger
}

// NewDelegated builds the delegated strategy around config.Scorer and
// config.CrossRef.
func NewDelegated(config Config, logger *slog.Logger) *Delegated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delegated{
		scorer:   config.Scorer,
		crossRef: config.CrossRef,
		logger:   logger,
	}
}

// Method implements Disambiguator.
func (d *Delegated) Method() Method { return MethodDelegated }

// PerformLinking implements Disambiguator. The whole document goes to the
// scorer as one batch; a scorer failure fails this document only, tagged
// with its id.
func (d *Delegated) PerformLinking(ctx context.Context, batch Batch) ([]types.Prediction, error) {
	if len(batch.Mentions) == 0 {
		return []types.Prediction{}, nil
	}

	request := d.buildRequest(batch)
	response, err := d.scorer.Predict(ctx, request)
	if err != nil {
		return nil, wrapModelError(batch.Document.ID, err)
	}
	return d.join(ctx, batch, request, response)
}

// buildRequest groups the batch's mentions by sentence id and renders each
// as a scorer row with its sentence context and ranked candidates. When the
// document carries publication metadata a synthetic sentence is appended so
// the scorer sees the publication place as document-level context.
func (d *Delegated) buildRequest(batch Batch) map[string][]ScorerMention {
	contexts := sentenceContexts(batch.Document.Sentences)
	request := make(map[string][]ScorerMention)
	for _, mc := range batch.Mentions {
		m := mc.Mention
		sctx := contexts[m.SentenceID]
		request[m.SentenceID] = append(request[m.SentenceID], ScorerMention{
			Mention:     m.Text,
			Ngram:       m.Text,
			Context:     [2]string{sctx.prev, sctx.next},
			Candidates:  rankCandidates(mc.Candidates),
			Gold:        []string{"NONE"},
			Position:    m.Start,
			EndPosition: m.End,
			Tag:         m.Tag,
			NERScore:    m.Score,
			Sentence:    sctx.text,
			Place:       batch.Document.Place,
			PlaceID:     batch.Document.PlaceID,
		})
	}
	if batch.Document.Place != "" && batch.Document.PlaceID != "" {
		request[publicationSentenceID] = []ScorerMention{publicationMention(batch.Document)}
	}
	return request
}

// join maps the scorer's predictions back onto the batch's mentions by
// (sentence id, span start). Every mention must be answered exactly once.
func (d *Delegated) join(ctx context.Context, batch Batch, request map[string][]ScorerMention, response map[string][]ScorerPrediction) ([]types.Prediction, error) {
	for sid, rows := range request {
		if sid == publicationSentenceID {
			continue
		}
		if got := len(response[sid]); got != len(rows) {
			return nil, types.NewExternalModelError(batch.Document.ID,
				fmt.Errorf("scorer returned %d predictions for sentence %q, want %d", got, sid, len(rows)))
		}
	}

	type span struct {
		sentence string
		start    int
	}
	bySpan := make(map[span]ScorerPrediction)
	for sid, preds := range response {
		if sid == publicationSentenceID {
			continue
		}
		for _, p := range preds {
			bySpan[span{sid, p.Position}] = p
		}
	}

	predictions := make([]types.Prediction, len(batch.Mentions))
	for i, mc := range batch.Mentions {
		m := mc.Mention
		p, ok := bySpan[span{m.SentenceID, m.Start}]
		if !ok {
			return nil, types.NewExternalModelError(batch.Document.ID,
				fmt.Errorf("scorer returned no prediction for mention %q at %q:%d", m.Text, m.SentenceID, m.Start))
		}
		prediction, err := d.resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		predictions[i] = prediction
	}
	return predictions, nil
}

// resolve maps one scorer prediction back into identifier space. Labels the
// cross-reference store cannot map, and the scorer's own no-entity outputs,
// become NIL; distribution entries with unmapped labels are dropped.
func (d *Delegated) resolve(ctx context.Context, p ScorerPrediction) (types.Prediction, error) {
	prediction := types.NilPrediction()
	if label := p.Prediction; label != "" && label != types.NIL && label != "NONE" {
		id, ok, err := d.crossRef.Lookup(ctx, label)
		if err != nil {
			return types.Prediction{}, err
		}
		if ok {
			prediction.ID = id
			prediction.Confidence = clamp01(p.Confidence)
		} else {
			d.logger.Debug("scorer label has no identifier mapping", "label", label)
		}
	}
	for _, c := range p.Candidates {
		id, ok, err := d.crossRef.Lookup(ctx, c.Label)
		if err != nil {
			return types.Prediction{}, err
		}
		if !ok {
			continue
		}
		prediction.Distribution = append(prediction.Distribution, types.Weight{ID: id, Value: c.Score})
	}
	return prediction, nil
}

// rankCandidates flattens a candidate set into the scorer's [label, score]
// rows, one per (variant, candidate) pair. Each pair scores the average of
// the candidate's share of the set's maximum raw count and the mean of its
// relevance and the variant's match score, damped by 0.9 and rounded to
// three decimals. Rows sort by descending score with descending label as
// the tiebreaker.
func rankCandidates(set types.CandidateSet) []ScorerCandidate {
	type pair struct {
		id    string
		count int64
		s2    float64
	}
	var (
		pairs    []pair
		maxCount int64
	)
	for _, v := range set.Variants {
		for _, c := range v.Candidates {
			if c.Count > maxCount {
				maxCount = c.Count
			}
			s2 := c.Relevance
			if v.Score > 0 {
				s2 = (c.Relevance + v.Score) / 2
			}
			pairs = append(pairs, pair{id: c.ID, count: c.Count, s2: s2})
		}
	}

	ranked := make([]ScorerCandidate, 0, len(pairs))
	for _, p := range pairs {
		score := p.s2
		if maxCount > 0 {
			score = (float64(p.count)/float64(maxCount) + p.s2) / 2
		}
		ranked = append(ranked, ScorerCandidate{Label: p.id, Score: round3(score * 0.9)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Label > ranked[j].Label
	})
	return ranked
}

// publicationMention renders the document's place of publication as a
// scorer row over a synthetic sentence, with the place identifier as its
// only candidate.
func publicationMention(doc types.Document) ScorerMention {
	sentence := publicationPrefix + doc.Place + "."
	start := len(publicationPrefix)
	return ScorerMention{
		Mention:     doc.Place,
		Ngram:       doc.Place,
		Context:     [2]string{"", ""},
		Candidates:  []ScorerCandidate{{Label: doc.PlaceID, Score: 1.0}},
		Gold:        []string{"NONE"},
		Position:    start,
		EndPosition: start + utf8.RuneCountInString(doc.Place),
		Tag:         "LOC",
		NERScore:    1.0,
		Sentence:    sentence,
		Place:       doc.Place,
		PlaceID:     doc.PlaceID,
	}
}

type sentenceContext struct {
	prev string
	text string
	next string
}

// sentenceContexts indexes each sentence with its neighbours in document
// order.
func sentenceContexts(sentences []types.Sentence) map[string]sentenceContext {
	contexts := make(map[string]sentenceContext, len(sentences))
	for i, s := range sentences {
		sctx := sentenceContext{text: s.Text}
		if i > 0 {
			sctx.prev = sentences[i-1].Text
		}
		if i < len(sentences)-1 {
			sctx.next = sentences[i+1].Text
		}
		contexts[s.ID] = sctx
	}
	return contexts
}

// wrapModelError tags err with the document id, rewrapping an inner
// untagged model error instead of nesting two of them.
func wrapModelError(documentID string, err error) error {
	var modelErr *types.ExternalModelError
	if errors.As(err, &modelErr) && modelErr.DocumentID == "" {
		return types.NewExternalModelError(documentID, modelErr.Err)
	}
	return types.NewExternalModelError(documentID, err)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
