package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/toponimo/pkg/gazetteer"
	"github.com/soundprediction/toponimo/pkg/types"
)

// EmbeddingMatcher retrieves gazetteer variants for surface forms from a
// vector-space index. The result maps each requested form to its matched
// variants and their retrieval scores.
type EmbeddingMatcher interface {
	Rank(ctx context.Context, mentions []string) (map[string]map[string]float64, error)
}

// Config controls candidate generation.
type Config struct {
	// Method selects the matching strategy.
	Method Method `json:"method" mapstructure:"method"`

	// MinScore drops variant matches scoring below it before the top
	// score group is selected. Zero disables the floor.
	MinScore float64 `json:"min_score" mapstructure:"min_score"`

	// Embedder serves MethodEmbedding retrieval. Required for that
	// method, ignored otherwise.
	Embedder EmbeddingMatcher `json:"-" mapstructure:"-"`

	// Store persists match results across sessions. Optional.
	Store *CandidateStore `json:"-" mapstructure:"-"`
}

// DefaultConfig returns a Config using exact matching with no score floor.
func DefaultConfig() Config {
	return Config{Method: MethodExact}
}

// Validate checks the configuration for the selected method.
func (c Config) Validate() error {
	if !c.Method.Valid() {
		return types.NewInputShapeError("a known ranking method", string(c.Method))
	}
	if c.Method == MethodEmbedding && c.Embedder == nil {
		return fmt.Errorf("ranking: embedding method requires an embedding matcher")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("ranking: min_score must be in [0, 1], got %v", c.MinScore)
	}
	return nil
}

// Ranker maps mention surface forms to ranked gazetteer candidates using
// a single matching strategy fixed at construction.
//
// FindCandidates is safe for concurrent use; calls are serialized so the
// session memo observes each distinct surface form at most once.
type Ranker struct {
	config  Config
	index   *gazetteer.Index
	matcher StringMatcher
	logger  *slog.Logger

	mu           sync.Mutex
	memo         map[string]map[string]float64
	computations int64
}

// NewRanker creates a Ranker over the given gazetteer index. The index
// may be nil at construction; FindCandidates then fails with ErrNotLoaded
// until a loaded Ranker replaces it.
func NewRanker(index *gazetteer.Index, config Config, logger *slog.Logger) (*Ranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Ranker{
		config: config,
		index:  index,
		logger: logger,
		memo:   make(map[string]map[string]float64),
	}
	if config.Method != MethodEmbedding {
		matcher, err := NewStringMatcher(config.Method)
		if err != nil {
			return nil, err
		}
		r.matcher = matcher
	}
	return r, nil
}

// Method returns the matching strategy the Ranker was built with.
func (r *Ranker) Method() Method {
	return r.config.Method
}

// Computations reports how many surface forms have been matched since
// construction. Memo and store hits do not count, which makes the
// at-most-once guarantee for repeated mentions observable.
func (r *Ranker) Computations() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.computations
}

// Normalize collapses interior whitespace runs and trims the ends of a
// surface form. FindCandidates keys its results by the normalized form.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FindCandidates resolves every mention to a CandidateSet keyed by the
// mention's normalized surface form. Mentions sharing a surface form are
// matched once per session; later batches reuse the memoized scores.
func (r *Ranker) FindCandidates(ctx context.Context, mentions []types.Mention) (map[string]types.CandidateSet, error) {
	if r.index == nil {
		return nil, types.ErrNotLoaded
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]string, 0, len(mentions))
	seen := make(map[string]struct{}, len(mentions))
	for _, m := range mentions {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[m.Text]; ok {
			continue
		}
		seen[m.Text] = struct{}{}
		pending = append(pending, m.Text)
	}

	var remote []string
	remoteRaw := make(map[string][]string)
	for _, raw := range pending {
		if _, ok := r.memo[raw]; ok {
			continue
		}
		if scores, ok := r.storeLookup(raw); ok {
			r.memo[raw] = scores
			continue
		}
		normalized := Normalize(raw)
		if r.index.Contains(normalized) {
			r.remember(raw, map[string]float64{normalized: 1.0})
			continue
		}
		switch r.config.Method {
		case MethodExact:
			r.remember(raw, map[string]float64{})
		case MethodEmbedding:
			if len(remoteRaw[normalized]) == 0 {
				remote = append(remote, normalized)
			}
			remoteRaw[normalized] = append(remoteRaw[normalized], raw)
		default:
			scores, err := r.scoreVariants(normalized)
			if err != nil {
				return nil, err
			}
			r.remember(raw, scores)
		}
	}

	if len(remote) > 0 {
		matched, err := r.config.Embedder.Rank(ctx, remote)
		if err != nil {
			return nil, err
		}
		for _, normalized := range remote {
			scores := matched[normalized]
			if scores == nil {
				scores = map[string]float64{}
			}
			for _, raw := range remoteRaw[normalized] {
				r.remember(raw, scores)
			}
		}
	}

	out := make(map[string]types.CandidateSet, len(pending))
	for _, raw := range pending {
		normalized := Normalize(raw)
		if _, ok := out[normalized]; ok {
			continue
		}
		out[normalized] = r.buildSet(normalized, r.memo[raw])
	}
	return out, nil
}

// scoreVariants runs the pairwise matcher over every gazetteer variant
// and keeps the top distinct score group.
func (r *Ranker) scoreVariants(query string) (map[string]float64, error) {
	best := math.Inf(-1)
	top := make(map[string]float64)
	for _, variant := range r.index.Variants() {
		score, ok, err := r.matcher.Score(query, Target{Variant: variant})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if r.config.MinScore > 0 && score < r.config.MinScore {
			continue
		}
		switch {
		case score > best:
			best = score
			top = map[string]float64{variant: score}
		case score == best:
			top[variant] = score
		}
	}
	return top, nil
}

// remember memoizes freshly computed scores and writes them through to
// the persistent store when one is configured.
func (r *Ranker) remember(raw string, scores map[string]float64) {
	r.memo[raw] = scores
	r.computations++
	if r.config.Store == nil {
		return
	}
	if err := r.config.Store.Put(r.config.Method, raw, scores); err != nil {
		r.logger.Warn("candidate store write failed", "surface", raw, "error", err)
	}
}

// storeLookup consults the persistent store. Store failures degrade to a
// miss so that ranking never fails on cache trouble.
func (r *Ranker) storeLookup(raw string) (map[string]float64, bool) {
	if r.config.Store == nil {
		return nil, false
	}
	scores, ok, err := r.config.Store.Get(r.config.Method, raw)
	if err != nil {
		r.logger.Warn("candidate store read failed", "surface", raw, "error", err)
		return nil, false
	}
	return scores, ok
}

// buildSet resolves matched variants against the gazetteer and orders
// them by match score, then variant name.
func (r *Ranker) buildSet(mention string, scores map[string]float64) types.CandidateSet {
	set := types.CandidateSet{Mention: mention}
	for variant, score := range scores {
		candidates, ok := r.index.Candidates(variant)
		if !ok || len(candidates) == 0 {
			continue
		}
		set.Variants = append(set.Variants, types.VariantCandidates{
			Variant:    variant,
			Score:      score,
			Candidates: candidates,
		})
	}
	sort.Slice(set.Variants, func(i, j int) bool {
		if set.Variants[i].Score != set.Variants[j].Score {
			return set.Variants[i].Score > set.Variants[j].Score
		}
		return set.Variants[i].Variant < set.Variants[j].Variant
	})
	return set
}
