package toponimo

import (
	"fmt"
	"log/slog"

	engine "github.com/soundprediction/toponimo"
	"github.com/soundprediction/toponimo/pkg/config"
	"github.com/soundprediction/toponimo/pkg/embedding"
	"github.com/soundprediction/toponimo/pkg/gazetteer"
	"github.com/soundprediction/toponimo/pkg/kb"
	"github.com/soundprediction/toponimo/pkg/linking"
	"github.com/soundprediction/toponimo/pkg/ranking"
	"github.com/soundprediction/toponimo/pkg/recognizer"
	"github.com/soundprediction/toponimo/pkg/results"
	"github.com/soundprediction/toponimo/pkg/xref"
)

// buildPipeline assembles the engine from configuration. The returned
// cleanup releases every resource the assembly opened and is safe to call
// after a partial failure.
func buildPipeline(cfg *config.Config, log *slog.Logger, opts ...engine.Option) (*engine.Pipeline, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("cleanup failed", "error", err)
			}
		}
	}

	index, err := gazetteer.Load(cfg.Gazetteer.VariantsPath, cfg.Gazetteer.IdentifiersPath)
	if err != nil {
		return nil, cleanup, err
	}
	log.Info("gazetteer loaded",
		"variants", index.VariantCount(),
		"identifiers", index.IdentifierCount())
	if cfg.Gazetteer.FilterEnabled {
		index = index.Filter(cfg.Gazetteer.Filter)
		log.Info("gazetteer filtered",
			"variants", index.VariantCount(),
			"identifiers", index.IdentifierCount())
	}

	rankCfg := cfg.Ranking
	if rankCfg.Method == ranking.MethodEmbedding {
		embCfg := cfg.Embedding
		embCfg.Variants = index.Variants()
		matcher, err := embedding.NewMatcher(embCfg, log)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, matcher.Close)
		rankCfg.Embedder = matcher
	}
	if cfg.Cache.Dir != "" {
		store, err := ranking.OpenCandidateStore(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, store.Close)
		rankCfg.Store = store
	}
	ranker, err := ranking.NewRanker(index, rankCfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	linkCfg := cfg.Linking
	switch linkCfg.Method {
	case linking.MethodByDistance:
		coords, err := kb.NewStore(cfg.Coordinates)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, coords.Close)
		linkCfg.Coordinates = coords
	case linking.MethodDelegated:
		scorer, err := linking.NewHTTPScorer(cfg.Scorer, log)
		if err != nil {
			return nil, cleanup, err
		}
		var s linking.Scorer = scorer
		if cfg.CircuitBreaker.Enabled {
			s = linking.NewBreakerScorer(scorer, cfg.CircuitBreaker, log)
		}
		closers = append(closers, s.Close)
		linkCfg.Scorer = s

		crossref, err := xref.NewStore(cfg.CrossRef)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, crossref.Close)
		linkCfg.CrossRef = crossref
	}
	linker, err := linking.NewDisambiguator(linkCfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	rec, err := recognizer.NewRecognizer(cfg.Recognizer, log)
	if err != nil {
		return nil, cleanup, err
	}

	opts = append([]engine.Option{
		engine.WithRecognizer(rec),
		engine.WithLogger(log),
	}, opts...)
	pipeline, err := engine.NewPipeline(ranker, linker, opts...)
	if err != nil {
		rec.Close()
		return nil, cleanup, err
	}
	return pipeline, cleanup, nil
}

// buildWriter opens the configured results writer, tagged with the run.
func buildWriter(cfg config.ResultsConfig, meta results.Config) (results.Writer, error) {
	switch cfg.Format {
	case "parquet":
		return results.NewParquetWriter(cfg.Path, meta)
	case "jsonl":
		return results.NewJSONLFileWriter(cfg.Path, meta)
	default:
		return nil, fmt.Errorf("unknown results format %q", cfg.Format)
	}
}
