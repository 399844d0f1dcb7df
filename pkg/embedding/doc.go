/*
Package embedding provides vector-space candidate retrieval for place-name
mentions.

An embedding matcher maps mention surface forms into a learned vector space
and returns the nearest gazetteer variants with similarity scores, shaped
exactly like the string-matching strategies so downstream ranking stays
strategy-agnostic.

# Providers

This package provides several implementations behind one Provider
enumeration:

  - ProviderService calls a dedicated candidate-ranking HTTP service that
    owns the vector model and the approximate nearest-neighbor index. This
    is the production deployment.
  - ProviderOpenAI and ProviderGemini embed mentions and the gazetteer
    vocabulary through the respective embeddings API and rank by cosine
    similarity in-process.
  - ProviderLocal does the same with the in-process embed-everything model.
  - ProviderMock returns deterministic scores for testing.

# Factory Function

The NewMatcher function creates matchers based on provider type:

	matcher, err := embedding.NewMatcher(embedding.Config{
		Provider: embedding.ProviderService,
		Endpoint: "http://localhost:8100",
	}, logger)

	scores, err := matcher.Rank(ctx, []string{"Lvndon"})

# Caching

NewCachedMatcher wraps any provider with a TTL cache keyed by content hash
and single-flight deduplication of concurrent identical lookups:

	cached := embedding.NewCachedMatcher(matcher, 10*time.Minute, logger)
	defer cached.Close()

	stats := cached.Stats() // hits, misses, single-flight hits
*/
package embedding
