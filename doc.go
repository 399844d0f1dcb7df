// Package toponimo resolves place-name mentions in text to knowledge-base
// identifiers.
//
// Toponimo is built for noisy, OCR-affected historical text: mentions
// recognized by an external model are matched against a large surface-form
// gazetteer (exact, containment, edit-distance or embedding retrieval) and
// the resulting candidates are disambiguated by frequency, geographic
// distance to the place of publication, or an externally trained scorer.
// Mentions with no suitable entry resolve to the NIL sentinel, never an
// error.
//
// # Basic Usage
//
// Load the gazetteer once, then build a ranker and a disambiguator:
//
//	index, err := gazetteer.Load("mentions_to_wikidata.json", "wikidata_to_mentions.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	index = index.Filter(gazetteer.DefaultFilterConfig())
//
//	ranker, err := ranking.NewRanker(index, ranking.Config{Method: ranking.MethodEditDistance}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	linker, err := linking.NewDisambiguator(linking.DefaultConfig(linking.MethodMostPopular), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Run the two halves directly:
//
//	sets, err := ranker.FindCandidates(ctx, mentions)
//	predictions, err := linker.PerformLinking(ctx, linking.Batch{Document: doc, Mentions: paired})
//
// or assemble a Pipeline, optionally with a recognition client for raw
// text:
//
//	rec, _ := recognizer.NewRecognizer(recognizer.DefaultConfig(recognizer.ProviderService), nil)
//	pipeline, _ := toponimo.NewPipeline(ranker, linker, toponimo.WithRecognizer(rec))
//	linked, err := pipeline.RunText(ctx, "A letter arrived from Lvndon.",
//		toponimo.WithPlaceOfPublication("London", "Q84"))
//
// The gazetteer index is read-only after load and safe to share; each
// Pipeline owns its ranking session and memo.
package toponimo
