package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultTemplate is the commented starter config written by `config init`.
// Secrets are intentionally absent; they come from the environment
// (OPENAI_API_KEY, GEMINI_API_KEY, NEO4J_PASSWORD, TOPONIMO_*_API_KEY).
const defaultTemplate = `log:
  level: info # debug, info, warn, error
  format: text # text, json

gazetteer:
  variants_path: ./resources/mentions_to_wikidata.json
  identifiers_path: ./resources/wikidata_to_mentions.json
  filter_enabled: true
  filter:
    top_mentions: 3
    minimum_relevance: 0.03

recognizer:
  provider: service # service, gliner, rustbert, mock
  endpoint: http://localhost:8765
  timeout: 30s
  threshold: 0.5
  location_only: true

ranking:
  method: exact # exact, containment, editdistance, embedding
  min_score: 0.0

embedding:
  provider: local # service, openai, gemini, local, mock
  model: BAAI/bge-small-en-v1.5
  num_candidates: 3
  search_size: 3
  similarity_threshold: 10.0

linking:
  method: mostpopular # mostpopular, bydistance, delegated
  exponent: 2.0

scorer:
  endpoint: "" # required for delegated linking
  timeout: 60s

circuit_breaker:
  enabled: false
  max_requests: 1
  interval: 60
  timeout: 60
  ready_to_trip_ratio: 0.6

coordinates:
  provider: static # static, neo4j, ladybug
  path: ./resources/wikidata_to_coords.json

crossref:
  provider: memory # memory, sqlite
  path: ./resources/wikipedia_to_wikidata.json

cache:
  dir: "" # empty disables the persistent candidate store
  ttl: 0s

results:
  format: jsonl # jsonl, parquet
  path: ./predictions.jsonl
`

// DefaultTemplate returns the starter config document.
func DefaultTemplate() []byte {
	return []byte(defaultTemplate)
}

// WriteDefault writes the starter config to path, refusing to overwrite an
// existing file. The template is parsed first so a broken edit of it can
// never be shipped to users.
func WriteDefault(path string) error {
	var probe map[string]any
	if err := yaml.Unmarshal([]byte(defaultTemplate), &probe); err != nil {
		return fmt.Errorf("default config template is invalid: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
