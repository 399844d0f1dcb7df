package toponimo

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	engine "github.com/soundprediction/toponimo"
	"github.com/soundprediction/toponimo/pkg/config"
	"github.com/soundprediction/toponimo/pkg/results"
	"github.com/soundprediction/toponimo/pkg/types"
)

var linkCmd = &cobra.Command{
	Use:   "link [input.jsonl]",
	Short: "Link the place-name mentions of a document batch",
	Long: `Reads documents as JSON lines (one Document per line, or a bare
object with "text" and optional "place"/"place_wqid" fields), runs
recognition, candidate ranking and disambiguation over each, and writes one
prediction row per mention. Reads stdin when no input file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().String("output", "", "output path (overrides results.path)")
	linkCmd.Flags().String("format", "", "output format: jsonl or parquet (overrides results.format)")
	viper.BindPFlag("results.path", linkCmd.Flags().Lookup("output"))
	viper.BindPFlag("results.format", linkCmd.Flags().Lookup("format"))
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg.Log.Level)

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("unable to open input %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}
	docs, err := readDocuments(in)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to process")
	}

	runID := uuid.NewString()
	writer, err := buildWriter(cfg.Results, results.Config{
		RunID:      runID,
		RankMethod: string(cfg.Ranking.Method),
		LinkMethod: string(cfg.Linking.Method),
	})
	if err != nil {
		return err
	}

	pipeline, cleanup, err := buildPipeline(cfg, log,
		engine.WithRunID(runID),
		engine.WithResultsWriter(writer))
	if err != nil {
		writer.Close()
		return err
	}
	defer cleanup()
	defer pipeline.Close()

	linked, failed := 0, 0
	for _, res := range pipeline.RunDocuments(cmd.Context(), docs) {
		if res.Err != nil {
			failed++
			continue
		}
		linked += len(res.Mentions)
	}
	log.Info("link run finished",
		"run_id", runID,
		"documents", len(docs),
		"failed", failed,
		"mentions", linked,
		"output", cfg.Results.Path)
	if failed == len(docs) {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}

// inputRow is one JSON line of the link input: either a full Document or a
// bare text row.
type inputRow struct {
	types.Document
	Text string `json:"text"`
}

// readDocuments decodes one document per line. Bare text rows are split
// into sentences; malformed lines abort with the line number.
func readDocuments(in io.Reader) ([]types.Document, error) {
	var docs []types.Document
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var row inputRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("input line %d: %w", line, err)
		}
		doc := row.Document
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("%d", line)
		}
		if len(doc.Sentences) == 0 && row.Text != "" {
			for i, sentence := range engine.SplitSentences(row.Text) {
				doc.Sentences = append(doc.Sentences, types.Sentence{
					ID:   fmt.Sprintf("%d", i),
					Text: sentence,
				})
			}
		}
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("input line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return docs, nil
}
