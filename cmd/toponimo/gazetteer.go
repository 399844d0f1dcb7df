package toponimo

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/soundprediction/toponimo/pkg/config"
	"github.com/soundprediction/toponimo/pkg/gazetteer"
)

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer",
	Short: "Inspect and maintain the gazetteer resources",
}

var gazetteerFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter the gazetteer resources and re-emit them",
	Long: `Loads the configured gazetteer, applies qualifier, top-N and
relevance filtering, prints survival statistics and writes the filtered
resources next to the originals with a ".filtered.json" suffix (or to
--variants-out/--identifiers-out).`,
	Args: cobra.NoArgs,
	RunE: runGazetteerFilter,
}

func init() {
	gazetteerFilterCmd.Flags().String("variants-out", "", "output path for the filtered variant resource")
	gazetteerFilterCmd.Flags().String("identifiers-out", "", "output path for the filtered identifier resource")
	gazetteerCmd.AddCommand(gazetteerFilterCmd)
	rootCmd.AddCommand(gazetteerCmd)
}

func runGazetteerFilter(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log.Level)

	index, err := gazetteer.Load(cfg.Gazetteer.VariantsPath, cfg.Gazetteer.IdentifiersPath)
	if err != nil {
		return err
	}
	before := struct{ variants, ids int }{index.VariantCount(), index.IdentifierCount()}

	filtered := index.Filter(cfg.Gazetteer.Filter)
	log.Info("gazetteer filtered",
		"top_mentions", cfg.Gazetteer.Filter.TopMentions,
		"minimum_relevance", cfg.Gazetteer.Filter.MinimumRelevance,
		"variants_before", before.variants,
		"variants_after", filtered.VariantCount(),
		"identifiers_before", before.ids,
		"identifiers_after", filtered.IdentifierCount())

	variantsOut, _ := cmd.Flags().GetString("variants-out")
	if variantsOut == "" {
		variantsOut = cfg.Gazetteer.VariantsPath + ".filtered.json"
	}
	idsOut, _ := cmd.Flags().GetString("identifiers-out")
	if idsOut == "" {
		idsOut = cfg.Gazetteer.IdentifiersPath + ".filtered.json"
	}

	variants, ids := filtered.Counts()
	if err := writeJSON(variantsOut, variants); err != nil {
		return err
	}
	if err := writeJSON(idsOut, ids); err != nil {
		return err
	}
	log.Info("filtered resources written", "variants", variantsOut, "identifiers", idsOut)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}
