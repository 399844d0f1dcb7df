package toponimo

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/toponimo/pkg/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "toponimo",
		Short: "Toponimo: place-name entity linking",
		Long: `Toponimo resolves place-name mentions in text to knowledge-base
identifiers. Mentions are matched against a surface-form gazetteer and
disambiguated by frequency, geographic distance to the place of
publication, or an externally trained scorer.

Complete documentation is available at https://github.com/soundprediction/toponimo`,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./toponimo.yaml or ~/.toponimo/toponimo.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// newLogger builds the CLI logger from the configured level.
func newLogger(level string) *slog.Logger {
	log := logger.NewDefaultLogger(logger.ParseLevel(level))
	slog.SetDefault(log)
	return log
}
