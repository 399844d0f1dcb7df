package main

import (
	"log/slog"

	"github.com/soundprediction/toponimo/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Toponimo Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - gray")
	log.Info("Info message - standard color")
	log.Info("Document linked - green!")
	log.Info("Mention resolved - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Pipeline milestones are highlighted in green:")
	log.Info("Document linked", "document_id", "doc-42", "mentions", 7, "duration", "120ms")
	log.Info("Mention resolved", "mention", "Lvndon", "id", "Q84", "confidence", 0.9896)
	log.Warn("Scorer response repaired", "document_id", "doc-42")
	log.Info("")
	log.Info("Demo complete")
}
