package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ANSI color codes used by the text handler.
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// Format is "text" or "json".
	Format string
	// Output receives the log stream. Defaults to stderr.
	Output io.Writer
	// Color enables ANSI colors on the text format.
	Color bool
}

// NewDefaultLogger creates a colored text logger on stderr. Warnings render
// yellow, errors red, and completed pipeline milestones green.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Config{Level: level, Format: "text", Color: true})
}

// NewLogger creates a logger from the full configuration.
func NewLogger(config Config) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: config.Level}))
	}
	return slog.New(&textHandler{
		out:   out,
		level: config.Level,
		color: config.Color,
		mu:    &sync.Mutex{},
	})
}

// ParseLevel maps a config string to a slog level. Unknown strings fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// textHandler renders "time LEVEL message key=value" lines with optional
// level-based coloring.
type textHandler struct {
	out    io.Writer
	level  slog.Level
	color  bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// Enabled implements slog.Handler.
func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *textHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Time.Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", record.Level.String()))
	b.WriteString(" ")
	b.WriteString(record.Message)

	prefix := strings.Join(h.groups, ".")
	for _, attr := range h.attrs {
		writeAttr(&b, prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, prefix, attr)
		return true
	})
	b.WriteString("\n")

	line := b.String()
	if h.color {
		if c := h.lineColor(record); c != "" {
			line = c + strings.TrimSuffix(line, "\n") + colorReset + "\n"
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

// lineColor picks the color for a record: level first, then content.
// Completed pipeline milestones get the green treatment.
func (h *textHandler) lineColor(record slog.Record) string {
	switch {
	case record.Level >= slog.LevelError:
		return colorRed
	case record.Level >= slog.LevelWarn:
		return colorYellow
	case record.Level < slog.LevelInfo:
		return colorGray
	}
	msg := strings.ToLower(record.Message)
	if strings.Contains(msg, "linked") || strings.Contains(msg, "resolved") {
		return colorGreen
	}
	return ""
}

// WithAttrs implements slog.Handler.
func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, attr.Value.Resolve().Any())
}
