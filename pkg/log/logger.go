package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Category string

const (
	Application   Category = "application"
	DiscordEvents Category = "discord"
	Commands      Category = "commands"
)

// Config controls where log lines go. The zero value logs info and above to stdout.
type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Output overrides the console writer (stdout by default).
	Output io.Writer
}

var (
	mu           sync.RWMutex
	GlobalLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	fileSink     *lumberjack.Logger
)

// SetupLogger installs the global logger. It may be called again to reconfigure;
// a previously opened log file is closed.
func SetupLogger(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var sink *lumberjack.Logger
	if cfg.File != "" {
		sink = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(out, sink)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	mu.Lock()
	prev := fileSink
	GlobalLogger = logger
	fileSink = sink
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
	return nil
}

// Sync closes the rotated file sink, if any.
func Sync() {
	mu.Lock()
	sink := fileSink
	fileSink = nil
	mu.Unlock()
	if sink != nil {
		_ = sink.Close()
	}
}

// ParseLevel maps LOG_LEVEL values onto slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func For(category Category) *slog.Logger {
	mu.RLock()
	l := GlobalLogger
	mu.RUnlock()
	return l.With("category", string(category))
}

func ApplicationLogger() *slog.Logger { return For(Application) }
func DiscordLogger() *slog.Logger     { return For(DiscordEvents) }
func CommandLogger() *slog.Logger     { return For(Commands) }
