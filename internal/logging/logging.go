package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Init logs to stderr at the level named by LOG_LEVEL.
func Init() {
	Setup(os.Stderr)
}

// Setup installs the default logger writing to w.
func Setup(w io.Writer) {
	logger := slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: Level(),
		}),
	)
	slog.SetDefault(logger)
}

// Level reads LOG_LEVEL. Production only shows errors.
func Level() slog.Level {
	level := slog.LevelError

	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch l {
		case "dev", "development", "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error", "production", "prod":
			level = slog.LevelError
		}
	}
	return level
}

// ToFile redirects logging to LOG_FILE, or screenshare.log in the temp dir,
// while a full screen UI owns the terminal. The caller closes the returned
// file when done.
func ToFile() (*os.File, error) {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		path = filepath.Join(os.TempDir(), "screenshare.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	Setup(f)
	return f, nil
}
