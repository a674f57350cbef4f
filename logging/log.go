package logging

import (
	"io"
	"os"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bnb-chain/keys-hub/config"
)

const module = "keys-hub"

var (
	// Logger is the process wide logger. It logs to stderr until InitLogger is called.
	Logger *logging.Logger

	format = logging.MustStringFormatter(
		`%{time:2006-01-02T15:04:05.000Z07:00} %{shortfile} %{level:.4s} %{message}`,
	)
)

func init() {
	Logger = logging.MustGetLogger(module)
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetBackend(logging.NewBackendFormatter(backend, format))
}

func InitLogger(cfg *config.LogConfig) {
	var backends []logging.Backend

	if cfg.UseConsoleLogger {
		backends = append(backends, newBackend(os.Stdout, cfg.Level))
	}

	if cfg.UseFileLogger {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxFileSizeInMB,
			MaxBackups: cfg.MaxBackupsOfLogFiles,
			MaxAge:     cfg.MaxAgeToRetainLogFilesInDays,
			Compress:   cfg.Compress,
		}
		backends = append(backends, newBackend(fileWriter, cfg.Level))
	}

	if len(backends) == 0 {
		backends = append(backends, newBackend(os.Stderr, cfg.Level))
	}
	logging.SetBackend(backends...)
}

func newBackend(w io.Writer, level string) logging.Backend {
	backend := logging.NewLogBackend(w, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}
	leveled.SetLevel(lvl, "")
	return leveled
}
