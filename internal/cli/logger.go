package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/logging"
)

// logFileWriter is kept for CloseLogFile.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup

var zerologConfigOnce sync.Once //nolint:gochecknoglobals // One-time configuration

var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// configureZerologGlobals renames the timestamp and message fields once.
func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})
}

// InitLogger creates the process logger.
//
// Levels: verbose selects debug, quiet selects warn, info otherwise. On a
// TTY without NO_COLOR the console gets a human-readable writer; otherwise
// JSON goes to stderr. Every entry is also written to a rotating file in
// LogDir(logDir); when that file cannot be opened the logger stays
// console-only.
func InitLogger(verbose, quiet bool, logDir string) zerolog.Logger {
	configureZerologGlobals()

	writer := selectOutput()
	if fileWriter, err := createLogFileWriter(LogDir(logDir)); err == nil {
		logFileWriter = fileWriter
		writer = zerolog.MultiLevelWriter(writer, fileWriter)
	}

	logger := zerolog.New(writer).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()
	setGlobalLogger(logger)
	return logger
}

// InitLoggerWithWriter creates a logger writing to w only. Used by tests.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	configureZerologGlobals()

	logger := zerolog.New(w).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()
	setGlobalLogger(logger)
	return logger
}

func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// CloseLogFile closes the log file writer if it was opened.
func CloseLogFile() {
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.TimeOnly,
		}
	}
	return os.Stderr
}

// filteringWriteCloser redacts sensitive values before they reach disk.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

func createLogFileWriter(dir string) (io.WriteCloser, error) {
	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.LogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// LogDir resolves the log directory: the explicit value, then
// $INJECTEUR_HOME/logs, then {OUTPUT_PATH}/logs, then ~/.injecteur/logs.
func LogDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if home := os.Getenv(constants.EnvInjecteurHome); home != "" {
		return filepath.Join(home, constants.LogsDir)
	}
	if output := os.Getenv(constants.EnvOutputPath); output != "" {
		return filepath.Join(output, constants.LogsDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, constants.InjecteurHome, constants.LogsDir)
	}
	return filepath.Join(os.TempDir(), constants.InjecteurHome, constants.LogsDir)
}
