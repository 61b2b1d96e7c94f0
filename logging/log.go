package logging

import (
	"os"
	"strings"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bnb-chain/blob-store/config"
)

var (
	// Logger instance for quick declarative logging levels
	Logger = logging.MustGetLogger("blob-store")
	// log levels that are available
	levels = map[string]logging.Level{
		"CRITICAL": logging.CRITICAL,
		"ERROR":    logging.ERROR,
		"WARNING":  logging.WARNING,
		"NOTICE":   logging.NOTICE,
		"INFO":     logging.INFO,
		"DEBUG":    logging.DEBUG,
	}

	logFormat = logging.MustStringFormatter(`%{time:2006-01-02 15:04:05} %{level} %{shortfunc} %{message}`)
)

// InitLogger initialises the logger.
func InitLogger(cfg *config.LogConfig) {
	backends := make([]logging.Backend, 0)

	level, ok := levels[strings.ToUpper(cfg.Level)]
	if !ok {
		level = logging.INFO
	}

	if cfg.UseConsoleLogger {
		consoleLogger := logging.NewLogBackend(os.Stdout, "", 0)
		consoleFormatter := logging.NewBackendFormatter(consoleLogger, logFormat)
		consoleLoggerLeveled := logging.AddModuleLevel(consoleFormatter)
		consoleLoggerLeveled.SetLevel(level, "")
		backends = append(backends, consoleLoggerLeveled)
	}

	if cfg.UseFileLogger {
		fileLogger := logging.NewLogBackend(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxFileSizeInMB,              // MaxSize is the maximum size in megabytes of the log file
			MaxBackups: cfg.MaxBackupsOfLogFiles,         // MaxBackups is the maximum number of old log files to retain
			MaxAge:     cfg.MaxAgeToRetainLogFilesInDays, // MaxAge is the maximum number of days to retain old log files
			Compress:   cfg.Compress,
		}, "", 0)
		fileFormatter := logging.NewBackendFormatter(fileLogger, logFormat)
		fileLoggerLeveled := logging.AddModuleLevel(fileFormatter)
		fileLoggerLeveled.SetLevel(level, "")
		backends = append(backends, fileLoggerLeveled)
	}

	if len(backends) == 0 {
		return
	}
	logging.SetBackend(backends...)
}
