package logger

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Log is the process-wide structured logger.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// SetLevel parses level ("debug", "info", "warn", ...) and applies it.
// Unknown levels keep the current one.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("unknown log level, keeping " + Log.GetLevel().String())
		return
	}
	Log.SetLevel(lvl)
}

// WithSource returns an entry tagged with the component that emits it.
func WithSource(source string) *logrus.Entry {
	return Log.WithField("source", source)
}

// GormLogger adapts the structured logger to GORM's logger interface.
func GormLogger() gormlogger.Interface {
	return &gormLogger{level: gormlogger.Warn, slowThreshold: 200 * time.Millisecond}
}

type gormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		WithSource("gorm").WithField("data", data).Info(msg)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		WithSource("gorm").WithField("data", data).Warn(msg)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		WithSource("gorm").WithField("data", data).Error(msg)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := WithSource("gorm").WithFields(logrus.Fields{
		"elapsed": elapsed.String(),
		"sql":     sql,
		"rows":    rows,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithError(err).Error("SQL query error")
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		entry.Warn("slow SQL query")
	case l.level >= gormlogger.Info:
		entry.Debug("SQL query executed")
	}
}
