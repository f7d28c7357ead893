package logger_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iliesw/OptimaDB/logger"
)

func bufferedLogger(buf *bytes.Buffer, config logger.Config) logger.Interface {
	return logger.NewZerologLogger(zerolog.New(buf), config)
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := bufferedLogger(&buf, logger.Config{LogLevel: logger.Warn})

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log.Error(context.Background(), "also shown")
	assert.Contains(t, buf.String(), "also shown")
}

func TestLogMode(t *testing.T) {
	var buf bytes.Buffer
	log := bufferedLogger(&buf, logger.Config{LogLevel: logger.Info})

	silent := log.LogMode(logger.Silent)
	silent.Error(context.Background(), "dropped")
	assert.Empty(t, buf.String())

	// the original logger is untouched
	log.Info(context.Background(), "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	log := bufferedLogger(&buf, logger.Config{LogLevel: logger.Info})

	log.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "Users"`, 3
	}, nil)

	out := buf.String()
	assert.Contains(t, out, `SELECT * FROM \"Users\"`)
	assert.Contains(t, out, `"rows":3`)
}

func TestTraceSlowQuery(t *testing.T) {
	var buf bytes.Buffer
	log := bufferedLogger(&buf, logger.Config{
		LogLevel:      logger.Warn,
		SlowThreshold: time.Millisecond,
	})

	log.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	out := buf.String()
	assert.Contains(t, out, "slow_threshold")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestTraceIgnoreRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	log := bufferedLogger(&buf, logger.Config{
		LogLevel:                  logger.Error,
		IgnoreRecordNotFoundError: true,
	})

	log.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, logger.ErrRecordNotFound)
	assert.Empty(t, buf.String())
}

func TestZapAdapter(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	log := logger.NewZapLogger(zap.New(core), logger.Config{LogLevel: logger.Info})

	log.Warn(context.Background(), "heads up")
	assert.Contains(t, buf.String(), "heads up")

	buf.Reset()
	log.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestLogrusAdapter(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	log := logger.NewLogrusLogger(base, logger.Config{LogLevel: logger.Info})

	log.Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	silent := log.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Empty(t, buf.String())
}
