package logging

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestFromContextReturnsStoredEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	entry := logger.WithField("request_id", "abc")

	ctx := WithEntry(context.Background(), entry)
	FromContext(ctx, nil).Info("hello")

	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, "abc", hook.LastEntry().Data["request_id"])
	}
}

func TestFromContextFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()

	FromContext(context.Background(), logger).Warn("fallback")

	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Empty(t, hook.LastEntry().Data)
	}
}

func TestNewParsesLevelAndFormat(t *testing.T) {
	logger := New("debug", "json")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = New("not-a-level", "text")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
