package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	err   error
	calls int
}

func (f *fakeTx) Rollback() error {
	f.calls++
	return f.err
}

func TestRollbackAfterPanic(t *testing.T) {
	t.Run("logs failed rollback", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		db := &DB{logger: logger}
		tx := &fakeTx{err: errors.New("connection reset")}

		db.rollbackAfterPanic(tx, "boom")

		assert.Equal(t, 1, tx.calls)
		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.Equal(t, "boom", entry.Data["panic"])
		assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection reset")
	})

	t.Run("silent on success", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		db := &DB{logger: logger}

		db.rollbackAfterPanic(&fakeTx{}, "boom")
		assert.Empty(t, hook.AllEntries())
	})

	t.Run("ignores finished transaction", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		db := &DB{logger: logger}

		db.rollbackAfterPanic(&fakeTx{err: sql.ErrTxDone}, "boom")
		assert.Empty(t, hook.AllEntries())
	})
}
